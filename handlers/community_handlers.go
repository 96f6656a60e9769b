package handlers

import (
	"context"
	"errors"
	"sort"

	"github.com/adamspd/patentehub/auth"
	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/adamspd/patentehub/utils"
)

type CommunityHandlers struct {
	*base
}

// ListPosts returns every post, newest first.
func (ch *CommunityHandlers) ListPosts(ctx context.Context) Response[[]models.Post] {
	var posts []models.Post
	err := ch.db.View(ctx, func(tx *db.Tx) error {
		var err error
		posts, err = db.All[models.Post](tx, db.Posts)
		return err
	})
	if err != nil {
		return fail[[]models.Post](err)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return ok(posts)
}

func (ch *CommunityHandlers) GetPost(ctx context.Context, id string) Response[*models.Post] {
	var post *models.Post
	err := ch.db.View(ctx, func(tx *db.Tx) error {
		var err error
		post, err = getPost(tx, id)
		return err
	})
	if err != nil {
		return fail[*models.Post](err)
	}
	return ok(post)
}

func (ch *CommunityHandlers) CreatePost(ctx context.Context, token, content, image string) Response[*models.Post] {
	var post *models.Post
	err := ch.db.Update(ctx, func(tx *db.Tx) error {
		user, err := ch.participant(tx, token)
		if err != nil {
			return err
		}
		text := utils.Sanitize(content)
		if text == "" {
			return badRequest("post content is empty")
		}

		now := ch.now()
		post = &models.Post{
			ID:         utils.GenerateID(),
			UserID:     user.ID,
			UserName:   user.Name,
			UserAvatar: user.Avatar,
			Content:    text,
			Image:      image,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return tx.Put(db.Posts, post)
	})
	if err != nil {
		return fail[*models.Post](err)
	}

	utils.LogAPI("Post %s created by %s", post.ID, post.UserID)
	return created(post)
}

// UpdatePost replaces the content. Only the author or the administrator may
// edit a post.
func (ch *CommunityHandlers) UpdatePost(ctx context.Context, token, id, content string) Response[*models.Post] {
	var post *models.Post
	err := ch.withPost(ctx, id, func(tx *db.Tx) error {
		user, err := ch.sessions.ResolveTx(tx, token)
		if err != nil {
			return err
		}
		post, err = getPost(tx, id)
		if err != nil {
			return err
		}
		if !user.CanModify(post.UserID) {
			return forbidden("only the author can edit this post")
		}
		text := utils.Sanitize(content)
		if text == "" {
			return badRequest("post content is empty")
		}

		post.Content = text
		post.UpdatedAt = ch.now()
		return tx.Put(db.Posts, post)
	})
	if err != nil {
		return fail[*models.Post](err)
	}
	return ok(post)
}

// DeletePost removes the post with all of its comments and likes.
func (ch *CommunityHandlers) DeletePost(ctx context.Context, token, id string) Response[any] {
	removed := 0
	err := ch.withPost(ctx, id, func(tx *db.Tx) error {
		user, err := ch.sessions.ResolveTx(tx, token)
		if err != nil {
			return err
		}
		post, err := getPost(tx, id)
		if err != nil {
			return err
		}
		if !user.CanModify(post.UserID) {
			return forbidden("only the author can delete this post")
		}

		if err := tx.Delete(db.Posts, id); err != nil {
			return err
		}
		comments, err := db.ByIndex[models.Comment](tx, db.Comments, "postId", id)
		if err != nil {
			return err
		}
		for _, c := range comments {
			if err := tx.Delete(db.Comments, c.ID); err != nil {
				return err
			}
			removed++
		}
		likes, err := db.ByIndex[models.Like](tx, db.Likes, "postId", id)
		if err != nil {
			return err
		}
		for _, l := range likes {
			if err := tx.Delete(db.Likes, l.ID); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return fail[any](err)
	}

	utils.LogAPI("Post %s deleted with %d dependent record(s)", id, removed)
	return ok[any](nil)
}

// ListComments returns every comment of a post, oldest first.
func (ch *CommunityHandlers) ListComments(ctx context.Context, postID string) Response[[]models.Comment] {
	return ch.comments(ctx, func(tx *db.Tx) ([]models.Comment, error) {
		return db.ByIndex[models.Comment](tx, db.Comments, "postId", postID)
	})
}

// ListReplies returns the direct replies to parentID, or the top-level
// comments of the post when parentID is empty.
func (ch *CommunityHandlers) ListReplies(ctx context.Context, postID, parentID string) Response[[]models.Comment] {
	return ch.comments(ctx, func(tx *db.Tx) ([]models.Comment, error) {
		all, err := db.ByIndex[models.Comment](tx, db.Comments, "postId", postID)
		if err != nil {
			return nil, err
		}
		out := make([]models.Comment, 0, len(all))
		for _, c := range all {
			if c.ParentID == parentID {
				out = append(out, c)
			}
		}
		return out, nil
	})
}

func (ch *CommunityHandlers) comments(ctx context.Context, load func(tx *db.Tx) ([]models.Comment, error)) Response[[]models.Comment] {
	var comments []models.Comment
	err := ch.db.View(ctx, func(tx *db.Tx) error {
		var err error
		comments, err = load(tx)
		return err
	})
	if err != nil {
		return fail[[]models.Comment](err)
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return ok(comments)
}

// CreateComment adds a comment to a post. Content tagged with the legacy
// reply prefix is stored as a reply to the tagged comment.
func (ch *CommunityHandlers) CreateComment(ctx context.Context, token, postID, content string) Response[*models.Comment] {
	if parentID, text, isReply := models.ParseLegacyReply(content); isReply {
		return ch.CreateReply(ctx, token, postID, parentID, text)
	}
	return ch.createComment(ctx, token, postID, "", content)
}

// CreateReply adds a comment answering parentID on the same post.
func (ch *CommunityHandlers) CreateReply(ctx context.Context, token, postID, parentID, content string) Response[*models.Comment] {
	if parentID == "" {
		return fail[*models.Comment](badRequest("parent comment is required"))
	}
	return ch.createComment(ctx, token, postID, parentID, content)
}

func (ch *CommunityHandlers) createComment(ctx context.Context, token, postID, parentID, content string) Response[*models.Comment] {
	var comment *models.Comment
	err := ch.withPost(ctx, postID, func(tx *db.Tx) error {
		user, err := ch.participant(tx, token)
		if err != nil {
			return err
		}
		post, err := getPost(tx, postID)
		if err != nil {
			return err
		}
		if parentID != "" {
			parent, err := db.Get[models.Comment](tx, db.Comments, parentID)
			if errors.Is(err, db.ErrNotFound) || (err == nil && parent.PostID != postID) {
				return notFound("parent comment not found")
			}
			if err != nil {
				return err
			}
		}
		text := utils.Sanitize(content)
		if text == "" {
			return badRequest("comment is empty")
		}

		comment = &models.Comment{
			ID:        utils.GenerateID(),
			PostID:    postID,
			UserID:    user.ID,
			UserName:  user.Name,
			Content:   text,
			ParentID:  parentID,
			CreatedAt: ch.now(),
		}
		if err := tx.Put(db.Comments, comment); err != nil {
			return err
		}
		post.CommentsCount++
		return tx.Put(db.Posts, post)
	})
	if err != nil {
		return fail[*models.Comment](err)
	}
	return created(comment)
}

// DeleteComment removes one comment. Replies to it are kept.
func (ch *CommunityHandlers) DeleteComment(ctx context.Context, token, id string) Response[any] {
	var postID string
	err := ch.db.View(ctx, func(tx *db.Tx) error {
		c, err := db.Get[models.Comment](tx, db.Comments, id)
		if err != nil {
			return err
		}
		postID = c.PostID
		return nil
	})
	if errors.Is(err, db.ErrNotFound) {
		return fail[any](notFound("comment not found"))
	}
	if err != nil {
		return fail[any](err)
	}

	err = ch.withPost(ctx, postID, func(tx *db.Tx) error {
		user, err := ch.sessions.ResolveTx(tx, token)
		if err != nil {
			return err
		}
		c, err := db.Get[models.Comment](tx, db.Comments, id)
		if errors.Is(err, db.ErrNotFound) {
			return notFound("comment not found")
		}
		if err != nil {
			return err
		}
		if !user.CanModify(c.UserID) {
			return forbidden("only the author can delete this comment")
		}
		if err := tx.Delete(db.Comments, id); err != nil {
			return err
		}

		post, err := db.Get[models.Post](tx, db.Posts, c.PostID)
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if post.CommentsCount > 0 {
			post.CommentsCount--
		}
		return tx.Put(db.Posts, post)
	})
	if err != nil {
		return fail[any](err)
	}
	return ok[any](nil)
}

// ToggleLike flips the caller's like on a post.
func (ch *CommunityHandlers) ToggleLike(ctx context.Context, token, postID string) Response[models.LikeState] {
	var state models.LikeState
	err := ch.withPost(ctx, postID, func(tx *db.Tx) error {
		user, err := ch.participant(tx, token)
		if err != nil {
			return err
		}
		post, err := getPost(tx, postID)
		if err != nil {
			return err
		}

		existing, err := db.Unique[models.Like](tx, db.Likes, db.IndexPostUser, postID, user.ID)
		switch {
		case err == nil:
			if err := tx.Delete(db.Likes, existing.ID); err != nil {
				return err
			}
			if post.LikesCount > 0 {
				post.LikesCount--
			}
		case errors.Is(err, db.ErrNotFound):
			like := models.Like{
				ID:        utils.GenerateID(),
				PostID:    postID,
				UserID:    user.ID,
				CreatedAt: ch.now(),
			}
			if err := tx.Put(db.Likes, like); err != nil {
				return err
			}
			post.LikesCount++
			state.Liked = true
		default:
			return err
		}

		state.Count = post.LikesCount
		return tx.Put(db.Posts, post)
	})
	if err != nil {
		return fail[models.LikeState](err)
	}
	return ok(state)
}

// CheckLike reports whether the caller likes the post. Callers without a
// session get false.
func (ch *CommunityHandlers) CheckLike(ctx context.Context, token, postID string) Response[bool] {
	liked := false
	err := ch.db.View(ctx, func(tx *db.Tx) error {
		user, err := ch.sessions.ResolveTx(tx, token)
		if err != nil {
			return err
		}
		_, err = tx.Unique(db.Likes, db.IndexPostUser, postID, user.ID)
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		liked = err == nil
		return err
	})
	if errors.Is(err, auth.ErrNoSession) {
		return ok(false)
	}
	if err != nil {
		return fail[bool](err)
	}
	return ok(liked)
}

func (ch *CommunityHandlers) CreateReport(ctx context.Context, token, reportType, targetID, reason string) Response[*models.Report] {
	if err := models.ValidateReportType(reportType); err != nil {
		return fail[*models.Report](badRequest("%v", err))
	}
	if targetID == "" {
		return fail[*models.Report](badRequest("report target is required"))
	}

	var report *models.Report
	err := ch.db.Update(ctx, func(tx *db.Tx) error {
		user, err := ch.sessions.ResolveTx(tx, token)
		if err != nil {
			return err
		}
		report = &models.Report{
			ID:        utils.GenerateID(),
			Type:      reportType,
			TargetID:  targetID,
			UserID:    user.ID,
			Reason:    utils.Sanitize(reason),
			Status:    models.ReportPending,
			CreatedAt: ch.now(),
		}
		return tx.Put(db.Reports, report)
	})
	if err != nil {
		return fail[*models.Report](err)
	}

	utils.LogAPI("Report %s filed against %s %s", report.ID, reportType, targetID)
	return created(report)
}

// participant resolves a session that may post, comment and like.
func (ch *CommunityHandlers) participant(tx *db.Tx, token string) (*models.User, error) {
	user, err := ch.sessions.ResolveTx(tx, token)
	if err != nil {
		return nil, err
	}
	if err := user.CanParticipate(); err != nil {
		return nil, err
	}
	return user, nil
}

func getPost(tx *db.Tx, id string) (*models.Post, error) {
	post, err := db.Get[models.Post](tx, db.Posts, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, notFound("post not found")
	}
	return post, err
}
