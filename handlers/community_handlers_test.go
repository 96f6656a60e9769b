package handlers

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) post(t *testing.T, token, content string) *models.Post {
	t.Helper()
	resp := e.api.CreatePost(e.ctx, token, content, "")
	require.True(t, resp.Success, resp.Error)
	require.Equal(t, http.StatusCreated, resp.Code)
	return resp.Data
}

func (e *testEnv) getPost(t *testing.T, id string) *models.Post {
	t.Helper()
	resp := e.api.GetPost(e.ctx, id)
	require.True(t, resp.Success, resp.Error)
	return resp.Data
}

func TestCreatePost(t *testing.T) {
	e := setup(t)
	user := e.register(t, "luca@example.it", "Luca")

	p := e.post(t, user.Token, "  <script>x</script>Ciao a tutti ")
	assert.Equal(t, "xCiao a tutti", p.Content)
	assert.Equal(t, "Luca", p.UserName)
	assert.Zero(t, p.LikesCount)

	assert.Equal(t, http.StatusBadRequest, e.api.CreatePost(e.ctx, user.Token, "<b></b>", "").Code)
	assert.Equal(t, http.StatusUnauthorized, e.api.CreatePost(e.ctx, "", "hello", "").Code)
	assert.Equal(t, http.StatusNotFound, e.api.GetPost(e.ctx, "missing").Code)
}

func TestListPostsNewestFirst(t *testing.T) {
	e := setup(t)
	user := e.register(t, "luca@example.it", "Luca")

	first := e.post(t, user.Token, "first")
	e.clock.Advance(time.Minute)
	second := e.post(t, user.Token, "second")

	resp := e.api.ListPosts(e.ctx)
	require.True(t, resp.Success)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, second.ID, resp.Data[0].ID)
	assert.Equal(t, first.ID, resp.Data[1].ID)
}

func TestPostOwnership(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)
	author := e.register(t, "luca@example.it", "Luca")
	other := e.register(t, "sara@example.it", "Sara")
	p := e.post(t, author.Token, "mine")

	assert.Equal(t, http.StatusForbidden, e.api.UpdatePost(e.ctx, other.Token, p.ID, "hijack").Code)
	assert.Equal(t, http.StatusForbidden, e.api.DeletePost(e.ctx, other.Token, p.ID).Code)

	e.clock.Advance(time.Minute)
	upd := e.api.UpdatePost(e.ctx, author.Token, p.ID, "edited")
	require.True(t, upd.Success, upd.Error)
	assert.Equal(t, "edited", upd.Data.Content)
	assert.True(t, upd.Data.UpdatedAt.After(upd.Data.CreatedAt))

	assert.True(t, e.api.DeletePost(e.ctx, admin, p.ID).Success)
	assert.Equal(t, http.StatusNotFound, e.api.DeletePost(e.ctx, admin, p.ID).Code)
}

func TestLikeToggleRestoresCount(t *testing.T) {
	e := setup(t)
	user := e.register(t, "luca@example.it", "Luca")
	p := e.post(t, user.Token, "like me")

	on := e.api.ToggleLike(e.ctx, user.Token, p.ID)
	require.True(t, on.Success, on.Error)
	assert.Equal(t, models.LikeState{Liked: true, Count: 1}, on.Data)
	assert.True(t, e.api.CheckLike(e.ctx, user.Token, p.ID).Data)

	off := e.api.ToggleLike(e.ctx, user.Token, p.ID)
	require.True(t, off.Success, off.Error)
	assert.Equal(t, models.LikeState{Liked: false, Count: 0}, off.Data)
	assert.False(t, e.api.CheckLike(e.ctx, user.Token, p.ID).Data)

	assert.Equal(t, 0, e.getPost(t, p.ID).LikesCount)
	assert.Zero(t, e.count(t, db.Likes))
}

func TestConcurrentLikes(t *testing.T) {
	e := setup(t)
	author := e.register(t, "author@example.it", "Author")
	p := e.post(t, author.Token, "popular")

	tokens := make([]string, 10)
	for i := range tokens {
		tokens[i] = e.register(t, fmt.Sprintf("fan%d@example.it", i), fmt.Sprintf("Fan %d", i)).Token
	}

	toggleAll := func() {
		var wg sync.WaitGroup
		for _, tok := range tokens {
			wg.Add(1)
			go func(tok string) {
				defer wg.Done()
				resp := e.api.ToggleLike(e.ctx, tok, p.ID)
				assert.True(t, resp.Success, resp.Error)
			}(tok)
		}
		wg.Wait()
	}

	toggleAll()
	assert.Equal(t, 10, e.getPost(t, p.ID).LikesCount)
	assert.Equal(t, 10, e.count(t, db.Likes))

	toggleAll()
	assert.Equal(t, 0, e.getPost(t, p.ID).LikesCount)
	assert.Zero(t, e.count(t, db.Likes))
}

func TestCheckLikeWithoutSession(t *testing.T) {
	e := setup(t)
	resp := e.api.CheckLike(e.ctx, "", "any")
	assert.True(t, resp.Success)
	assert.False(t, resp.Data)
}

func TestCommentsAndReplies(t *testing.T) {
	e := setup(t)
	user := e.register(t, "luca@example.it", "Luca")
	p := e.post(t, user.Token, "question")

	root := e.api.CreateComment(e.ctx, user.Token, p.ID, "root comment")
	require.True(t, root.Success, root.Error)
	assert.Empty(t, root.Data.ParentID)

	e.clock.Advance(time.Second)
	reply := e.api.CreateReply(e.ctx, user.Token, p.ID, root.Data.ID, "direct reply")
	require.True(t, reply.Success, reply.Error)
	assert.Equal(t, root.Data.ID, reply.Data.ParentID)

	e.clock.Advance(time.Second)
	legacy := e.api.CreateComment(e.ctx, user.Token, p.ID, models.LegacyReplyPrefix+root.Data.ID+":legacy reply")
	require.True(t, legacy.Success, legacy.Error)
	assert.Equal(t, root.Data.ID, legacy.Data.ParentID)
	assert.Equal(t, "legacy reply", legacy.Data.Content)

	assert.Equal(t, 3, e.getPost(t, p.ID).CommentsCount)

	all := e.api.ListComments(e.ctx, p.ID)
	require.True(t, all.Success)
	require.Len(t, all.Data, 3)
	assert.Equal(t, root.Data.ID, all.Data[0].ID)

	roots := e.api.ListReplies(e.ctx, p.ID, "")
	require.Len(t, roots.Data, 1)
	replies := e.api.ListReplies(e.ctx, p.ID, root.Data.ID)
	require.Len(t, replies.Data, 2)
	assert.Equal(t, reply.Data.ID, replies.Data[0].ID)

	assert.Equal(t, http.StatusNotFound, e.api.CreateReply(e.ctx, user.Token, p.ID, "missing", "x").Code)
	assert.Equal(t, http.StatusNotFound, e.api.CreateComment(e.ctx, user.Token, "missing", "x").Code)
	assert.Equal(t, http.StatusBadRequest, e.api.CreateComment(e.ctx, user.Token, p.ID, "  ").Code)
}

func TestReplyMustBelongToSamePost(t *testing.T) {
	e := setup(t)
	user := e.register(t, "luca@example.it", "Luca")
	p1 := e.post(t, user.Token, "one")
	p2 := e.post(t, user.Token, "two")

	c := e.api.CreateComment(e.ctx, user.Token, p1.ID, "on one")
	require.True(t, c.Success)

	resp := e.api.CreateReply(e.ctx, user.Token, p2.ID, c.Data.ID, "cross post")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, 0, e.getPost(t, p2.ID).CommentsCount)
}

func TestDeleteCommentKeepsReplies(t *testing.T) {
	e := setup(t)
	author := e.register(t, "luca@example.it", "Luca")
	other := e.register(t, "sara@example.it", "Sara")
	p := e.post(t, author.Token, "thread")

	root := e.api.CreateComment(e.ctx, author.Token, p.ID, "root")
	require.True(t, root.Success)
	reply := e.api.CreateReply(e.ctx, other.Token, p.ID, root.Data.ID, "reply")
	require.True(t, reply.Success)

	assert.Equal(t, http.StatusForbidden, e.api.DeleteComment(e.ctx, other.Token, root.Data.ID).Code)
	require.True(t, e.api.DeleteComment(e.ctx, author.Token, root.Data.ID).Success)
	assert.Equal(t, http.StatusNotFound, e.api.DeleteComment(e.ctx, author.Token, root.Data.ID).Code)

	assert.Equal(t, 1, e.getPost(t, p.ID).CommentsCount)
	remaining := e.api.ListComments(e.ctx, p.ID)
	require.Len(t, remaining.Data, 1)
	assert.Equal(t, reply.Data.ID, remaining.Data[0].ID)
}

func TestDeletePostCascades(t *testing.T) {
	e := setup(t)
	author := e.register(t, "luca@example.it", "Luca")
	fan := e.register(t, "sara@example.it", "Sara")
	keep := e.post(t, author.Token, "keep")
	gone := e.post(t, author.Token, "gone")

	for _, id := range []string{keep.ID, gone.ID} {
		require.True(t, e.api.CreateComment(e.ctx, fan.Token, id, "nice").Success)
		require.True(t, e.api.ToggleLike(e.ctx, fan.Token, id).Success)
		require.True(t, e.api.ToggleLike(e.ctx, author.Token, id).Success)
	}
	require.Equal(t, 2, e.count(t, db.Comments))
	require.Equal(t, 4, e.count(t, db.Likes))

	require.True(t, e.api.DeletePost(e.ctx, author.Token, gone.ID).Success)

	assert.Equal(t, 1, e.count(t, db.Posts))
	assert.Equal(t, 1, e.count(t, db.Comments))
	assert.Equal(t, 2, e.count(t, db.Likes))
	assert.Empty(t, e.api.ListComments(e.ctx, gone.ID).Data)
	assert.Len(t, e.api.ListComments(e.ctx, keep.ID).Data, 1)
}

func TestBannedUserCannotParticipate(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)
	author := e.register(t, "luca@example.it", "Luca")
	troll := e.register(t, "troll@example.it", "Troll")
	p := e.post(t, author.Token, "hello")

	require.True(t, e.api.BanUser(e.ctx, admin, troll.User.ID, true).Success)

	assert.Equal(t, http.StatusForbidden, e.api.CreatePost(e.ctx, troll.Token, "spam", "").Code)
	assert.Equal(t, http.StatusForbidden, e.api.CreateComment(e.ctx, troll.Token, p.ID, "spam").Code)
	assert.Equal(t, http.StatusForbidden, e.api.ToggleLike(e.ctx, troll.Token, p.ID).Code)

	require.True(t, e.api.BanUser(e.ctx, admin, troll.User.ID, false).Success)
	assert.True(t, e.api.CreatePost(e.ctx, troll.Token, "sorry", "").Success)
}

func TestCreateReport(t *testing.T) {
	e := setup(t)
	user := e.register(t, "luca@example.it", "Luca")

	resp := e.api.CreateReport(e.ctx, user.Token, "post", "p1", "<b>spam</b>")
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, models.ReportPending, resp.Data.Status)
	assert.Equal(t, "spam", resp.Data.Reason)

	assert.Equal(t, http.StatusBadRequest, e.api.CreateReport(e.ctx, user.Token, "lesson", "p1", "x").Code)
	assert.Equal(t, http.StatusBadRequest, e.api.CreateReport(e.ctx, user.Token, "post", "", "x").Code)
	assert.Equal(t, http.StatusUnauthorized, e.api.CreateReport(e.ctx, "", "post", "p1", "x").Code)
}
