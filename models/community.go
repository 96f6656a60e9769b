package models

import (
	"strings"
	"time"
)

const (
	ReportPending   = "pending"
	ReportReviewed  = "reviewed"
	ReportDismissed = "dismissed"

	// LegacyReplyPrefix tags replies stored before comments had a parentId:
	// "REPLY_TO:<parentId>:<text>".
	LegacyReplyPrefix = "REPLY_TO:"
)

var (
	validReportTypes    = []string{"post", "comment", "user"}
	validReportStatuses = []string{ReportPending, ReportReviewed, ReportDismissed}
)

// Post is a community message with denormalized author and counters
type Post struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	UserAvatar    string    `json:"userAvatar"`
	Content       string    `json:"content"`
	Image         string    `json:"image"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	ParentID  string    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Like struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Report struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TargetID  string    `json:"targetId"`
	UserID    string    `json:"userId"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeState is the result of toggling a like
type LikeState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// ParseLegacyReply splits a "REPLY_TO:<parentId>:<text>" comment body. ok is
// false when content does not carry the tag.
func ParseLegacyReply(content string) (parentID, text string, ok bool) {
	if !strings.HasPrefix(content, LegacyReplyPrefix) {
		return "", content, false
	}
	rest := strings.TrimPrefix(content, LegacyReplyPrefix)
	i := strings.Index(rest, ":")
	if i <= 0 {
		return "", content, false
	}
	return rest[:i], rest[i+1:], true
}

func ValidateReportType(t string) error {
	return oneOf("report type", t, validReportTypes)
}

func ValidateReportStatus(s string) error {
	return oneOf("report status", s, validReportStatuses)
}
