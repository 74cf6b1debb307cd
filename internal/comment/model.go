// Package comment provides the comment domain model and data access.
package comment

import (
	"errors"
	"time"
)

// Comment is a note on an apartment. A nil ParentCommentID marks a top-level
// comment; otherwise it is a reply to that top-level comment.
type Comment struct {
	ID              string    `json:"id" firestore:"-"`
	ApartmentID     string    `json:"apartmentId" firestore:"apartmentId"`
	UserID          string    `json:"userId" firestore:"userId"`
	Username        string    `json:"username" firestore:"username"`
	Text            string    `json:"text" firestore:"text"`
	CreatedAt       time.Time `json:"timestamp" firestore:"timestamp"`
	UserImage       string    `json:"userImage,omitempty" firestore:"userImage"`
	ParentCommentID *string   `json:"parentCommentId" firestore:"parentCommentId"`
}

// IsReply reports whether c answers another comment.
func (c Comment) IsReply() bool {
	return c.ParentCommentID != nil
}

// Parent returns the parent comment ID, or "".
func (c Comment) Parent() string {
	if c.ParentCommentID == nil {
		return ""
	}
	return *c.ParentCommentID
}

var (
	// ErrEmptyText is returned when a comment has no text.
	ErrEmptyText = errors.New("comment text is required")
	// ErrInvalidParent is returned for a reply whose parent is missing,
	// belongs to another apartment, or is itself a reply.
	ErrInvalidParent = errors.New("reply parent must be a top-level comment on the same apartment")
)
