package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	CommentPending  CommentStatus = "PENDING"
	CommentApproved CommentStatus = "APPROVED"
	CommentRejected CommentStatus = "REJECTED"
)

// Comment represents a reply to a post, optionally to another comment on the same post.
type Comment struct {
	ID        string        `gorm:"primaryKey;size:36" json:"id"`
	Content   string        `gorm:"type:text;not null" json:"content"`
	Status    CommentStatus `gorm:"size:16;index;default:'APPROVED';not null" json:"status"`
	AuthorID  string        `gorm:"size:36;index;not null" json:"author_id"`
	PostID    string        `gorm:"size:36;index;not null" json:"post_id"`
	ParentID  *string       `gorm:"size:36;index" json:"parent_id"`
	CreatedAt time.Time     `json:"created_at"`
	Author    User          `gorm:"foreignKey:AuthorID" json:"author"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
