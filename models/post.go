package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostStatus is the visibility state of a post. Any state may move to any other.
type PostStatus string

const (
	StatusDraft     PostStatus = "DRAFT"
	StatusPublished PostStatus = "PUBLISHED"
	StatusArchived  PostStatus = "ARCHIVED"
)

// Valid reports whether s is one of the three post states.
func (s PostStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Post is a blog entry.
type Post struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Slug          string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	Excerpt       *string    `gorm:"type:text" json:"excerpt"`
	FeaturedImage *string    `gorm:"size:1024" json:"featured_image"`
	Status        PostStatus `gorm:"size:16;index;default:'DRAFT';not null" json:"status"`
	PublishedAt   *time.Time `gorm:"index" json:"published_at"`
	Views         int64      `gorm:"not null;default:0" json:"views"`
	AuthorID      string     `gorm:"size:36;index;not null" json:"author_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Author        User       `gorm:"foreignKey:AuthorID" json:"author"`
	Categories    []Category `gorm:"many2many:post_categories;" json:"categories"`
	Tags          []Tag      `gorm:"many2many:post_tags;" json:"tags"`
	Comments      []Comment  `gorm:"foreignKey:PostID" json:"-"`

	CommentCount int64 `gorm:"-" json:"comment_count"`
}

// BeforeCreate assigns the id and default status.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	return nil
}

// StampPublication sets PublishedAt the first time a post is PUBLISHED.
// An existing timestamp is never changed or cleared.
func StampPublication(p *Post, now time.Time) {
	if p.Status != StatusPublished || p.PublishedAt != nil {
		return
	}
	t := now
	p.PublishedAt = &t
}
