package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/blogcms/models"
	"github.com/cppla/blogcms/utils"
)

// CommentInput is a new comment; ParentID makes it a reply.
type CommentInput struct {
	PostID   string
	ParentID *string
	Content  string
}

// CommentRepository stores comments.
type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create stores an approved comment. A parent must be a top-level comment of the same post.
func (r *CommentRepository) Create(ctx context.Context, authorID string, in CommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(utils.SanitizeComment(in.Content))
	if content == "" {
		return nil, invalid("content", "content is required")
	}
	if strings.TrimSpace(in.PostID) == "" {
		return nil, invalid("postId", "postId is required")
	}

	comment := models.Comment{
		Content:  content,
		Status:   models.CommentApproved,
		AuthorID: authorID,
		PostID:   in.PostID,
		ParentID: trimmedOrNil(in.ParentID),
	}
	db := r.db.WithContext(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, "id = ?", in.PostID).Error; err != nil {
			return notFound(err)
		}
		if comment.ParentID != nil {
			var parent models.Comment
			err := tx.Select("id", "post_id", "parent_id").First(&parent, "id = ?", *comment.ParentID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return invalid("parentId", "parent comment must belong to the same post")
			case err != nil:
				return err
			case parent.PostID != in.PostID:
				return invalid("parentId", "parent comment must belong to the same post")
			case parent.ParentID != nil:
				return invalid("parentId", "replies can only be made to top-level comments")
			}
		}
		return tx.Omit("Author").Create(&comment).Error
	})
	if err != nil {
		return nil, err
	}
	if err := db.Preload("Author").First(&comment, "id = ?", comment.ID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListApproved returns the approved comments of a post, newest first.
func (r *CommentRepository) ListApproved(ctx context.Context, postID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ? AND status = ?", postID, models.CommentApproved).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}
