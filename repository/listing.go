package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/blogcms/models"
)

const (
	PublicPageSize = 9
	AdminPageSize  = 10
	MaxPageSize    = 100
)

// ListParams selects a page of posts. Zero values mean "no filter".
type ListParams struct {
	Page       int
	Limit      int
	Search     string
	CategoryID string
	Status     models.PostStatus
	// Public restricts the listing to PUBLISHED posts whatever Status says.
	Public bool
}

// Normalize applies defaults and validates the filters.
func (p *ListParams) Normalize() error {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = AdminPageSize
		if p.Public {
			p.Limit = PublicPageSize
		}
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	p.Search = strings.TrimSpace(p.Search)
	p.CategoryID = strings.TrimSpace(p.CategoryID)
	if p.Public {
		p.Status = models.StatusPublished
	}
	if p.Status != "" && !p.Status.Valid() {
		return invalid("status", "status must be DRAFT, PUBLISHED or ARCHIVED")
	}
	return nil
}

// PostPage is one page of a listing.
type PostPage struct {
	Items      []models.Post `json:"items"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"totalPages"`
}

// List returns the posts matching p, newest publication first.
func (r *PostRepository) List(ctx context.Context, p ListParams) (*PostPage, error) {
	if err := p.Normalize(); err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)

	var total int64
	if err := r.filtered(db, p).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, err
	}

	items := []models.Post{}
	order := "COALESCE(published_at, created_at) DESC"
	if p.Public {
		order = "published_at DESC"
	}
	err := r.withRelations(r.filtered(db, p)).
		Order(order).
		Offset((p.Page - 1) * p.Limit).
		Limit(p.Limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if err := r.attachCommentCounts(db, items); err != nil {
		return nil, err
	}

	return &PostPage{
		Items:      items,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: int((total + int64(p.Limit) - 1) / int64(p.Limit)),
	}, nil
}

// likeEscaper makes user input match literally in a LIKE ... ESCAPE '!' pattern.
// '!' is used instead of a backslash, which MySQL and Postgres quote differently.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *PostRepository) filtered(db *gorm.DB, p ListParams) *gorm.DB {
	q := db.Model(&models.Post{})
	if p.Status != "" {
		q = q.Where("status = ?", p.Status)
	}
	if p.Search != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(p.Search)) + "%"
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(content) LIKE ? ESCAPE '!' OR "+
			"LOWER(COALESCE(excerpt, '')) LIKE ? ESCAPE '!')", like, like, like)
	}
	if p.CategoryID != "" {
		q = q.Where("id IN (?)", db.Table("post_categories").Select("post_id").Where("category_id = ?", p.CategoryID))
	}
	return q
}

func (r *PostRepository) attachCommentCounts(db *gorm.DB, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	var rows []struct {
		PostID string
		N      int64
	}
	err := db.Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ? AND status = ?", ids, models.CommentApproved).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.N
	}
	for i := range posts {
		posts[i].CommentCount = counts[posts[i].ID]
	}
	return nil
}
