package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/blogcms/models"
)

// SeedOptions configures the starter data.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// SeedResult lists what Seed ensured exists.
type SeedResult struct {
	Admin      *models.User
	Categories []models.Category
	Welcome    *models.Post
}

var seedCategories = []struct {
	name, description string
}{
	{"Technology", "Posts about technology and programming"},
	{"Lifestyle", "Posts about lifestyle and personal development"},
}

// Seed creates an admin account, starter categories and a welcome post. Existing rows
// are left untouched, so running it again is harmless.
func Seed(ctx context.Context, db *gorm.DB, opts SeedOptions) (*SeedResult, error) {
	users := NewUserRepository(db)
	cats := NewCategoryRepository(db)
	posts := NewPostRepository(db)

	admin, err := users.GetByEmail(ctx, opts.AdminEmail)
	if errors.Is(err, ErrNotFound) {
		admin, err = users.Create(ctx, UserInput{
			Email:    opts.AdminEmail,
			Name:     "Admin User",
			Password: opts.AdminPassword,
			Role:     models.RoleAdmin,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	res := &SeedResult{Admin: admin}
	for _, sc := range seedCategories {
		desc := sc.description
		cat, err := cats.Create(ctx, CategoryInput{Name: sc.name, Description: &desc})
		if errors.Is(err, ErrDuplicateSlug) {
			var existing models.Category
			if err := db.WithContext(ctx).First(&existing, "name = ?", sc.name).Error; err != nil {
				return nil, fmt.Errorf("seed category %s: %w", sc.name, err)
			}
			cat, err = &existing, nil
		}
		if err != nil {
			return nil, fmt.Errorf("seed category %s: %w", sc.name, err)
		}
		res.Categories = append(res.Categories, *cat)
	}

	excerpt := "Welcome to your new blog platform"
	welcome, err := posts.Create(ctx, admin.ID, PostInput{
		Title:       "Welcome to BlogCMS",
		Content:     "<p>This is your first blog post! You can edit or delete this post from the admin dashboard.</p>",
		Excerpt:     &excerpt,
		Status:      models.StatusPublished,
		CategoryIDs: []string{res.Categories[0].ID},
	})
	if errors.Is(err, ErrDuplicateSlug) {
		var existing models.Post
		if err := db.WithContext(ctx).First(&existing, "slug = ?", "welcome-to-blogcms").Error; err != nil {
			return nil, fmt.Errorf("seed welcome post: %w", err)
		}
		welcome, err = &existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seed welcome post: %w", err)
	}
	res.Welcome = welcome
	return res, nil
}
