package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/blogcms/models"
	"github.com/cppla/blogcms/utils"
)

// CategoryInput holds the editable category fields.
type CategoryInput struct {
	Name        string
	Description *string
}

// CategoryRepository manages categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all categories by name with the number of posts in each.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	db := r.db.WithContext(ctx)
	cats := []models.Category{}
	if err := db.Order("name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return cats, nil
	}

	var rows []struct {
		CategoryID string
		N          int64
	}
	err := db.Table("post_categories").
		Select("category_id, COUNT(*) AS n").
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.N
	}
	for i := range cats {
		cats[i].PostCount = counts[cats[i].ID]
	}
	return cats, nil
}

func (r *CategoryRepository) Get(ctx context.Context, id string) (*models.Category, error) {
	var cat models.Category
	if err := r.db.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &cat, nil
}

// Create adds a category whose slug is derived from its name.
func (r *CategoryRepository) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name, slug, err := categoryNameAndSlug(in.Name)
	if err != nil {
		return nil, err
	}
	cat := models.Category{Name: name, Slug: slug, Description: trimmedOrNil(in.Description)}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := slugTaken(tx, slug, ""); err != nil {
			return err
		}
		return tx.Create(&cat).Error
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// Update renames a category; the slug follows the new name.
func (r *CategoryRepository) Update(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	name, slug, err := categoryNameAndSlug(in.Name)
	if err != nil {
		return nil, err
	}
	var cat models.Category
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cat, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := slugTaken(tx, slug, id); err != nil {
			return err
		}
		cat.Name = name
		cat.Slug = slug
		cat.Description = trimmedOrNil(in.Description)
		return tx.Save(&cat).Error
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// Delete removes a category and detaches it from every post.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.Select("id").First(&cat, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Exec("DELETE FROM post_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&cat).Error
	})
}

func categoryNameAndSlug(raw string) (string, string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", "", invalid("name", "name is required")
	}
	slug, err := utils.NewSlug(name)
	if err != nil {
		return "", "", invalid("name", "name must contain letters or digits")
	}
	return name, slug, nil
}

func slugTaken(tx *gorm.DB, slug, exceptID string) error {
	q := tx.Model(&models.Category{}).Where("slug = ?", slug)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicateSlug
	}
	return nil
}
