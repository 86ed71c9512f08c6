package repository

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogcms/models"
	"github.com/cppla/blogcms/utils"
)

// PostInput carries the editable fields of a post. Update replaces all of them.
type PostInput struct {
	Title         string
	Content       string
	Excerpt       *string
	FeaturedImage *string
	Status        models.PostStatus
	CategoryIDs   []string
	TagNames      []string
}

// PostRepository reads and writes posts together with their category and tag associations.
type PostRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPostRepository creates a repository over db.
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db, now: time.Now}
}

func (in *PostInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return invalid("title", "title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return invalid("content", "content is required")
	}
	in.Content = utils.SanitizePost(in.Content)
	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	if !in.Status.Valid() {
		return invalid("status", "status must be DRAFT, PUBLISHED or ARCHIVED")
	}
	in.Excerpt = trimmedOrNil(in.Excerpt)
	in.FeaturedImage = trimmedOrNil(in.FeaturedImage)
	if in.FeaturedImage != nil && !validImageRef(*in.FeaturedImage) {
		return invalid("featuredImage", "featured image must be an http(s) URL or a site path")
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func validImageRef(ref string) bool {
	if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		return true
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Create inserts a post authored by authorID. The slug is derived from the title and must be unused.
func (r *PostRepository) Create(ctx context.Context, authorID string, in PostInput) (*models.Post, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	slug, err := utils.NewSlug(in.Title)
	if err != nil {
		return nil, invalid("title", "title must contain letters or digits")
	}

	post := models.Post{
		Title:         in.Title,
		Slug:          slug,
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		FeaturedImage: in.FeaturedImage,
		Status:        in.Status,
		AuthorID:      authorID,
	}
	models.StampPublication(&post, r.now())

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Post{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateSlug
		}
		cats, err := findCategories(tx, in.CategoryIDs)
		if err != nil {
			return err
		}
		tags, err := getOrCreateTags(tx, in.TagNames)
		if err != nil {
			return err
		}
		post.Categories = cats
		post.Tags = tags
		return tx.Omit("Author", "Categories.*", "Tags.*").Create(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, post.ID)
}

// Update replaces every editable field of the post; the slug stays as created.
func (r *PostRepository) Update(ctx context.Context, id string, in PostInput) (*models.Post, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		post.Title = in.Title
		post.Content = in.Content
		post.Excerpt = in.Excerpt
		post.FeaturedImage = in.FeaturedImage
		post.Status = in.Status
		models.StampPublication(&post, r.now())

		if err := tx.Model(&post).Omit(clause.Associations).
			Select("Title", "Content", "Excerpt", "FeaturedImage", "Status", "PublishedAt", "UpdatedAt").
			Updates(&post).Error; err != nil {
			return err
		}

		cats, err := findCategories(tx, in.CategoryIDs)
		if err != nil {
			return err
		}
		tags, err := getOrCreateTags(tx, in.TagNames)
		if err != nil {
			return err
		}
		if err := replaceAssociation(tx, &post, "Categories", cats); err != nil {
			return err
		}
		return replaceAssociation(tx, &post, "Tags", tags)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func replaceAssociation[T any](tx *gorm.DB, post *models.Post, name string, items []T) error {
	assoc := tx.Model(post).Association(name)
	if len(items) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(items)
}

// Delete removes the post, its association rows and its comments.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&post).Association("Categories").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
}

// Get loads a post by id with author, categories and tags.
func (r *PostRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.withRelations(r.db.WithContext(ctx)).First(&post, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// GetBySlug loads a post for display and counts the view. With requirePublished only
// PUBLISHED posts are found. The returned post carries the incremented view count.
func (r *PostRepository) GetBySlug(ctx context.Context, slug string, requirePublished bool) (*models.Post, error) {
	q := r.withRelations(r.db.WithContext(ctx)).Where("slug = ?", slug)
	if requirePublished {
		q = q.Where("status = ?", models.StatusPublished)
	}
	var post models.Post
	if err := q.First(&post).Error; err != nil {
		return nil, notFound(err)
	}
	if err := r.IncrementViews(ctx, post.ID); err != nil {
		return nil, err
	}
	post.Views++
	return &post, nil
}

// IncrementViews adds one view in a single UPDATE so concurrent readers never lose a count.
func (r *PostRepository) IncrementViews(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ViewCounts returns the current view counter of each post id that exists.
func (r *PostRepository) ViewCounts(ctx context.Context, ids []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		ID    string
		Views int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Select("id", "views").
		Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ID] = row.Views
	}
	return counts, nil
}

// Search returns up to limit published posts matching q, newest first.
func (r *PostRepository) Search(ctx context.Context, q string, limit int) ([]models.Post, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Post{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	page, err := r.List(ctx, ListParams{Page: 1, Limit: limit, Search: q, Public: true})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *PostRepository) withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") })
}

func findCategories(tx *gorm.DB, ids []string) ([]models.Category, error) {
	ids = dedupe(ids)
	cats := []models.Category{}
	if len(ids) == 0 {
		return cats, nil
	}
	// unknown ids are ignored
	if err := tx.Where("id IN ?", ids).Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

// getOrCreateTags looks each tag up by name and inserts the missing ones.
func getOrCreateTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := []models.Tag{}
	for _, name := range dedupe(names) {
		tag := models.Tag{Name: name}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag).Error; err != nil {
			return nil, err
		}
		var stored models.Tag
		if err := tx.Where("name = ?", name).First(&stored).Error; err != nil {
			return nil, err
		}
		tags = append(tags, stored)
	}
	return tags, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
