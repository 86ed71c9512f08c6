package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogcms/models"
)

func TestCategoryRepository(t *testing.T) {
	db := newTestDB(t)
	author := newTestAuthor(t, db)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	tech, err := repo.Create(ctx, CategoryInput{Name: " Technology ", Description: strPtr("code")})
	require.NoError(t, err)
	assert.Equal(t, "Technology", tech.Name)
	assert.Equal(t, "technology", tech.Slug)

	_, err = repo.Create(ctx, CategoryInput{Name: "technology!"})
	assert.ErrorIs(t, err, ErrDuplicateSlug)
	_, err = repo.Create(ctx, CategoryInput{Name: ""})
	assert.True(t, IsValidation(err))

	life, err := repo.Create(ctx, CategoryInput{Name: "Lifestyle"})
	require.NoError(t, err)

	_, err = NewPostRepository(db).Create(ctx, author.ID, PostInput{
		Title: "Counted", Content: "x", Status: models.StatusPublished, CategoryIDs: []string{tech.ID},
	})
	require.NoError(t, err)
	_, err = NewPostRepository(db).Create(ctx, author.ID, PostInput{
		Title: "Draft counted too", Content: "x", CategoryIDs: []string{tech.ID},
	})
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Lifestyle", list[0].Name)
	assert.EqualValues(t, 0, list[0].PostCount)
	assert.EqualValues(t, 2, list[1].PostCount)

	_, err = repo.Update(ctx, life.ID, CategoryInput{Name: "Technology"})
	assert.ErrorIs(t, err, ErrDuplicateSlug)
	updated, err := repo.Update(ctx, life.ID, CategoryInput{Name: "Life & Style"})
	require.NoError(t, err)
	assert.Equal(t, "life-style", updated.Slug)
	_, err = repo.Update(ctx, "missing", CategoryInput{Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, tech.ID))
	assert.ErrorIs(t, repo.Delete(ctx, tech.ID), ErrNotFound)
	var joins int64
	require.NoError(t, db.Table("post_categories").Count(&joins).Error)
	assert.Zero(t, joins)
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u, err := repo.Create(ctx, UserInput{Email: " Jane@Example.com ", Name: "Jane", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "hunter22", u.Password)

	_, err = repo.Create(ctx, UserInput{Email: "jane@example.com", Password: "another1"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	_, err = repo.Create(ctx, UserInput{Email: "not-an-email", Password: "another1"})
	assert.True(t, IsValidation(err))
	_, err = repo.Create(ctx, UserInput{Email: "short@example.com", Password: "123"})
	assert.True(t, IsValidation(err))

	got, err := repo.Authenticate(ctx, "JANE@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	_, err = repo.Authenticate(ctx, "jane@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	_, err = repo.Authenticate(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	updated, err := repo.Update(ctx, u.ID, UserInput{Email: u.Email, Name: "Jane D", Role: models.RoleEditor})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, updated.Role)
	_, err = repo.Authenticate(ctx, u.Email, "hunter22")
	require.NoError(t, err, "empty password keeps the old one")

	_, err = repo.Update(ctx, u.ID, UserInput{Email: u.Email, Password: "newpass1"})
	require.NoError(t, err)
	_, err = repo.Authenticate(ctx, u.Email, "newpass1")
	require.NoError(t, err)

	page, err := repo.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	require.NoError(t, repo.Delete(ctx, u.ID))
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), ErrNotFound)
}

func TestUserRepository_DeleteAuthorWithPosts(t *testing.T) {
	db := newTestDB(t)
	author := newTestAuthor(t, db)
	_, err := NewPostRepository(db).Create(context.Background(), author.ID, PostInput{Title: "Mine", Content: "x"})
	require.NoError(t, err)

	err = NewUserRepository(db).Delete(context.Background(), author.ID)
	assert.True(t, IsValidation(err))
}

func TestNewsletterRepository_Subscribe(t *testing.T) {
	db := newTestDB(t)
	repo := NewNewsletterRepository(db)
	ctx := context.Background()

	sub, err := repo.Subscribe(ctx, "Reader@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", sub.Email)

	_, err = repo.Subscribe(ctx, "reader@example.com")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
	_, err = repo.Subscribe(ctx, "nope")
	assert.True(t, IsValidation(err))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestStatsRepository_Admin(t *testing.T) {
	db := newTestDB(t)
	author := newTestAuthor(t, db)
	posts := NewPostRepository(db)
	pvs := NewPageViewRepository(db)
	ctx := context.Background()

	p, err := posts.Create(ctx, author.ID, PostInput{Title: "One", Content: "x", Status: models.StatusPublished})
	require.NoError(t, err)
	_, err = posts.Create(ctx, author.ID, PostInput{Title: "Two", Content: "x"})
	require.NoError(t, err)
	_, err = NewCommentRepository(db).Create(ctx, author.ID, CommentInput{PostID: p.ID, Content: "hi"})
	require.NoError(t, err)
	_, err = NewNewsletterRepository(db).Subscribe(ctx, "r@example.com")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, pvs.Record(ctx, "/api/blog/one"))
	}
	require.NoError(t, pvs.Record(ctx, "/api/blog"))

	stats, err := NewStatsRepository(db, pvs).Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, AdminStats{
		Posts: 2, PublishedPosts: 1, Users: 1, Comments: 1, Subscribers: 1, PageViewsToday: 4,
	}, *stats)

	n, err := pvs.ForPath(ctx, "/api/blog/one")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestSeed_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	opts := SeedOptions{AdminEmail: "admin@blogcms.com", AdminPassword: "admin123"}

	first, err := Seed(ctx, db, opts)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, first.Admin.Role)
	assert.Len(t, first.Categories, 2)
	assert.Equal(t, "welcome-to-blogcms", first.Welcome.Slug)
	assert.NotNil(t, first.Welcome.PublishedAt)

	second, err := Seed(ctx, db, opts)
	require.NoError(t, err)
	assert.Equal(t, first.Admin.ID, second.Admin.ID)
	assert.Equal(t, first.Welcome.ID, second.Welcome.ID)

	var posts, cats int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Category{}).Count(&cats).Error)
	assert.EqualValues(t, 1, posts)
	assert.EqualValues(t, 2, cats)
}
