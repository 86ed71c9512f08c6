package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/blogcms/config"
	"github.com/cppla/blogcms/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: filepath.Join(t.TempDir(), "blog.db"),
		LogLevel:    "silent",
	}, models.All()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	return db
}

func newTestAuthor(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	u, err := NewUserRepository(db).Create(context.Background(), UserInput{
		Email:    "author@example.com",
		Name:     "Author",
		Password: "secret123",
		Role:     models.RoleAuthor,
	})
	require.NoError(t, err)
	return u
}

func strPtr(s string) *string { return &s }
