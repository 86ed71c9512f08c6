package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/blogcms/config"
	"github.com/cppla/blogcms/models"
	"github.com/cppla/blogcms/repository"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
}

func (f *fakeMailer) SendWelcome(to string) error {
	f.mu.Lock()
	f.sent = append(f.sent, to)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
	mr     *miniredis.Miniredis
	mailer *fakeMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := config.AppConfig{
		JWTSecret:          "test-secret",
		JWTTTLHours:        1,
		GinMode:            "test",
		RateLimitPerMinute: 1000,
		AllowedOrigins:     []string{"*"},
		DBDriver:           "sqlite",
		DatabaseURI:        filepath.Join(dir, "blog.db"),
		LogLevel:           "silent",
		SiteName:           "BlogCMS",
		UploadMaxMB:        1,
		CacheTTLSeconds:    60,
	}
	db, err := config.OpenDatabase(cfg, models.All()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDatabase(db) })

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	mailer := &fakeMailer{done: make(chan struct{}, 4)}
	engine := SetupRouter(Deps{
		Config:    cfg,
		DB:        db,
		Redis:     rc,
		Mailer:    mailer,
		StaticDir: filepath.Join(dir, "static"),
	})
	return &testServer{t: t, engine: engine, db: db, mr: mr, mailer: mailer}
}

type envelope struct {
	Code  int             `json:"code"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func (s *testServer) adminToken() string {
	s.t.Helper()
	_, err := repository.NewUserRepository(s.db).Create(context.Background(), repository.UserInput{
		Email: "admin@example.com", Name: "Admin", Password: "admin123", Role: models.RoleAdmin,
	})
	require.NoError(s.t, err)
	return s.login("admin@example.com", "admin123")
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "api route not found", env.Error)
}

func TestProtectedWritesRequireAuth(t *testing.T) {
	s := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/posts"},
		{http.MethodPut, "/api/posts/x"},
		{http.MethodDelete, "/api/posts/x"},
		{http.MethodPost, "/api/categories"},
		{http.MethodPost, "/api/comments"},
		{http.MethodGet, "/api/admin/stats"},
	} {
		w, _ := s.do(tc.method, tc.path, "", gin.H{})
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken()

	w, env := s.do(http.MethodPost, "/api/categories", token, gin.H{"name": "Technology"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cat := decode[models.Category](t, env.Data)

	w, env = s.do(http.MethodPost, "/api/posts", token, gin.H{
		"title":       "Getting Started with Next.js",
		"content":     "<p>Hello</p>",
		"status":      "PUBLISHED",
		"categoryIds": []string{cat.ID},
		"tagNames":    []string{"nextjs"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[models.Post](t, env.Data)
	assert.Equal(t, "getting-started-with-next-js", post.Slug)
	assert.NotNil(t, post.PublishedAt)

	w, env = s.do(http.MethodPost, "/api/posts", token, gin.H{"title": "Getting started with next js", "content": "dup"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "slug")

	w, _ = s.do(http.MethodPost, "/api/posts", token, gin.H{"title": "No content"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodPut, "/api/posts/"+post.ID, token, gin.H{
		"title": "Getting Started with Next.js", "content": "<p>Edited</p>", "status": "PUBLISHED",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Post](t, env.Data)
	assert.True(t, post.PublishedAt.Equal(*updated.PublishedAt))
	assert.Empty(t, updated.Categories)

	w, _ = s.do(http.MethodPut, "/api/posts/missing", token, gin.H{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodGet, "/api/posts?status=PUBLISHED", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[repository.PostPage](t, env.Data)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, repository.AdminPageSize, page.Limit)

	w, _ = s.do(http.MethodDelete, "/api/posts/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/posts/"+post.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/posts/"+post.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicBlog(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken()

	_, env := s.do(http.MethodPost, "/api/posts", token, gin.H{"title": "Hello Readers", "content": "<p>x</p>", "status": "PUBLISHED"})
	post := decode[models.Post](t, env.Data)
	s.do(http.MethodPost, "/api/posts", token, gin.H{"title": "Secret Draft", "content": "<p>x</p>"})

	w, env := s.do(http.MethodGet, "/api/blog", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listing := decode[struct {
		Items      []models.Post     `json:"items"`
		Total      int64             `json:"total"`
		Limit      int               `json:"limit"`
		Categories []models.Category `json:"categories"`
	}](t, env.Data)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, repository.PublicPageSize, listing.Limit)
	assert.NotNil(t, listing.Categories)

	keys := s.mr.Keys()
	assert.Contains(t, keys, "cache:blog:list:cat=:page=1")

	w, env = s.do(http.MethodPost, "/api/comments", token, gin.H{"postId": post.ID, "content": "first!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	top := decode[models.Comment](t, env.Data)
	assert.Equal(t, models.CommentApproved, top.Status)
	assert.Empty(t, s.mr.Keys(), "writes invalidate the listing cache")

	w, _ = s.do(http.MethodPost, "/api/comments", token, gin.H{"postId": post.ID, "parentId": top.ID, "content": "reply"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = s.do(http.MethodGet, "/api/blog/hello-readers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[struct {
		Post     models.Post              `json:"post"`
		Comments []repository.CommentNode `json:"comments"`
	}](t, env.Data)
	assert.EqualValues(t, 1, detail.Post.Views)
	require.Len(t, detail.Comments, 1)
	assert.Len(t, detail.Comments[0].Replies, 1)

	w, _ = s.do(http.MethodGet, "/api/blog/secret-draft", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodGet, "/api/search?q=READERS", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[struct {
		Posts []models.Post `json:"posts"`
	}](t, env.Data)
	require.Len(t, found.Posts, 1)
	assert.Equal(t, post.ID, found.Posts[0].ID)

	w, env = s.do(http.MethodGet, "/api/admin/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[repository.AdminStats](t, env.Data)
	assert.EqualValues(t, 2, stats.Posts)
	assert.EqualValues(t, 1, stats.PublishedPosts)
	assert.EqualValues(t, 2, stats.Comments)
	assert.EqualValues(t, 1, stats.Users)
	assert.GreaterOrEqual(t, stats.PageViewsToday, int64(2))
}

func TestNewsletterSubscribe(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodPost, "/api/newsletter/subscribe", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/newsletter/subscribe", "", gin.H{"email": "reader@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	select {
	case <-s.mailer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("welcome mail not sent")
	}
	assert.Equal(t, []string{"reader@example.com"}, s.mailer.sent)

	w, env := s.do(http.MethodPost, "/api/newsletter/subscribe", "", gin.H{"email": "reader@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already subscribed", env.Error)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "new@example.com", "password": "secret1", "name": "New"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Result().Cookies())
	reg := decode[struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}](t, env.Data)
	assert.Equal(t, models.RoleUser, reg.User.Role)

	w, _ = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "new@example.com", "password": "wrong!!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := s.login("new@example.com", "secret1")
	w, env = s.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new@example.com", decode[models.User](t, env.Data).Email)

	w, _ = s.do(http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserManagement(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken()

	w, env := s.do(http.MethodPost, "/api/users", token, gin.H{"email": "ed@example.com", "password": "editor1", "role": "EDITOR"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ed := decode[models.User](t, env.Data)
	assert.Equal(t, models.RoleEditor, ed.Role)
	assert.NotContains(t, string(env.Data), "password")

	w, _ = s.do(http.MethodPost, "/api/users", token, gin.H{"email": "ed@example.com", "password": "editor1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodPut, "/api/users/"+ed.ID, token, gin.H{"email": "ed@example.com", "role": "AUTHOR"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleAuthor, decode[models.User](t, env.Data).Role)

	w, env = s.do(http.MethodGet, "/api/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode[repository.UserPage](t, env.Data).Total)

	w, _ = s.do(http.MethodDelete, "/api/users/"+ed.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/users/"+ed.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSiteConfig(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(http.MethodGet, "/api/config/site", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	site := decode[map[string]interface{}](t, env.Data)
	assert.Equal(t, "BlogCMS", site["name"])
	assert.Equal(t, []interface{}{}, site["imageDomains"])
}

func TestPublicBlog_CachedListingKeepsViewsCurrent(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken()

	w, _ := s.do(http.MethodPost, "/api/posts", token, gin.H{"title": "Save 100% Today", "content": "<p>x</p>", "status": "PUBLISHED"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, _ = s.do(http.MethodPost, "/api/posts", token, gin.H{"title": "Discount 100 Off", "content": "<p>x</p>", "status": "PUBLISHED"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	type listing struct {
		Items []models.Post `json:"items"`
	}
	viewsOf := func(slug string) int64 {
		t.Helper()
		w, env := s.do(http.MethodGet, "/api/blog", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		for _, p := range decode[listing](t, env.Data).Items {
			if p.Slug == slug {
				return p.Views
			}
		}
		t.Fatalf("post %q not listed", slug)
		return 0
	}

	assert.EqualValues(t, 0, viewsOf("save-100-today"))
	require.Contains(t, s.mr.Keys(), "cache:blog:list:cat=:page=1")

	for i := 0; i < 2; i++ {
		w, _ = s.do(http.MethodGet, "/api/blog/save-100-today", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	require.Contains(t, s.mr.Keys(), "cache:blog:list:cat=:page=1")
	assert.EqualValues(t, 2, viewsOf("save-100-today"))
	assert.EqualValues(t, 0, viewsOf("discount-100-off"))

	w, env := s.do(http.MethodGet, "/api/search?q=100%25", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[struct {
		Posts []models.Post `json:"posts"`
	}](t, env.Data)
	require.Len(t, found.Posts, 1)
	assert.Equal(t, "save-100-today", found.Posts[0].Slug)
}

func TestComments_RejectNestedReplies(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken()

	_, env := s.do(http.MethodPost, "/api/posts", token, gin.H{"title": "Threads", "content": "<p>x</p>", "status": "PUBLISHED"})
	post := decode[models.Post](t, env.Data)

	w, env := s.do(http.MethodPost, "/api/comments", token, gin.H{"postId": post.ID, "content": "top"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	top := decode[models.Comment](t, env.Data)

	w, env = s.do(http.MethodPost, "/api/comments", token, gin.H{"postId": post.ID, "parentId": top.ID, "content": "reply"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reply := decode[models.Comment](t, env.Data)

	w, _ = s.do(http.MethodPost, "/api/comments", token, gin.H{"postId": post.ID, "parentId": reply.ID, "content": "deeper"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
