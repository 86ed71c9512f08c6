package controllers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cppla/blogcms/models"
	"github.com/cppla/blogcms/repository"
	"github.com/cppla/blogcms/utils"
)

const (
	blogCachePrefix = "cache:blog:"
	searchLimit     = 10
)

// BlogController serves the public reading endpoints.
type BlogController struct {
	posts      *repository.PostRepository
	categories *repository.CategoryRepository
	comments   *repository.CommentRepository
	cache      *utils.Cache
	logger     *zap.Logger
}

func NewBlogController(posts *repository.PostRepository, categories *repository.CategoryRepository,
	comments *repository.CommentRepository, cache *utils.Cache, logger *zap.Logger) *BlogController {
	return &BlogController{posts: posts, categories: categories, comments: comments, cache: cache, logger: logger}
}

type blogListing struct {
	*repository.PostPage
	Categories []models.Category `json:"categories"`
}

// ListPublished returns a page of published posts together with all categories.
func (b *BlogController) ListPublished(ctx *gin.Context) {
	page, _ := parsePagination(ctx)
	params := repository.ListParams{
		Page:       page,
		Search:     ctx.Query("search"),
		CategoryID: ctx.Query("category"),
		Public:     true,
	}
	if err := params.Normalize(); err != nil {
		respondError(ctx, b.logger, err, "failed to list posts")
		return
	}

	// free-text searches are not cached to keep the key space small
	cacheKey := ""
	if params.Search == "" {
		cacheKey = fmt.Sprintf("%slist:cat=%s:page=%d", blogCachePrefix, params.CategoryID, params.Page)
		var cached blogListing
		if b.cache.GetJSON(ctx.Request.Context(), cacheKey, &cached) && cached.PostPage != nil {
			// views move on every read; only the page layout comes from cache
			b.refreshViews(ctx, cached.Items)
			utils.Success(ctx, cached)
			return
		}
	}

	var out blogListing
	g, gctx := errgroup.WithContext(ctx.Request.Context())
	g.Go(func() error {
		var err error
		out.PostPage, err = b.posts.List(gctx, params)
		return err
	})
	g.Go(func() error {
		var err error
		out.Categories, err = b.categories.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(ctx, b.logger, err, "failed to list posts")
		return
	}

	if cacheKey != "" {
		b.cache.SetJSON(ctx.Request.Context(), cacheKey, out)
	}
	utils.Success(ctx, out)
}

func (b *BlogController) refreshViews(ctx *gin.Context, posts []models.Post) {
	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	counts, err := b.posts.ViewCounts(ctx.Request.Context(), ids)
	if err != nil {
		b.logger.Warn("refresh cached view counts", zap.Error(err))
		return
	}
	for i := range posts {
		if v, ok := counts[posts[i].ID]; ok {
			posts[i].Views = v
		}
	}
}

// GetBySlug returns a published post with its comment tree and counts the view.
func (b *BlogController) GetBySlug(ctx *gin.Context) {
	post, err := b.posts.GetBySlug(ctx.Request.Context(), ctx.Param("slug"), true)
	if err != nil {
		respondError(ctx, b.logger, err, "failed to load post")
		return
	}
	comments, err := b.comments.ListApproved(ctx.Request.Context(), post.ID)
	if err != nil {
		respondError(ctx, b.logger, err, "failed to load comments")
		return
	}
	post.CommentCount = int64(len(comments))
	utils.Success(ctx, gin.H{
		"post":     post,
		"comments": repository.BuildCommentTree(comments),
	})
}

// Search returns the newest published posts matching q.
func (b *BlogController) Search(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))
	posts, err := b.posts.Search(ctx.Request.Context(), q, searchLimit)
	if err != nil {
		respondError(ctx, b.logger, err, "search failed")
		return
	}
	utils.Success(ctx, gin.H{"posts": posts})
}
