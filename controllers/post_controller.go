package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogcms/middleware"
	"github.com/cppla/blogcms/models"
	"github.com/cppla/blogcms/repository"
	"github.com/cppla/blogcms/utils"
)

// PostController serves the admin post endpoints.
type PostController struct {
	posts  *repository.PostRepository
	cache  *utils.Cache
	logger *zap.Logger
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *repository.PostRepository, cache *utils.Cache, logger *zap.Logger) *PostController {
	return &PostController{posts: posts, cache: cache, logger: logger}
}

type postRequest struct {
	Title         string   `json:"title" binding:"required"`
	Content       string   `json:"content" binding:"required"`
	Excerpt       *string  `json:"excerpt"`
	FeaturedImage *string  `json:"featuredImage"`
	Status        string   `json:"status"`
	CategoryIDs   []string `json:"categoryIds"`
	TagNames      []string `json:"tagNames"`
}

func (r postRequest) input() repository.PostInput {
	return repository.PostInput{
		Title:         r.Title,
		Content:       r.Content,
		Excerpt:       r.Excerpt,
		FeaturedImage: r.FeaturedImage,
		Status:        models.PostStatus(r.Status),
		CategoryIDs:   r.CategoryIDs,
		TagNames:      r.TagNames,
	}
}

// ListPosts returns a page of posts in any status.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, limit := parsePagination(ctx)
	result, err := p.posts.List(ctx.Request.Context(), repository.ListParams{
		Page:       page,
		Limit:      limit,
		Search:     ctx.Query("search"),
		CategoryID: ctx.Query("category"),
		Status:     models.PostStatus(ctx.Query("status")),
	})
	if err != nil {
		respondError(ctx, p.logger, err, "failed to list posts")
		return
	}
	utils.Success(ctx, result)
}

// GetPost returns a post by id without counting a view.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.posts.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, p.logger, err, "failed to load post")
		return
	}
	utils.Success(ctx, post)
}

// CreatePost stores a new post authored by the current user.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "title and content are required")
		return
	}
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), userID, req.input())
	if err != nil {
		respondError(ctx, p.logger, err, "failed to create post")
		return
	}
	p.cache.InvalidateByPrefix(ctx.Request.Context(), blogCachePrefix)
	utils.Created(ctx, post)
}

// UpdatePost replaces every editable field of a post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "title and content are required")
		return
	}
	post, err := p.posts.Update(ctx.Request.Context(), ctx.Param("id"), req.input())
	if err != nil {
		respondError(ctx, p.logger, err, "failed to update post")
		return
	}
	p.cache.InvalidateByPrefix(ctx.Request.Context(), blogCachePrefix)
	utils.Success(ctx, post)
}

// DeletePost removes a post with its comments and associations.
func (p *PostController) DeletePost(ctx *gin.Context) {
	if err := p.posts.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, p.logger, err, "failed to delete post")
		return
	}
	p.cache.InvalidateByPrefix(ctx.Request.Context(), blogCachePrefix)
	utils.Success(ctx, gin.H{"success": true})
}
