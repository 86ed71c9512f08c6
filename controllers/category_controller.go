package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogcms/repository"
	"github.com/cppla/blogcms/utils"
)

// CategoryController manages categories.
type CategoryController struct {
	categories *repository.CategoryRepository
	cache      *utils.Cache
	logger     *zap.Logger
}

func NewCategoryController(categories *repository.CategoryRepository, cache *utils.Cache, logger *zap.Logger) *CategoryController {
	return &CategoryController{categories: categories, cache: cache, logger: logger}
}

type categoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

func (c *CategoryController) List(ctx *gin.Context) {
	cats, err := c.categories.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.logger, err, "failed to list categories")
		return
	}
	utils.Success(ctx, cats)
}

func (c *CategoryController) Create(ctx *gin.Context) {
	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "name is required")
		return
	}
	cat, err := c.categories.Create(ctx.Request.Context(), repository.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		respondError(ctx, c.logger, err, "failed to create category")
		return
	}
	c.cache.InvalidateByPrefix(ctx.Request.Context(), blogCachePrefix)
	utils.Created(ctx, cat)
}

func (c *CategoryController) Update(ctx *gin.Context) {
	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "name is required")
		return
	}
	cat, err := c.categories.Update(ctx.Request.Context(), ctx.Param("id"),
		repository.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		respondError(ctx, c.logger, err, "failed to update category")
		return
	}
	c.cache.InvalidateByPrefix(ctx.Request.Context(), blogCachePrefix)
	utils.Success(ctx, cat)
}

func (c *CategoryController) Delete(ctx *gin.Context) {
	if err := c.categories.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, c.logger, err, "failed to delete category")
		return
	}
	c.cache.InvalidateByPrefix(ctx.Request.Context(), blogCachePrefix)
	utils.Success(ctx, gin.H{"success": true})
}
