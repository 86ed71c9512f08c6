package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogcms/middleware"
	"github.com/cppla/blogcms/repository"
	"github.com/cppla/blogcms/utils"
)

// CommentController accepts new comments. Comments are approved on creation.
type CommentController struct {
	comments *repository.CommentRepository
	cache    *utils.Cache
	logger   *zap.Logger
}

func NewCommentController(comments *repository.CommentRepository, cache *utils.Cache, logger *zap.Logger) *CommentController {
	return &CommentController{comments: comments, cache: cache, logger: logger}
}

// CreateComment posts a comment or a reply for the current user.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content  string  `json:"content" binding:"required"`
		PostID   string  `json:"postId" binding:"required"`
		ParentID *string `json:"parentId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "content and postId are required")
		return
	}
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	comment, err := c.comments.Create(ctx.Request.Context(), userID, repository.CommentInput{
		PostID:   req.PostID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		respondError(ctx, c.logger, err, "failed to create comment")
		return
	}
	// listings carry comment counts
	c.cache.InvalidateByPrefix(ctx.Request.Context(), blogCachePrefix)
	utils.Created(ctx, comment)
}
