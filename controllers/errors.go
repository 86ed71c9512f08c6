package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogcms/repository"
	"github.com/cppla/blogcms/utils"
)

// respondError translates repository errors into the JSON error envelope.
// Unexpected errors are logged and answered with a generic message.
func respondError(ctx *gin.Context, logger *zap.Logger, err error, internalMsg string) {
	var ve *repository.ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	case errors.Is(err, repository.ErrDuplicateSlug):
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
	case errors.Is(err, repository.ErrDuplicateEmail):
		utils.Error(ctx, http.StatusBadRequest, 40011, err.Error())
	case errors.Is(err, repository.ErrAlreadySubscribed):
		utils.Error(ctx, http.StatusBadRequest, 40012, "already subscribed")
	case errors.Is(err, repository.ErrInvalidCredential):
		utils.Error(ctx, http.StatusUnauthorized, 40106, err.Error())
	case errors.As(err, &ve):
		utils.Error(ctx, http.StatusBadRequest, 40020, ve.Error())
	default:
		logger.Error(internalMsg,
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50000, internalMsg)
	}
}

func badRequest(ctx *gin.Context, msg string) {
	utils.Error(ctx, http.StatusBadRequest, 40001, msg)
}

func parsePagination(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.Query("page"))
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	return page, limit
}
