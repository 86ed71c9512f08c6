package controllers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/blogcms/utils"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadController stores featured images under the static directory.
type UploadController struct {
	root     string
	maxBytes int64
	logger   *zap.Logger
	now      func() time.Time
}

// NewUploadController saves files below root (served as /static/uploads).
func NewUploadController(root string, maxMB int, logger *zap.Logger) *UploadController {
	if maxMB <= 0 {
		maxMB = 5
	}
	return &UploadController{root: root, maxBytes: int64(maxMB) << 20, logger: logger, now: time.Now}
}

// UploadImage accepts a multipart "file" field and returns its public URL.
func (u *UploadController) UploadImage(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		badRequest(ctx, "no file uploaded")
		return
	}
	defer file.Close()

	tooLarge := fmt.Sprintf("file size exceeds %dMB", u.maxBytes>>20)
	if header.Size > u.maxBytes {
		utils.Error(ctx, http.StatusBadRequest, 40032, tooLarge)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, u.maxBytes+1))
	if err != nil {
		badRequest(ctx, "failed to read upload")
		return
	}
	if int64(len(data)) > u.maxBytes {
		utils.Error(ctx, http.StatusBadRequest, 40032, tooLarge)
		return
	}

	mt := mimetype.Detect(data)
	if !allowedImageTypes[mt.String()] {
		utils.Error(ctx, http.StatusBadRequest, 40033, "only jpeg, png, gif and webp images are allowed")
		return
	}

	day := u.now().Format("2006/01/02")
	dir := filepath.Join(u.root, filepath.FromSlash(day))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		u.logger.Error("create upload directory failed", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to store file")
		return
	}
	name := uuid.NewString() + mt.Extension()
	dst := filepath.Join(dir, name)
	out, err := os.Create(dst)
	if err != nil {
		u.logger.Error("create upload file failed", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to store file")
		return
	}
	if _, err := io.Copy(out, bytes.NewReader(data)); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		u.logger.Error("write upload failed", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to store file")
		return
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to store file")
		return
	}

	utils.Created(ctx, gin.H{
		"url":  path.Join("/static/uploads", day, name),
		"mime": mt.String(),
		"size": len(data),
	})
}
