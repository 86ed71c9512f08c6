package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PageViewStore persists page view counters.
type PageViewStore interface {
	Record(ctx context.Context, path string) error
}

// PageViewRecorder records successful GET requests under the given path prefixes.
func PageViewRecorder(store PageViewStore, logger *zap.Logger, prefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}
		path := c.Request.URL.Path
		if !hasAnyPrefix(path, prefixes) {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Record(ctx, path); err != nil && logger != nil {
			logger.Warn("record page view failed", zap.String("path", path), zap.Error(err))
		}
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
