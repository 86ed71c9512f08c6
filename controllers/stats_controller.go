package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogcms/repository"
	"github.com/cppla/blogcms/utils"
)

// StatsController provides dashboard statistics.
type StatsController struct {
	stats  *repository.StatsRepository
	logger *zap.Logger
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(stats *repository.StatsRepository, logger *zap.Logger) *StatsController {
	return &StatsController{stats: stats, logger: logger}
}

// GetAdminStats returns post, user, comment and traffic counters.
func (s *StatsController) GetAdminStats(ctx *gin.Context) {
	stats, err := s.stats.Admin(ctx.Request.Context())
	if err != nil {
		respondError(ctx, s.logger, err, "failed to load stats")
		return
	}
	utils.Success(ctx, stats)
}
