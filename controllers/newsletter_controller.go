package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogcms/repository"
	"github.com/cppla/blogcms/utils"
)

// WelcomeSender delivers the newsletter welcome mail.
type WelcomeSender interface {
	SendWelcome(to string) error
}

// NewsletterController handles mailing-list signups.
type NewsletterController struct {
	subs   *repository.NewsletterRepository
	mailer WelcomeSender
	guard  *utils.SignupGuard
	logger *zap.Logger
}

// NewNewsletterController creates the controller; mailer may be nil when SMTP is not configured.
func NewNewsletterController(subs *repository.NewsletterRepository, mailer WelcomeSender,
	guard *utils.SignupGuard, logger *zap.Logger) *NewsletterController {
	return &NewsletterController{subs: subs, mailer: mailer, guard: guard, logger: logger}
}

// Subscribe adds an address and sends the welcome mail in the background.
func (n *NewsletterController) Subscribe(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "valid email required")
		return
	}
	ip := ctx.ClientIP()
	if !n.guard.Allow(ctx.Request.Context(), "newsletter", ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "too many signups, try again later")
		return
	}

	sub, err := n.subs.Subscribe(ctx.Request.Context(), req.Email)
	if err != nil {
		respondError(ctx, n.logger, err, "subscription failed")
		return
	}
	n.guard.Record(ctx.Request.Context(), "newsletter", ip)

	if n.mailer != nil {
		// delivery failures never undo the subscription
		go func(to string) {
			if err := n.mailer.SendWelcome(to); err != nil {
				n.logger.Warn("welcome mail failed", zap.String("email", to), zap.Error(err))
			}
		}(sub.Email)
	}
	utils.Success(ctx, gin.H{"success": true})
}
