package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogcms/middleware"
	"github.com/cppla/blogcms/models"
	"github.com/cppla/blogcms/repository"
	"github.com/cppla/blogcms/utils"
)

// AuthController handles registration, login and the session cookie.
type AuthController struct {
	users     *repository.UserRepository
	jwt       *utils.JWTManager
	blacklist *utils.TokenBlacklist
	guard     *utils.SignupGuard
	logger    *zap.Logger
	// secure cookies when served behind TLS
	secureCookie bool
}

func NewAuthController(users *repository.UserRepository, jwt *utils.JWTManager, blacklist *utils.TokenBlacklist,
	guard *utils.SignupGuard, logger *zap.Logger, secureCookie bool) *AuthController {
	return &AuthController{
		users:        users,
		jwt:          jwt,
		blacklist:    blacklist,
		guard:        guard,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// Register creates a USER account and signs it in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name" binding:"max=128"`
		Password string `json:"password" binding:"required,min=6,max=72"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "a valid email and a password of at least 6 characters are required")
		return
	}

	ip := ctx.ClientIP()
	if !a.guard.Allow(ctx.Request.Context(), "register", ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "too many registrations, try again later")
		return
	}

	user, err := a.users.Create(ctx.Request.Context(), repository.UserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     models.RoleUser,
	})
	if err != nil {
		respondError(ctx, a.logger, err, "failed to create user")
		return
	}
	a.guard.Record(ctx.Request.Context(), "register", ip)
	a.issueSession(ctx, user, http.StatusCreated)
}

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "email and password are required")
		return
	}
	user, err := a.users.Authenticate(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(ctx, a.logger, err, "login failed")
		return
	}
	a.issueSession(ctx, user, http.StatusOK)
}

func (a *AuthController) issueSession(ctx *gin.Context, user *models.User, status int) {
	token, expires, err := a.jwt.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		a.logger.Error("generate token failed", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookie, token, int(time.Until(expires).Seconds()), "/", "", a.secureCookie, true)
	ctx.JSON(status, utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{
		"token":     token,
		"expiresAt": expires,
		"user":      user,
	}})
}

// Logout revokes the token until its natural expiry and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	expiresAt := time.Now().Add(a.jwt.TTL())
	if v, ok := ctx.Get(middleware.ContextClaimsKey); ok {
		if claims, ok := v.(*utils.Claims); ok && claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
	}
	a.blacklist.Revoke(ctx.Request.Context(), token, expiresAt)
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookie, "", -1, "/", "", a.secureCookie, true)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, _ := middleware.CurrentUserID(ctx)
	user, err := a.users.Get(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, a.logger, err, "failed to load user")
		return
	}
	utils.Success(ctx, user)
}
