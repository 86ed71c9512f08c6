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

// UserController is the admin user management API.
type UserController struct {
	users  *repository.UserRepository
	logger *zap.Logger
}

func NewUserController(users *repository.UserRepository, logger *zap.Logger) *UserController {
	return &UserController{users: users, logger: logger}
}

type userRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"max=128"`
	Password string `json:"password" binding:"max=72"`
	Role     string `json:"role"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

func (r userRequest) input() repository.UserInput {
	return repository.UserInput{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		Role:     models.Role(r.Role),
		Bio:      r.Bio,
		Image:    r.Image,
	}
}

func (u *UserController) List(ctx *gin.Context) {
	page, limit := parsePagination(ctx)
	result, err := u.users.List(ctx.Request.Context(), page, limit)
	if err != nil {
		respondError(ctx, u.logger, err, "failed to list users")
		return
	}
	utils.Success(ctx, result)
}

func (u *UserController) Get(ctx *gin.Context) {
	user, err := u.users.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, u.logger, err, "failed to load user")
		return
	}
	utils.Success(ctx, user)
}

func (u *UserController) Create(ctx *gin.Context) {
	var req userRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	user, err := u.users.Create(ctx.Request.Context(), req.input())
	if err != nil {
		respondError(ctx, u.logger, err, "failed to create user")
		return
	}
	utils.Created(ctx, user)
}

func (u *UserController) Update(ctx *gin.Context) {
	var req userRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	user, err := u.users.Update(ctx.Request.Context(), ctx.Param("id"), req.input())
	if err != nil {
		respondError(ctx, u.logger, err, "failed to update user")
		return
	}
	utils.Success(ctx, user)
}

func (u *UserController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if self, _ := middleware.CurrentUserID(ctx); self == id {
		utils.Error(ctx, http.StatusBadRequest, 40021, "you cannot delete your own account")
		return
	}
	if err := u.users.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, u.logger, err, "failed to delete user")
		return
	}
	utils.Success(ctx, gin.H{"success": true})
}
