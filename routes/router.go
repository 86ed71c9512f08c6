package routes

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/blogcms/config"
	"github.com/cppla/blogcms/controllers"
	"github.com/cppla/blogcms/middleware"
	"github.com/cppla/blogcms/models"
	"github.com/cppla/blogcms/repository"
	"github.com/cppla/blogcms/utils"
)

// Deps are the process-wide resources the router wires into controllers.
type Deps struct {
	Config config.AppConfig
	DB     *gorm.DB
	// Redis is optional; without it caching is off and revocations stay in memory.
	Redis     *redis.Client
	Logger    *zap.Logger
	AccessLog *zap.Logger
	Mailer    controllers.WelcomeSender
	// StaticDir defaults to ./static.
	StaticDir string
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	staticDir := d.StaticDir
	if staticDir == "" {
		staticDir = "./static"
	}

	r := gin.New()
	if d.AccessLog != nil {
		r.Use(utils.Ginzap(d.AccessLog, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(d.AccessLog, false))
	} else {
		r.Use(utils.RecoveryWithZap(logger, true))
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// repositories
	postRepo := repository.NewPostRepository(d.DB)
	categoryRepo := repository.NewCategoryRepository(d.DB)
	commentRepo := repository.NewCommentRepository(d.DB)
	userRepo := repository.NewUserRepository(d.DB)
	newsletterRepo := repository.NewNewsletterRepository(d.DB)
	pvRepo := repository.NewPageViewRepository(d.DB)
	statsRepo := repository.NewStatsRepository(d.DB, pvRepo)

	// shared helpers
	cache := utils.NewCache(d.Redis, time.Duration(cfg.CacheTTLSeconds)*time.Second, logger)
	jwt := utils.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	blacklist := utils.NewTokenBlacklist(d.Redis)
	guard := utils.NewSignupGuard(d.Redis, time.Duration(cfg.SignupCooldownSec)*time.Second, cfg.SignupMaxPerIPPerDay)

	r.Use(middleware.PageViewRecorder(pvRepo, logger, "/api/blog"))

	r.Static("/static", staticDir)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(userRepo, jwt, blacklist, guard, logger,
		strings.HasPrefix(cfg.SiteURL, "https://"))
	postController := controllers.NewPostController(postRepo, cache, logger)
	blogController := controllers.NewBlogController(postRepo, categoryRepo, commentRepo, cache, logger)
	categoryController := controllers.NewCategoryController(categoryRepo, cache, logger)
	commentController := controllers.NewCommentController(commentRepo, cache, logger)
	newsletterController := controllers.NewNewsletterController(newsletterRepo, d.Mailer, guard, logger)
	statsController := controllers.NewStatsController(statsRepo, logger)
	userController := controllers.NewUserController(userRepo, logger)
	uploadController := controllers.NewUploadController(filepath.Join(staticDir, "uploads"), cfg.UploadMaxMB, logger)
	configController := controllers.NewConfigController(cfg)

	authRequired := middleware.AuthRequired(jwt, blacklist)
	limited := middleware.RateLimit(cfg.RateLimitPerMinute)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", limited, authController.Register)
	authGroup.POST("/login", limited, authController.Login)
	authGroup.POST("/logout", authRequired, authController.Logout)
	authGroup.GET("/me", authRequired, authController.Me)

	// public
	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/blog", blogController.ListPublished)
	api.GET("/blog/:slug", blogController.GetBySlug)
	api.GET("/search", blogController.Search)
	api.GET("/categories", categoryController.List)
	api.GET("/config/site", configController.GetSite)
	api.POST("/newsletter/subscribe", limited, newsletterController.Subscribe)

	protected := api.Group("")
	protected.Use(authRequired)
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/categories", categoryController.Create)
	protected.PUT("/categories/:id", categoryController.Update)
	protected.DELETE("/categories/:id", categoryController.Delete)
	protected.POST("/comments", limited, commentController.CreateComment)
	protected.POST("/upload", limited, uploadController.UploadImage)
	protected.GET("/admin/stats", statsController.GetAdminStats)

	admin := protected.Group("/users", middleware.RequireRole(models.RoleAdmin))
	admin.GET("", userController.List)
	admin.POST("", userController.Create)
	admin.GET("/:id", userController.Get)
	admin.PUT("/:id", userController.Update)
	admin.DELETE("/:id", userController.Delete)

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		if strings.HasPrefix(path, "/static/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "static asset not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "page not found")
	})

	return r
}
