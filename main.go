package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/cppla/blogcms/config"
	"github.com/cppla/blogcms/controllers"
	"github.com/cppla/blogcms/models"
	"github.com/cppla/blogcms/repository"
	"github.com/cppla/blogcms/routes"
	"github.com/cppla/blogcms/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Initialize logger early
	logger, err := utils.InitLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := config.OpenDatabase(cfg, models.All()...)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}

	rc, err := utils.NewRedis(cfg)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", zap.Error(err))
		_ = rc.Close()
		rc = nil
	}

	if cfg.SeedEnabled {
		res, err := repository.Seed(context.Background(), db, repository.SeedOptions{
			AdminEmail:    cfg.SeedAdminEmail,
			AdminPassword: cfg.SeedAdminPassword,
		})
		if err != nil {
			logger.Fatal("seed database", zap.Error(err))
		}
		logger.Info("seed data ensured",
			zap.String("admin", res.Admin.Email),
			zap.Int("categories", len(res.Categories)),
			zap.String("post", res.Welcome.Slug))
	}

	var mailer controllers.WelcomeSender
	if m := utils.NewMailer(cfg); m != nil {
		mailer = m
	}

	accessLog, err := utils.NewRollingFileLogger(cfg.GinPath, cfg)
	if err != nil {
		logger.Warn("access log disabled", zap.Error(err))
		accessLog = nil
	}

	r := routes.SetupRouter(routes.Deps{
		Config:    cfg,
		DB:        db,
		Redis:     rc,
		Logger:    logger,
		AccessLog: accessLog,
		Mailer:    mailer,
	})

	srv := utils.NewServer(":"+cfg.AppPort, r, logger)
	srv.OnShutdown(func() {
		if rc != nil {
			_ = rc.Close()
		}
		if err := config.CloseDatabase(db); err != nil {
			logger.Error("close database", zap.Error(err))
		}
	})

	logger.Info("starting server", zap.String("port", cfg.AppPort), zap.String("driver", cfg.DBDriver))
	if err := srv.Run(); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}
