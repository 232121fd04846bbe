package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"familyquest/config"
	"familyquest/database"
	"familyquest/game"
	"familyquest/logger"
	"familyquest/middleware"
	"familyquest/routes"
	"familyquest/services"
	"familyquest/utils"

	"go.uber.org/zap"
)

func main() {
	cfg, cfgErr := config.Load()

	log, err := logger.Init(cfg.Env, cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfgErr != nil {
		log.Fatal("invalid configuration", zap.Error(cfgErr))
	}

	if cfg.MonstersFile != "" {
		ms, err := game.LoadMonsters(cfg.MonstersFile)
		if err != nil {
			log.Fatal("failed to load monsters", zap.String("file", cfg.MonstersFile), zap.Error(err))
		}
		game.SetMonsters(ms)
		log.Info("monster table loaded", zap.Int("count", len(ms)))
	}

	utils.InitRedis(cfg.RedisAddr)

	db, err := database.Connect()
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	// Auto-migrate only in development unless explicitly asked for
	if cfg.Env == "development" || config.GetBool("AUTO_MIGRATE", false) {
		log.Info("performing auto-migration")
		if err := database.Migrate(db); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
	} else {
		log.Info("skipping auto-migration", zap.String("env", cfg.Env))
	}

	svc := services.New(db, services.WithPolicy(services.Policy{
		EnforceBookingDeadline: cfg.EnforceBookingDeadline,
		EnforceSideQuestExpiry: cfg.EnforceSideQuestExpiry,
	}))

	router := routes.InitRouter(svc)
	ipLimiter := middleware.NewIPRateLimiter(0, time.Minute)

	// Request ID -> Logging -> Security headers -> Recovery -> IP limit -> Max Body -> Timeout
	handler := middleware.RequestIDMiddleware(
		middleware.RequestLogMiddleware(
			middleware.SecurityHeadersMiddleware(
				middleware.RecoveryMiddleware(
					ipLimiter.Middleware(
						middleware.MaxBodyMiddleware(
							middleware.TimeoutMiddleware(router),
						),
					),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server exited")
}
