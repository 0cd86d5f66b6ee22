package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/ward-assistant/internal/app"
	"github.com/jwalitptl/ward-assistant/internal/config"
	"github.com/jwalitptl/ward-assistant/internal/handler"
	audithandler "github.com/jwalitptl/ward-assistant/internal/handler/audit"
	authhandler "github.com/jwalitptl/ward-assistant/internal/handler/auth"
	"github.com/jwalitptl/ward-assistant/internal/handler/command"
	"github.com/jwalitptl/ward-assistant/internal/handler/prometheus"
	"github.com/jwalitptl/ward-assistant/internal/middleware"
	"github.com/jwalitptl/ward-assistant/internal/router"
	"github.com/jwalitptl/ward-assistant/pkg/auth"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.Server.JWTSecret == "" {
		log.Fatal().Msg("server.jwt_secret is required")
	}

	logger := app.NewLogger(cfg.Log)

	// Connect backends and build the command engine
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout+5*time.Second)
	a, err := app.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal(err, "failed to start")
	}

	// Initialize middleware and handlers
	jwt := auth.NewJWTService(cfg.Server.JWTSecret, cfg.Server.TokenTTL)
	authMiddleware := middleware.NewAuthMiddleware(jwt)

	r := router.NewRouter(
		logger,
		authMiddleware,
		authhandler.NewHandler(a.Engine, jwt, authMiddleware),
		command.NewHandler(a.Engine),
		audithandler.NewHandler(a.Audit),
		handler.NewHandler(a.Checks),
		prometheus.New(a.Registry, a.Metrics),
		router.RouterConfig{
			Mode:           cfg.Server.Mode,
			RateLimit:      cfg.Server.RateLimitRPS,
			RateBurst:      cfg.Server.RateLimitBurst,
			RequestTimeout: cfg.Server.RequestTimeout,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error(err, "server forced to shutdown")
	}
	if err := a.Close(ctx); err != nil {
		logger.Error(err, "failed to release resources")
	}

	logger.Info("server exited properly")
}
