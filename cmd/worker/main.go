package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/ward-assistant/internal/app"
	"github.com/jwalitptl/ward-assistant/internal/config"
	"github.com/jwalitptl/ward-assistant/internal/repository/postgres"
	"github.com/jwalitptl/ward-assistant/internal/worker"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

// setupHealthCheck serves liveness and a readiness probe that pings the
// audit database.
func setupHealthCheck(addr string, ready func(context.Context) error, logger *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ready(ctx); err != nil {
			logger.Warn("audit database unreachable", "error", err.Error())
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err, "health check server failed")
		}
	}()
	return srv
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	healthAddr := flag.String("health-addr", ":8081", "address of the health check listener")
	flag.Parse()

	// Load config
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Audit.DSN == "" {
		log.Fatal().Msg("audit.dsn is required by the retention worker")
	}

	logger := app.NewLogger(cfg.Log)

	// Initialize database
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Audit.DSN)
	if err != nil {
		logger.Fatal(err, "failed to connect to audit database")
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatal(err, "failed to migrate audit database")
	}

	repo := postgres.NewAuditRepository(postgres.NewBaseRepository(db))
	retention := worker.NewAuditRetentionWorker(repo, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval, logger)

	health := setupHealthCheck(*healthAddr, db.PingContext, logger)

	// Start returns at once when retention is disabled; the process then
	// idles until signalled so the deployment does not restart in a loop.
	retention.Start(ctx)
	<-ctx.Done()
	logger.Info("shutting down worker...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := health.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "health check server forced to shutdown")
	}
}
