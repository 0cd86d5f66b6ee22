// Package app assembles the assistant's components from configuration.
// Every entry point builds one App and closes it on the way out.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jwalitptl/ward-assistant/internal/config"
	"github.com/jwalitptl/ward-assistant/internal/email"
	"github.com/jwalitptl/ward-assistant/internal/engine"
	"github.com/jwalitptl/ward-assistant/internal/handler"
	"github.com/jwalitptl/ward-assistant/internal/idgen"
	"github.com/jwalitptl/ward-assistant/internal/repository"
	"github.com/jwalitptl/ward-assistant/internal/repository/postgres"
	"github.com/jwalitptl/ward-assistant/internal/service/audit"
	"github.com/jwalitptl/ward-assistant/internal/service/event"
	"github.com/jwalitptl/ward-assistant/internal/service/report"
	"github.com/jwalitptl/ward-assistant/internal/session"
	"github.com/jwalitptl/ward-assistant/internal/store"
	"github.com/jwalitptl/ward-assistant/internal/store/memory"
	"github.com/jwalitptl/ward-assistant/internal/store/mongo"
	"github.com/jwalitptl/ward-assistant/internal/workflow"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
	"github.com/jwalitptl/ward-assistant/pkg/messaging"
	"github.com/jwalitptl/ward-assistant/pkg/messaging/kafka"
	"github.com/jwalitptl/ward-assistant/pkg/messaging/redis"
	"github.com/jwalitptl/ward-assistant/pkg/metrics"
)

const metricsNamespace = "ward"

type App struct {
	Config      *config.Config
	Logger      *logger.Logger
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Store       store.Gateway
	AuditRepo   repository.AuditRepository
	Audit       *audit.Service
	AuditLogger *audit.AuditLogger
	Events      *event.EventService
	Engine      *engine.Engine
	// Checks are the readiness probes for every backend that was opened.
	Checks map[string]handler.Check

	closers []func(ctx context.Context) error
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig) *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.JSON,
	})
}

// New connects every backend the configuration names. On error whatever was
// already opened is closed again.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *App, err error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		Config:   cfg,
		Logger:   log,
		Registry: registry,
		Metrics:  metrics.NewMetrics(metricsNamespace, "", registry),
		Checks:   make(map[string]handler.Check),
	}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	gw, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = store.Instrument(gw, a.Metrics, store.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.OpenTimeout))
	a.Checks["hospital_db"] = gw.Ping

	if err := a.openAudit(ctx); err != nil {
		return nil, err
	}

	broker, err := a.openBroker(ctx)
	if err != nil {
		return nil, err
	}
	a.Events = event.NewEventService(broker, cfg.Events.Topic, log, a.Metrics)
	a.onClose(func(context.Context) error { return a.Events.Close() })

	exporter, err := a.reportExporter(ctx)
	if err != nil {
		return nil, err
	}

	throttle := session.NewThrottle(cfg.Session.LoginAttemptsPerMinute, cfg.Session.LoginBurst, cfg.Session.LockoutTTL)
	x := workflow.NewExecutor(workflow.Dependencies{
		Store:     a.Store,
		Allocator: idgen.NewAllocator(a.Store, a.Metrics),
		Guard:     session.NewGuard(a.Store, throttle, log, a.Metrics),
		Reports:   report.NewService(a.Store, exporter),
		Events:    a.Events,
		Audit:     a.AuditLogger,
		Logger:    log,
	})
	a.Engine = engine.New(x, log, a.Metrics)
	return a, nil
}

func (a *App) onClose(fn func(ctx context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *App) openStore(ctx context.Context) (store.Gateway, error) {
	cfg := a.Config
	if cfg.Store.Backend == "memory" {
		mem := memory.New()
		if err := memory.SeedDemo(mem, time.Now()); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
		a.Logger.Warn("using the in-memory store with demo data, nothing will be persisted")
		return mem, nil
	}

	db, err := mongo.Connect(ctx, mongo.Config{
		URI:                    cfg.Mongo.URI,
		Database:               cfg.Mongo.Database,
		ConnectTimeout:         cfg.Mongo.ConnectTimeout,
		ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
		SocketTimeout:          cfg.Mongo.SocketTimeout,
		OperationTimeout:       cfg.Mongo.OperationTimeout,
	}, a.Logger)
	if err != nil {
		return nil, err
	}
	a.onClose(db.Close)
	return db, nil
}

func (a *App) openAudit(ctx context.Context) error {
	if dsn := a.Config.Audit.DSN; dsn != "" {
		db, err := postgres.NewDB(ctx, dsn)
		if err != nil {
			return err
		}
		a.onClose(func(context.Context) error { return db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		a.AuditRepo = postgres.NewAuditRepository(postgres.NewBaseRepository(db))
		a.Checks["audit_db"] = db.PingContext
	} else {
		a.Logger.Info("audit database not configured, audit trail goes to the log only")
	}

	a.Audit = audit.NewService(a.AuditRepo, a.Logger)
	a.AuditLogger = audit.NewAuditLogger(a.Audit, a.Logger)
	a.onClose(func(context.Context) error {
		a.AuditLogger.Wait()
		return nil
	})
	return nil
}

func (a *App) openBroker(ctx context.Context) (messaging.Broker, error) {
	cfg := a.Config.Events
	switch cfg.Broker {
	case "redis":
		b, err := redis.NewStreamBroker(ctx, redis.Config{URL: cfg.RedisURL}, a.Logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "kafka":
		b, err := kafka.NewKafkaBroker(kafka.Config{Brokers: cfg.KafkaBrokers})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, nil
	}
}

func (a *App) reportExporter(ctx context.Context) (report.Exporter, error) {
	cfg := a.Config.Report
	switch cfg.Exporter {
	case "s3":
		return report.NewS3Exporter(ctx, cfg.S3.Bucket, cfg.S3.Prefix)
	case "mail":
		mail := email.NewSMTPService(email.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
		return report.NewMailExporter(mail, cfg.Mail.To), nil
	default:
		return report.FileExporter{Dir: cfg.Dir}, nil
	}
}

// Close releases resources in reverse order of acquisition. Pending audit
// writes are flushed before the stores go away.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
