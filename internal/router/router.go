package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/ward-assistant/internal/handler"
	"github.com/jwalitptl/ward-assistant/internal/handler/prometheus"
	"github.com/jwalitptl/ward-assistant/internal/middleware"
	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	authH    Handler
	commandH Handler
	auditH   Handler
	h        *handler.Handler
	metrics  *prometheus.Handler
}

type RouterConfig struct {
	// Mode is a gin mode; empty leaves the process-wide mode alone.
	Mode           string
	RateLimit      float64
	RateBurst      int
	RequestTimeout time.Duration
}

func NewRouter(
	log *logger.Logger,
	auth *middleware.AuthMiddleware,
	authH Handler,
	commandH Handler,
	auditH Handler,
	h *handler.Handler,
	metrics *prometheus.Handler,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	engine := gin.New()
	r := &Router{
		engine:   engine,
		auth:     auth,
		authH:    authH,
		commandH: commandH,
		auditH:   auditH,
		h:        h,
		metrics:  metrics,
	}

	engine.Use(
		middleware.RequestID(log),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.ErrorHandler(log),
		metrics.Middleware(),
		middleware.SecurityHeaders(),
		middleware.Timeout(config.RequestTimeout),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RPS:   config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/health", r.h.LivenessCheck)
	r.engine.GET("/health/ready", r.h.ReadinessCheck)
	r.engine.GET("/metrics", r.metrics.Handler())

	api := r.engine.Group("/api/v1")
	api.Use(middleware.SizeLimit(middleware.DefaultMaxBodySize))

	r.authH.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.commandH.RegisterRoutes(protected)

	admin := protected.Group("")
	admin.Use(r.auth.RequireRole(model.RoleAdmin))
	r.auditH.RegisterRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
