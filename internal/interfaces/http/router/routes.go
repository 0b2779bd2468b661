package router

import (
	"github.com/erp/labtrack/internal/infrastructure/auth"
	"github.com/erp/labtrack/internal/infrastructure/logger"
	"github.com/erp/labtrack/internal/infrastructure/metrics"
	"github.com/erp/labtrack/internal/interfaces/http/handler"
	"github.com/erp/labtrack/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles everything the API serves
type Handlers struct {
	Labels      *handler.LabelHandler
	Duplicates  *handler.DuplicateHandler
	Fulfillment *handler.FulfillmentHandler
	ErrorLogs   *handler.ErrorLogHandler
	System      *handler.SystemHandler
}

// EngineConfig holds the middleware settings of the HTTP engine
type EngineConfig struct {
	ServiceName    string
	Tracing        bool
	MaxBodySize    int64
	TrustedProxies []string
	Auth           middleware.JWTMiddlewareConfig
	// Metrics is optional; when set /metrics is served and every request observed
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// NewEngine builds the gin engine with the full middleware stack and all routes.
// Middleware order:
//  1. RequestID
//  2. Recovery
//  3. Logger
//  4. Tracing (when enabled)
//  5. Metrics (when configured)
//  6. Security headers and body limit
//  7. JWT, then span attributes that need the subject
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = log
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Tracing {
		engine.Use(middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: true}))
	}
	if cfg.Metrics != nil {
		engine.Use(middleware.Metrics(cfg.Metrics))
	}
	engine.Use(middleware.Secure())
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	engine.Use(middleware.JWTAuthMiddleware(cfg.Auth))
	if cfg.Tracing {
		engine.Use(middleware.TracingAttributes())
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	r := NewRouter(engine)
	r.Register(domainGroups(h)...)
	r.Setup()
	for _, rt := range r.Routes() {
		log.Debug("Route mounted",
			zap.String("method", rt.Method),
			zap.String("path", rt.Path),
			zap.Any("scopes", rt.Gates),
		)
	}

	return engine
}

func domainGroups(h Handlers) []*DomainGroup {
	labels := NewDomainGroup("labels", "/labels")
	labels.GET("/lookup", h.Labels.Lookup, auth.ScopeLabelsRead, auth.ScopeLabelsWrite).
		POST("/lookup", h.Labels.BatchLookup, auth.ScopeLabelsRead, auth.ScopeLabelsWrite).
		POST("/status", h.Labels.SetStatus, auth.ScopeLabelsWrite).
		POST("/lock", h.Labels.Lock, auth.ScopeLabelsWrite).
		POST("/mark-unused", h.Labels.MarkUnused, auth.ScopeLabelsWrite).
		POST("/receive", h.Labels.Receive, auth.ScopeLabelsWrite).
		POST("/process", h.Labels.Process, auth.ScopeLabelsWrite)

	labels.Group("duplicates", "/duplicates").
		Require(auth.ScopeDuplicatesAdmin).
		GET("", h.Duplicates.Inspect).
		POST("/keep-one-lock-other", h.Duplicates.KeepOneLockOther).
		POST("/lock-both", h.Duplicates.LockBoth).
		DELETE("/:name", h.Duplicates.Delete)

	orders := NewDomainGroup("orders", "/orders").Require(auth.ScopeFulfillmentRun)
	orders.GET("/:name/completion", h.Fulfillment.OrderCompletion)

	notes := NewDomainGroup("delivery-notes", "/delivery-notes").Require(auth.ScopeFulfillmentRun)
	notes.POST("/:name/submit-check", h.Fulfillment.SubmitCheck)

	sweeps := NewDomainGroup("sweeps", "/fulfillment/sweeps").Require(auth.ScopeFulfillmentRun)
	sweeps.POST("/completion", h.Fulfillment.RunCompletionSweep).
		POST("/submission", h.Fulfillment.RunSubmissionSweep)

	errorLogs := NewDomainGroup("error-logs", "/error-logs").Require(auth.ScopeErrorLogsRead)
	errorLogs.GET("", h.ErrorLogs.List)

	// any valid token
	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping)

	return []*DomainGroup{labels, orders, notes, sweeps, errorLogs, system}
}
