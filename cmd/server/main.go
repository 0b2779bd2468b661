package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/labtrack/internal/bootstrap"
	"github.com/erp/labtrack/internal/infrastructure/config"
	"github.com/erp/labtrack/internal/infrastructure/logger"
	"github.com/erp/labtrack/internal/infrastructure/scheduler"
	"github.com/erp/labtrack/internal/interfaces/http/handler"
	"github.com/erp/labtrack/internal/interfaces/http/middleware"
	"github.com/erp/labtrack/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

//	@title			Labtrack API
//	@version		1.0
//	@description	Sequencing label tracking and delivery note fulfillment

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting labtrack",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", bootstrap.Version),
	)

	ctx := context.Background()
	c, err := bootstrap.New(ctx, cfg, log)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := c.Close(closeCtx); err != nil {
			log.Error("Error releasing resources", zap.Error(err))
		}
	}()
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}

	if cfg.Scheduler.Enabled {
		sweeps := scheduler.NewFulfillmentScheduler(c.OrderCompletion, c.SubmissionGate, log, scheduler.FulfillmentSchedulerConfig{
			Enabled:            true,
			InitialDelay:       cfg.Scheduler.InitialDelay,
			CompletionInterval: cfg.Scheduler.CompletionInterval,
			SubmissionInterval: cfg.Scheduler.SubmissionInterval,
			RunTimeout:         cfg.Scheduler.RunTimeout,
		})
		sweeps.SetObserver(c.Metrics)
		if err := sweeps.Start(ctx); err != nil {
			log.Fatal("Failed to start fulfillment scheduler", zap.Error(err))
		}
		defer func() {
			if err := sweeps.Stop(context.Background()); err != nil {
				log.Error("Error stopping fulfillment scheduler", zap.Error(err))
			}
		}()
		log.Info("Fulfillment scheduler started",
			zap.Duration("completion_interval", cfg.Scheduler.CompletionInterval),
			zap.Duration("submission_interval", cfg.Scheduler.SubmissionInterval),
		)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	authCfg := middleware.DefaultJWTConfig(c.JWT)
	authCfg.Revocations = c.Revocations
	authCfg.Logger = log

	engine := router.NewEngine(router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Tracing:        c.Tracer.IsEnabled(),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Auth:           authCfg,
		Metrics:        c.Metrics,
		Logger:         log,
	}, router.Handlers{
		Labels:      handler.NewLabelHandler(c.LabelStore, c.StatusChanges),
		Duplicates:  handler.NewDuplicateHandler(c.Duplicates),
		Fulfillment: handler.NewFulfillmentHandler(c.CompletionTracker, c.OrderCompletion, c.SubmissionGate),
		ErrorLogs:   handler.NewErrorLogHandler(c.ErrorLogs),
		System:      handler.NewSystemHandler(cfg.App.Name, bootstrap.Version, c.DB),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
