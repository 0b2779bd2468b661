// Package bootstrap assembles the label and fulfillment services from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/labtrack/internal/application/fulfillment"
	applabeling "github.com/erp/labtrack/internal/application/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/auth"
	"github.com/erp/labtrack/internal/infrastructure/config"
	"github.com/erp/labtrack/internal/infrastructure/erp"
	"github.com/erp/labtrack/internal/infrastructure/lock"
	"github.com/erp/labtrack/internal/infrastructure/logger"
	"github.com/erp/labtrack/internal/infrastructure/metrics"
	"github.com/erp/labtrack/internal/infrastructure/notification"
	"github.com/erp/labtrack/internal/infrastructure/persistence"
	"github.com/erp/labtrack/internal/infrastructure/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Version is stamped at build time with -ldflags
var Version = "dev"

// Container holds every long-lived service of one process
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *persistence.Database
	Metrics *metrics.Metrics
	Tracer  *telemetry.TracerProvider

	LabelStore        *applabeling.LabelStore
	StatusChanges     *applabeling.StatusChangeService
	Duplicates        *applabeling.DuplicateResolver
	CompletionTracker *fulfillment.CompletionTracker
	OrderCompletion   *fulfillment.OrderCompletionService
	SubmissionGate    *fulfillment.DeliverySubmissionGate
	ErrorLogs         *persistence.GormErrorLogRepository

	JWT         *auth.JWTService
	Revocations auth.RevocationList

	closers []func(ctx context.Context) error
}

// New connects to the database and the optional Redis and Kafka backends and
// wires the services. Close must be called on every returned container,
// including on error paths after a partial build.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: log, Metrics: metrics.New()}

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    Version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return c, fmt.Errorf("init tracing: %w", err)
	}
	c.Tracer = tp
	c.closers = append(c.closers, tp.Shutdown)

	if err := c.openDatabase(); err != nil {
		return c, err
	}

	locker, err := c.openLocker(ctx)
	if err != nil {
		return c, err
	}
	notifier := c.openNotifier()

	db := c.DB.DB
	labelRepo := persistence.NewGormLabelRepository(db)
	sampleRepo := persistence.NewGormSampleRepository(db)
	customerRepo := persistence.NewGormCustomerRepository(db)
	orderRepo := persistence.NewGormSalesOrderRepository(db)
	noteRepo := persistence.NewGormDeliveryNoteRepository(db)
	c.ErrorLogs = persistence.NewGormErrorLogRepository(db)

	errorLog := notification.NewErrorLogSink(c.ErrorLogs, log)
	lease := applabeling.NewCustomerLease(customerRepo, log)
	labelScope := persistence.NewLabelingTransactionScope(db)

	c.LabelStore = applabeling.NewLabelStore(labelRepo)
	c.StatusChanges = applabeling.NewStatusChangeService(c.LabelStore, labelRepo, sampleRepo, labelScope, lease, errorLog, log)
	c.StatusChanges.SetMetrics(c.Metrics)
	c.Duplicates = applabeling.NewDuplicateResolver(labelRepo, labelScope, lease, errorLog, log)

	fulfillmentScope := persistence.NewFulfillmentTransactionScope(db)
	c.CompletionTracker = fulfillment.NewCompletionTracker(sampleRepo)

	fc := cfg.Fulfillment
	c.OrderCompletion = fulfillment.NewOrderCompletionService(
		orderRepo,
		c.CompletionTracker,
		customerRepo,
		erp.NewSalesOrderValidator(orderRepo),
		erp.NewDeliveryNoteMaker(orderRepo),
		erp.NewConfigNamingSeries(cfg.NamingSeries),
		fulfillmentScope,
		errorLog,
		fulfillment.CompletionConfig{ProductType: fc.ProductType, BatchLimit: fc.BatchLimit, LockTTL: fc.LockTTL},
		log,
	)
	c.OrderCompletion.SetLocker(locker)
	c.OrderCompletion.SetMetrics(c.Metrics)

	c.SubmissionGate = fulfillment.NewDeliverySubmissionGate(
		noteRepo,
		sampleRepo,
		fulfillmentScope,
		notifier,
		errorLog,
		fulfillment.SubmissionConfig{
			Cooldown:           fc.Cooldown,
			AllowedItemCodes:   fc.AllowedItemCodes,
			EscalationTemplate: fc.EscalationTemplate,
			EscalationRole:     fc.EscalationRole,
			BatchLimit:         fc.BatchLimit,
			LockTTL:            fc.LockTTL,
		},
		log,
	)
	c.SubmissionGate.SetLocker(locker)
	c.SubmissionGate.SetMetrics(c.Metrics)

	c.JWT = auth.NewJWTService(cfg.JWT)
	return c, nil
}

func (c *Container) openDatabase() error {
	cfg := c.Config
	opts := []logger.GormLoggerOption{logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL)}
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		opts = append(opts, logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	}
	gormLog := logger.NewGormLogger(c.Logger, logger.MapGormLogLevel(cfg.Log.Level), opts...)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	c.DB = db
	c.closers = append(c.closers, func(context.Context) error { return db.Close() })

	dbSystem := "postgresql"
	if cfg.Database.Driver == config.DriverSQLite {
		dbSystem = "sqlite"
		// sqlite is the local and test driver; production schemas come from migrations
		if err := db.AutoMigrate(); err != nil {
			return err
		}
	}

	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, c.Logger)
	if err := plugin.RegisterOtelGorm(db.DB); err != nil {
		return fmt.Errorf("register database tracing: %w", err)
	}
	c.Logger.Info("Database connected", zap.String("driver", dbSystem))
	return nil
}

// openLocker returns the Redis sweep lock and revocation list, or their
// in-process versions when Redis is disabled.
func (c *Container) openLocker(ctx context.Context) (fulfillment.SweepLocker, error) {
	rc := c.Config.Redis
	if !rc.Enabled {
		c.Logger.Warn("Redis disabled, sweep lock and token revocations are local to this process")
		c.Revocations = auth.NewInMemoryRevocationList()
		return lock.NewInMemoryLocker(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: rc.Addr(), Password: rc.Password, DB: rc.DB})
	c.closers = append(c.closers, func(context.Context) error { return client.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis at %s: %w", rc.Addr(), err)
	}

	c.Revocations = auth.NewRedisRevocationList(client)
	c.Logger.Info("Redis connected", zap.String("addr", rc.Addr()))
	return lock.NewRedisLockerWithClient(client, ""), nil
}

func (c *Container) openNotifier() shared.Notifier {
	kc := c.Config.Kafka
	if !kc.Enabled || len(kc.Brokers) == 0 {
		return notification.NewLogNotifier(c.Logger)
	}
	n := notification.NewKafkaNotifier(notification.KafkaConfig{
		Brokers:      kc.Brokers,
		Topic:        kc.Topic,
		ClientID:     kc.ClientID,
		WriteTimeout: kc.WriteTimeout,
	}, c.Logger)
	c.closers = append(c.closers, func(context.Context) error { return n.Close() })
	c.Logger.Info("Kafka notifier enabled", zap.Strings("brokers", kc.Brokers), zap.String("topic", kc.Topic))
	return n
}

// Close releases everything New opened, in reverse order
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
