package notification

import (
	"context"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrorLogStore persists operator-facing error entries
type ErrorLogStore interface {
	Create(ctx context.Context, entry shared.ErrorEntry) error
}

// ErrorLogSink writes escalations to zap and to the error_logs table.
// A failed insert is logged and swallowed so the calling sweep carries on.
type ErrorLogSink struct {
	store  ErrorLogStore
	logger *zap.Logger
}

// NewErrorLogSink creates an ErrorLogSink. store may be nil, in which case
// entries are only logged.
func NewErrorLogSink(store ErrorLogStore, logger *zap.Logger) *ErrorLogSink {
	return &ErrorLogSink{store: store, logger: logger.Named("error_log")}
}

// LogError implements shared.ErrorLog
func (s *ErrorLogSink) LogError(ctx context.Context, entry shared.ErrorEntry) {
	fields := []zap.Field{
		zap.String("title", entry.Title),
		zap.String("reference_type", entry.ReferenceType),
		zap.String("reference_name", entry.ReferenceName),
	}
	for k, v := range entry.Fields {
		fields = append(fields, zap.String(k, v))
	}
	log := logger.WithLogger(ctx, s.logger)
	log.Error(entry.Message, fields...)

	if s.store == nil {
		return
	}
	// The entry must survive a cancelled request or sweep context.
	if err := s.store.Create(context.WithoutCancel(ctx), entry); err != nil {
		log.Warn("failed to persist error log entry",
			zap.String("title", entry.Title),
			zap.Error(err),
		)
	}
}

var _ shared.ErrorLog = (*ErrorLogSink)(nil)
