package notification

import (
	"context"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogNotifier only logs notifications. It is used when Kafka is disabled.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: log.Named("notifier")}
}

// SendTemplated implements shared.Notifier
func (n *LogNotifier) SendTemplated(ctx context.Context, notification shared.Notification) error {
	logger.WithLogger(ctx, n.logger).Warn("notification not delivered, no transport configured",
		zap.String("template", notification.Template),
		zap.String("recipient_role", notification.RecipientRole),
		zap.String("subject", notification.Subject),
		zap.Any("variables", notification.Variables),
	)
	return nil
}

var _ shared.Notifier = (*LogNotifier)(nil)
