package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// Envelope is the JSON message the mailer consumes from the notification topic
type Envelope struct {
	ID            string         `json:"id"`
	Template      string         `json:"template"`
	RecipientRole string         `json:"recipient_role"`
	Subject       string         `json:"subject"`
	Variables     map[string]any `json:"variables,omitempty"`
	Source        string         `json:"source"`
	RequestID     string         `json:"request_id,omitempty"`
	TraceID       string         `json:"trace_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// MessageWriter is the subset of *kafka.Writer the notifier needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig holds the producer settings
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	ClientID     string
	WriteTimeout time.Duration
}

// KafkaNotifier publishes templated notifications to a Kafka topic
type KafkaNotifier struct {
	writer  MessageWriter
	source  string
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewKafkaNotifier creates a notifier backed by a synchronous kafka.Writer
func NewKafkaNotifier(cfg KafkaConfig, log *zap.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaNotifierWithWriter(writer, cfg.ClientID, cfg.WriteTimeout, log)
}

// NewKafkaNotifierWithWriter creates a notifier over an existing writer
func NewKafkaNotifierWithWriter(writer MessageWriter, source string, timeout time.Duration, log *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		writer:  writer,
		source:  source,
		timeout: timeout,
		logger:  log.Named("notifier"),
		now:     time.Now,
	}
}

// SendTemplated implements shared.Notifier. The message key is the recipient
// role so one mailer partition sees a role's messages in order.
func (n *KafkaNotifier) SendTemplated(ctx context.Context, notification shared.Notification) error {
	if notification.Template == "" || notification.RecipientRole == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "notification template and recipient role are required")
	}

	env := Envelope{
		ID:            uuid.NewString(),
		Template:      notification.Template,
		RecipientRole: notification.RecipientRole,
		Subject:       notification.Subject,
		Variables:     notification.Variables,
		Source:        n.source,
		RequestID:     logger.GetRequestID(ctx),
		TraceID:       logger.GetTraceID(ctx),
		CreatedAt:     n.now().UTC(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	headers := []kafka.Header{
		{Key: "template", Value: []byte(env.Template)},
		{Key: "notification_id", Value: []byte(env.ID)},
	}
	carrier := headerCarrier{headers: &headers}
	propagation.TraceContext{}.Inject(ctx, carrier)

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	if err := n.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(env.RecipientRole),
		Value:   data,
		Headers: headers,
	}); err != nil {
		logger.WithLogger(ctx, n.logger).Error("failed to publish notification",
			zap.String("template", env.Template),
			zap.String("notification_id", env.ID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	logger.WithLogger(ctx, n.logger).Debug("notification published",
		zap.String("template", env.Template),
		zap.String("recipient_role", env.RecipientRole),
		zap.String("notification_id", env.ID),
	)
	return nil
}

// Close flushes and closes the writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// headerCarrier adapts kafka headers to the otel TextMapCarrier
type headerCarrier struct {
	headers *[]kafka.Header
}

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(*c.headers))
	for i, h := range *c.headers {
		keys[i] = h.Key
	}
	return keys
}

var _ shared.Notifier = (*KafkaNotifier)(nil)
