package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, entry shared.ErrorEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type mockWriter struct {
	mock.Mock
	written []kafka.Message
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.written = append(m.written, msgs...)
	return m.Called(ctx).Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestErrorLogSink(t *testing.T) {
	entry := shared.ErrorEntry{
		Title:         "Customer disabled",
		Message:       "customer Acme is disabled",
		ReferenceType: "Sales Order",
		ReferenceName: "SO-1",
		Fields:        map[string]string{"customer": "Acme"},
	}

	t.Run("logs and persists", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		store := new(mockStore)
		store.On("Create", mock.Anything, entry).Return(nil).Once()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		NewErrorLogSink(store, zap.New(core)).LogError(ctx, entry)

		store.AssertExpectations(t)
		logs := recorded.FilterLevelExact(zapcore.ErrorLevel).All()
		require.Len(t, logs, 1)
		assert.Equal(t, "customer Acme is disabled", logs[0].Message)
		assert.Equal(t, "SO-1", logs[0].ContextMap()["reference_name"])
		assert.Equal(t, "Acme", logs[0].ContextMap()["customer"])
	})

	t.Run("store failure is swallowed", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		store := new(mockStore)
		store.On("Create", mock.Anything, entry).Return(errors.New("db down"))

		assert.NotPanics(t, func() {
			NewErrorLogSink(store, zap.New(core)).LogError(context.Background(), entry)
		})
		assert.Len(t, recorded.FilterMessage("failed to persist error log entry").All(), 1)
	})

	t.Run("nil store only logs", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		NewErrorLogSink(nil, zap.New(core)).LogError(context.Background(), entry)
		assert.Equal(t, 1, recorded.Len())
	})
}

func TestKafkaNotifier_SendTemplated(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))
	ctx = context.WithValue(ctx, logger.RequestIDKey, "tick-1")

	writer := new(mockWriter)
	writer.On("WriteMessages", mock.Anything).Return(nil).Once()
	n := NewKafkaNotifierWithWriter(writer, "labtrack", time.Second, zap.NewNop())
	n.now = func() time.Time { return time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC) }

	err := n.SendTemplated(ctx, shared.Notification{
		Template:      "shared_barcode_alert",
		RecipientRole: "Lab Manager",
		Subject:       "Shared barcodes on DN-1",
		Variables:     map[string]any{"delivery_note": "DN-1"},
	})
	require.NoError(t, err)
	writer.AssertExpectations(t)

	require.Len(t, writer.written, 1)
	msg := writer.written[0]
	assert.Equal(t, "Lab Manager", string(msg.Key))
	assert.Equal(t, "shared_barcode_alert", header(msg, "template"))
	assert.Contains(t, header(msg, "traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, env.ID, header(msg, "notification_id"))
	assert.Equal(t, "labtrack", env.Source)
	assert.Equal(t, "tick-1", env.RequestID)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", env.TraceID)
	assert.Equal(t, "DN-1", env.Variables["delivery_note"])
	assert.True(t, env.CreatedAt.Equal(n.now()))
}

func TestKafkaNotifier_Errors(t *testing.T) {
	t.Run("missing template is invalid input", func(t *testing.T) {
		n := NewKafkaNotifierWithWriter(new(mockWriter), "labtrack", 0, zap.NewNop())
		err := n.SendTemplated(context.Background(), shared.Notification{RecipientRole: "Lab Manager"})
		assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(err))
	})

	t.Run("write failure is returned", func(t *testing.T) {
		writer := new(mockWriter)
		writer.On("WriteMessages", mock.Anything).Return(kafka.LeaderNotAvailable)
		n := NewKafkaNotifierWithWriter(writer, "labtrack", 0, zap.NewNop())

		err := n.SendTemplated(context.Background(), shared.Notification{Template: "t", RecipientRole: "r"})
		assert.ErrorIs(t, err, kafka.LeaderNotAvailable)
	})

	t.Run("close delegates to the writer", func(t *testing.T) {
		writer := new(mockWriter)
		writer.On("Close").Return(nil).Once()
		require.NoError(t, NewKafkaNotifierWithWriter(writer, "", 0, zap.NewNop()).Close())
		writer.AssertExpectations(t)
	})
}

func TestLogNotifier(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	err := NewLogNotifier(zap.New(core)).SendTemplated(context.Background(), shared.Notification{
		Template: "shared_barcode_alert", RecipientRole: "Lab Manager",
	})
	require.NoError(t, err)
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "shared_barcode_alert", recorded.All()[0].ContextMap()["template"])
}
