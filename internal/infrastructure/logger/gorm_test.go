package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func query(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestNewGormLogger_Options(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
		WithFullSQL(true),
	)

	assert.Equal(t, gormlogger.Info, gl.logLevel)
	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)
	assert.True(t, gl.fullSQL)

	warn, ok := gl.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, warn.logLevel)
	assert.Equal(t, gormlogger.Info, gl.logLevel)
}

func TestGormLogger_ParamsFilter(t *testing.T) {
	redacted := NewGormLogger(zap.NewNop(), gormlogger.Info)
	sql, params := redacted.ParamsFilter(context.Background(), "SELECT * FROM samples WHERE barcode = ?", "BC-1")
	assert.Equal(t, "SELECT * FROM samples WHERE barcode = ?", sql)
	assert.Nil(t, params)

	full := NewGormLogger(zap.NewNop(), gormlogger.Info, WithFullSQL(true))
	_, params = full.ParamsFilter(context.Background(), "SELECT 1 WHERE ?", "BC-1")
	assert.Equal(t, []any{"BC-1"}, params)
}

func TestGormLogger_Messages(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn)
	ctx := context.Background()

	gl.Info(ctx, "suppressed %s", "info")
	gl.Warn(ctx, "warning %d", 42)
	gl.Error(ctx, "failure")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "warning 42", logs[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs[1].Level)
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		opts    []GormLoggerOption
		elapsed time.Duration
		err     error
		wantMsg string
	}{
		{"error", gormlogger.Error, nil, 0, errors.New("boom"), "SQL Error"},
		{"record not found ignored", gormlogger.Error, nil, 0, gormlogger.ErrRecordNotFound, ""},
		{"record not found logged", gormlogger.Error, []GormLoggerOption{WithIgnoreRecordNotFoundError(false)}, 0, gormlogger.ErrRecordNotFound, "SQL Error"},
		{"slow query", gormlogger.Warn, []GormLoggerOption{WithSlowThreshold(time.Millisecond)}, time.Second, nil, "SLOW SQL >= 1ms"},
		{"normal query", gormlogger.Info, nil, 0, nil, "SQL Query"},
		{"silent", gormlogger.Silent, nil, time.Second, errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.level, tt.opts...)

			gl.Trace(context.Background(), time.Now().Add(-tt.elapsed), query("SELECT * FROM sequencing_labels", 3), tt.err)

			if tt.wantMsg == "" {
				assert.Empty(t, recorded.All())
				return
			}
			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantMsg, logs[0].Message)
			assert.Equal(t, "SELECT * FROM sequencing_labels", logs[0].ContextMap()["sql"])
		})
	}
}

func TestGormLogger_TraceCarriesCorrelation(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info)

	ctx := context.WithValue(spanContext(t), RequestIDKey, "req-7")
	ctx = context.WithValue(ctx, SubjectKey, "lims")
	gl.Trace(ctx, time.Now(), query("SELECT 1", 1), nil)

	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "lims", fields["subject"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
}

func TestMapGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"error":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"info":    gormlogger.Info,
		"debug":   gormlogger.Info,
		"unknown": gormlogger.Warn,
		"":        gormlogger.Warn,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapGormLogLevel(in), in)
	}
}
