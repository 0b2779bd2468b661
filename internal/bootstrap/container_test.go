package bootstrap_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/labtrack/internal/application/fulfillment"
	"github.com/erp/labtrack/internal/bootstrap"
	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/infrastructure/auth"
	"github.com/erp/labtrack/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "labtrack", Env: "test"},
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"},
		JWT: config.JWTConfig{
			Secret:          "bootstrap-test-secret-0123456789",
			Issuer:          "labtrack-test",
			TokenExpiration: time.Hour,
		},
		Log: config.LogConfig{Level: "error"},
		Fulfillment: config.FulfillmentConfig{
			ProductType:      "Sequencing",
			Cooldown:         time.Hour,
			AllowedItemCodes: []string{"KIT-WGS"},
			EscalationRole:   "Lab Manager",
			BatchLimit:       100,
			LockTTL:          time.Minute,
		},
		NamingSeries: config.NamingSeriesConfig{Default: "DN-.YY.-.#####"},
	}
}

func TestNew_SQLiteWithoutOptionalBackends(t *testing.T) {
	ctx := context.Background()
	c, err := bootstrap.New(ctx, sqliteConfig(), zap.NewNop())
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	require.NoError(t, err)

	assert.NotNil(t, c.StatusChanges)
	assert.NotNil(t, c.Duplicates)
	assert.NotNil(t, c.OrderCompletion)
	assert.NotNil(t, c.SubmissionGate)
	assert.NotNil(t, c.ErrorLogs)
	assert.IsType(t, &auth.InMemoryRevocationList{}, c.Revocations)
	assert.False(t, c.Tracer.IsEnabled())
	require.NoError(t, c.DB.Ping())

	completion := c.OrderCompletion.Sweep(ctx, fulfillment.CompletionSweepRequest{})
	assert.Equal(t, fulfillment.SweepCompleted, completion.Status)
	assert.Zero(t, completion.Candidates)

	submission := c.SubmissionGate.Sweep(ctx)
	assert.Equal(t, fulfillment.SweepCompleted, submission.Status)
	assert.Zero(t, submission.Examined)

	result := c.StatusChanges.LockLabels(ctx, []labeling.LabelKey{{Barcode: "AB12", ItemCode: "KIT-WGS"}}, nil)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Failed)
}

func TestContainer_CloseIsIdempotent(t *testing.T) {
	c, err := bootstrap.New(context.Background(), sqliteConfig(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Close(context.Background()))
	assert.NoError(t, c.Close(context.Background()))
}
