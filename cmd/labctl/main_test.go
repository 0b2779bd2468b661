package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/erp/labtrack/internal/application/fulfillment"
	"github.com/erp/labtrack/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LABTRACK_JWT_SECRET", "labctl-test-secret-0123456789abcdef")
	t.Setenv("LABTRACK_APP_ENV", "test")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenIssue(t *testing.T) {
	out, err := run(t, "token", "issue", "--subject", "lims", "--scope", auth.ScopeLabelsRead, "--scope", auth.ScopeLabelsWrite)
	require.NoError(t, err)

	var issued auth.IssuedToken
	require.NoError(t, json.Unmarshal([]byte(out), &issued))
	assert.Equal(t, "lims", issued.Subject)
	assert.ElementsMatch(t, []string{auth.ScopeLabelsRead, auth.ScopeLabelsWrite}, issued.Scopes)
	assert.NotEmpty(t, issued.Token)
}

func TestTokenIssue_UnknownScope(t *testing.T) {
	_, err := run(t, "token", "issue", "--subject", "lims", "--scope", "labels:shred")
	assert.ErrorIs(t, err, auth.ErrUnknownScope)
}

func TestTokenRevoke_NeedsRedis(t *testing.T) {
	t.Setenv("LABTRACK_REDIS_ENABLED", "false")
	out, err := run(t, "token", "issue", "--subject", "lims")
	require.NoError(t, err)
	var issued auth.IssuedToken
	require.NoError(t, json.Unmarshal([]byte(out), &issued))

	_, err = run(t, "token", "revoke", issued.Token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestSweepCompletion_SQLite(t *testing.T) {
	t.Setenv("LABTRACK_REDIS_ENABLED", "false")
	t.Setenv("LABTRACK_KAFKA_ENABLED", "false")

	out, err := run(t, "--sqlite", ":memory:", "sweep", "completion", "--limit", "10")
	require.NoError(t, err)

	var report fulfillment.CompletionSweepReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, fulfillment.SweepCompleted, report.Status)
	assert.Equal(t, "Sequencing", report.ProductType)
}

func TestDuplicatesDelete_UnknownLabel(t *testing.T) {
	t.Setenv("LABTRACK_REDIS_ENABLED", "false")
	t.Setenv("LABTRACK_KAFKA_ENABLED", "false")

	_, err := run(t, "--sqlite", ":memory:", "duplicates", "delete", "LBL-404")
	assert.Error(t, err)
}

func TestSweepError(t *testing.T) {
	assert.NoError(t, sweepError(fulfillment.SweepCompleted, ""))
	assert.ErrorContains(t, sweepError(fulfillment.SweepSkippedLocked, ""), "already running")
	assert.ErrorContains(t, sweepError(fulfillment.SweepFailed, "timeout"), "timeout")
}
