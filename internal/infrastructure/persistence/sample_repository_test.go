package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSampleRepository_FindLabelStatesForOrder(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormSampleRepository(db)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	seedLabel(t, db, "SL-0001", "BC-1", "3000", labeling.LabelStatusReceived)
	seedSample(t, db, "S-1", "W-1", "SL-0001", created)
	seedSample(t, db, "S-2", "W-2", "", created)
	seedSample(t, db, "S-3", "W-3", "SL-GONE", created)
	seedOrder(t, db, "SO-1", withSamples("S-1", "S-2", "S-3"))

	states, err := repo.FindLabelStatesForOrder(ctx, "SO-1")
	require.NoError(t, err)
	require.Len(t, states, 3)

	assert.Equal(t, "S-1", states[0].Sample)
	assert.Equal(t, "BC-1", states[0].Barcode)
	require.NotNil(t, states[0].LabelStatus)
	assert.True(t, states[0].IsReady())

	assert.Equal(t, "S-2", states[1].Sample)
	assert.Empty(t, states[1].LabelName)
	assert.Nil(t, states[1].LabelStatus)

	assert.Equal(t, "SL-GONE", states[2].LabelName)
	assert.Nil(t, states[2].LabelStatus)

	none, err := repo.FindLabelStatesForOrder(ctx, "SO-404")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormSampleRepository_FindLabelStatesForSamples(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormSampleRepository(db)

	seedLabel(t, db, "SL-0001", "BC-1", "3000", labeling.LabelStatusProcessed)
	seedSample(t, db, "S-1", "W-1", "SL-0001", time.Now())
	seedSample(t, db, "S-2", "W-2", "", time.Now())

	states, err := repo.FindLabelStatesForSamples(ctx, []string{"S-2", "S-1", "S-404"})
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "S-1", states[0].Sample)
	assert.Equal(t, "S-2", states[1].Sample)

	empty, err := repo.FindLabelStatesForSamples(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGormSampleRepository_FindOpenOrderUsages(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormSampleRepository(db)

	seedLabel(t, db, "SL-0001", "BC-1", "3000", labeling.LabelStatusSubmitted)
	seedSample(t, db, "S-1", "W-1", "SL-0001", time.Now())
	seedSample(t, db, "S-2", "W-2", "SL-0001", time.Now())
	seedSample(t, db, "S-3", "W-3", "SL-0001", time.Now())
	seedOrder(t, db, "SO-1", withSamples("S-1"))
	seedOrder(t, db, "SO-2", withSamples("S-2"), withDocStatus(shared.DocStatusDraft))
	seedOrder(t, db, "SO-3", withSamples("S-3"), withDocStatus(shared.DocStatusCancelled))

	usages, err := repo.FindOpenOrderUsages(ctx, "SL-0001", "SO-1")
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, "SO-2", usages[0].SalesOrder)
	assert.Equal(t, shared.DocStatusDraft, usages[0].DocStatus)
	assert.Equal(t, "S-2", usages[0].Sample)

	all, err := repo.FindOpenOrderUsages(ctx, "SL-0001", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGormSampleRepository_FindUsagesByBarcode(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormSampleRepository(db)
	older := time.Date(2025, 11, 2, 8, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 20, 8, 0, 0, 0, time.UTC)

	seedLabel(t, db, "SL-0001", "BC-1", "3000", labeling.LabelStatusReceived)
	seedLabel(t, db, "SL-0002", "BC-1", "3100", labeling.LabelStatusReceived)
	seedSample(t, db, "S-new", "W-2", "SL-0002", newer)
	seedSample(t, db, "S-old", "W-1", "SL-0001", older)
	seedOrder(t, db, "SO-1", withSamples("S-old"))
	seedOrder(t, db, "SO-2", withSamples("S-new"))

	usages, err := repo.FindUsagesByBarcode(ctx, "BC-1")
	require.NoError(t, err)
	require.Len(t, usages, 2)
	assert.Equal(t, "S-old", usages[0].Sample)
	assert.Equal(t, []string{"SO-1"}, usages[0].Orders)
	assert.Equal(t, "S-new", usages[1].Sample)
	assert.Equal(t, "SL-0002", usages[1].LabelName)
	assert.Equal(t, []string{"SO-2"}, usages[1].Orders)

	none, err := repo.FindUsagesByBarcode(ctx, "BC-404")
	require.NoError(t, err)
	assert.Empty(t, none)
}
