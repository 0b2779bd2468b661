package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormErrorLogRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormErrorLogRepository(db)

	require.NoError(t, repo.Create(ctx, shared.ErrorEntry{
		Title:         "Shared barcode",
		Message:       "BC-1 used by S-1 and S-2",
		ReferenceType: "Delivery Note",
		ReferenceName: "DN-1",
		Fields:        map[string]string{"barcodes": "BC-1"},
	}))
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, shared.ErrorEntry{
			Title:         "Customer disabled",
			ReferenceType: "Sales Order",
			ReferenceName: fmt.Sprintf("SO-%d", i),
		}))
	}

	t.Run("filters by reference", func(t *testing.T) {
		records, err := repo.List(ctx, ErrorLogFilter{ReferenceType: "Delivery Note", ReferenceName: "DN-1"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.NotEmpty(t, records[0].ID)
		assert.Equal(t, "Shared barcode", records[0].Entry.Title)
		assert.Equal(t, "BC-1", records[0].Entry.Fields["barcodes"])
	})

	t.Run("applies the limit", func(t *testing.T) {
		records, err := repo.List(ctx, ErrorLogFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("default limit returns everything here", func(t *testing.T) {
		records, err := repo.List(ctx, ErrorLogFilter{})
		require.NoError(t, err)
		assert.Len(t, records, 4)
	})

	t.Run("orders by a whitelisted field", func(t *testing.T) {
		records, err := repo.List(ctx, ErrorLogFilter{OrderBy: "reference_name", OrderDir: "asc"})
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, "DN-1", records[0].Entry.ReferenceName)
		assert.Equal(t, "SO-2", records[3].Entry.ReferenceName)
	})
}
