package labeling

import (
	"errors"
	"testing"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dupLabel(name string, status LabelStatus, owned bool) SequencingLabel {
	l := SequencingLabel{
		BaseEntity: shared.NewBaseEntity(name),
		Barcode:    "27353",
		ItemCode:   "3000",
		Status:     status,
	}
	if owned {
		l.Customer = "CUST-1"
		l.SalesOrder = "SO-1"
		l.Contact = "CONT-1"
	}
	return l
}

func TestPlanKeepOneLockOther(t *testing.T) {
	t.Run("locks the unused record", func(t *testing.T) {
		records := []SequencingLabel{dupLabel("SL-1", LabelStatusLocked, false), dupLabel("SL-2", LabelStatusUnused, false)}
		target, err := PlanKeepOneLockOther("27353", records)
		require.NoError(t, err)
		assert.Equal(t, "SL-2", target.Name)
	})

	t.Run("order of records does not matter", func(t *testing.T) {
		records := []SequencingLabel{dupLabel("SL-2", LabelStatusUnused, false), dupLabel("SL-1", LabelStatusLocked, false)}
		target, err := PlanKeepOneLockOther("27353", records)
		require.NoError(t, err)
		assert.Equal(t, "SL-2", target.Name)
	})

	t.Run("rejects wrong status pairing", func(t *testing.T) {
		records := []SequencingLabel{dupLabel("SL-1", LabelStatusUnused, false), dupLabel("SL-2", LabelStatusUnused, false)}
		_, err := PlanKeepOneLockOther("27353", records)
		assert.True(t, errors.Is(err, shared.ErrPreconditionFailed))
	})

	t.Run("rejects wrong count", func(t *testing.T) {
		_, err := PlanKeepOneLockOther("27353", []SequencingLabel{dupLabel("SL-1", LabelStatusLocked, false)})
		assert.Error(t, err)
		three := []SequencingLabel{
			dupLabel("SL-1", LabelStatusLocked, false),
			dupLabel("SL-2", LabelStatusUnused, false),
			dupLabel("SL-3", LabelStatusUnused, false),
		}
		_, err = PlanKeepOneLockOther("27353", three)
		assert.Error(t, err)
	})
}

func TestPlanLockBoth(t *testing.T) {
	records := []SequencingLabel{dupLabel("SL-1", LabelStatusProcessed, true), dupLabel("SL-2", LabelStatusUnused, false)}
	targets, err := PlanLockBoth("27353", records)
	require.NoError(t, err)
	assert.Len(t, targets, 2)

	_, err = PlanLockBoth("27353", records[:1])
	assert.Error(t, err)
}

func TestAssessDuplicate(t *testing.T) {
	t.Run("owned and bare record", func(t *testing.T) {
		a := AssessDuplicate("27353", []SequencingLabel{dupLabel("SL-1", LabelStatusUnused, false), dupLabel("SL-2", LabelStatusSubmitted, true)})
		assert.Equal(t, DuplicateLiveAndStray, a.Class)
		require.NotNil(t, a.Live)
		require.NotNil(t, a.Stray)
		assert.Equal(t, "SL-2", a.Live.Name)
		assert.Equal(t, "SL-1", a.Stray.Name)
	})

	t.Run("both owned is sold twice", func(t *testing.T) {
		a := AssessDuplicate("27353", []SequencingLabel{dupLabel("SL-1", LabelStatusSubmitted, true), dupLabel("SL-2", LabelStatusSubmitted, true)})
		assert.Equal(t, DuplicateSoldTwice, a.Class)
		assert.Nil(t, a.Live)
		assert.Nil(t, a.Stray)
	})

	t.Run("neither owned is sold twice", func(t *testing.T) {
		a := AssessDuplicate("27353", []SequencingLabel{dupLabel("SL-1", LabelStatusUnused, false), dupLabel("SL-2", LabelStatusUnused, false)})
		assert.Equal(t, DuplicateSoldTwice, a.Class)
	})

	t.Run("partially owned is sold twice", func(t *testing.T) {
		partial := dupLabel("SL-1", LabelStatusSubmitted, false)
		partial.Customer = "CUST-9"
		a := AssessDuplicate("27353", []SequencingLabel{partial, dupLabel("SL-2", LabelStatusUnused, false)})
		assert.Equal(t, DuplicateSoldTwice, a.Class)
	})

	t.Run("single record", func(t *testing.T) {
		a := AssessDuplicate("27353", []SequencingLabel{dupLabel("SL-1", LabelStatusUnused, false)})
		assert.Equal(t, DuplicateUnexpectedCount, a.Class)
	})
}

func TestConfirmDeletable(t *testing.T) {
	target := dupLabel("SL-1", LabelStatusLocked, false)

	t.Run("sibling present", func(t *testing.T) {
		err := ConfirmDeletable(&target, []SequencingLabel{target, dupLabel("SL-2", LabelStatusUnused, false)})
		assert.NoError(t, err)
	})

	t.Run("last remaining record", func(t *testing.T) {
		err := ConfirmDeletable(&target, []SequencingLabel{target})
		assert.True(t, errors.Is(err, shared.ErrPreconditionFailed))
	})

	t.Run("sibling with different barcode does not count", func(t *testing.T) {
		other := dupLabel("SL-2", LabelStatusUnused, false)
		other.Barcode = "27354"
		err := ConfirmDeletable(&target, []SequencingLabel{target, other})
		assert.Error(t, err)
	})
}
