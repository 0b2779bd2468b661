package handler

import (
	"net/http"
	"testing"

	applabeling "github.com/erp/labtrack/internal/application/labeling"
	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDuplicateHandler_Inspect(t *testing.T) {
	tools := new(MockDuplicateTools)
	h := NewDuplicateHandler(tools)
	tools.On("Inspect", mock.Anything, []string{"AB12", "CD34"}, 10).Return([]applabeling.DuplicateInspection{{
		Barcode: "AB12",
		Class:   labeling.DuplicateLiveAndStray,
		Live:    "LBL-1",
		Stray:   "LBL-2",
		Records: []applabeling.DuplicateRecord{{Name: "LBL-1"}, {Name: "LBL-2"}},
	}}, nil)

	c, w := newTestContext(http.MethodGet, "/labels/duplicates?barcode=AB12&barcode=CD34&limit=10", nil)
	h.Inspect(c)

	assert.Equal(t, http.StatusOK, w.Code)
	items := decodeResponse(t, w).Data.([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "live_and_stray", items[0].(map[string]any)["class"])
	tools.AssertExpectations(t)
}

func TestDuplicateHandler_Resolve(t *testing.T) {
	t.Run("keep one lock other", func(t *testing.T) {
		tools := new(MockDuplicateTools)
		h := NewDuplicateHandler(tools)
		tools.On("KeepOneLockOther", mock.Anything, []string{"AB12"}).Return(applabeling.DuplicateReport{
			Policy:   labeling.PolicyKeepOneLockOther,
			Resolved: 1,
			Results:  []applabeling.DuplicateResolution{{Barcode: "AB12", Outcome: applabeling.DuplicateResolved, Locked: []string{"LBL-2"}}},
		})

		c, w := newTestContext(http.MethodPost, "/labels/duplicates/keep-one-lock-other", dto.DuplicateBarcodesRequest{Barcodes: []string{"AB12"}})
		h.KeepOneLockOther(c)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, float64(1), resp.Data.(map[string]any)["resolved"])
	})

	t.Run("lock both with a failure", func(t *testing.T) {
		tools := new(MockDuplicateTools)
		h := NewDuplicateHandler(tools)
		tools.On("LockBoth", mock.Anything, []string{"AB12", "CD34"}).Return(applabeling.DuplicateReport{
			Policy:   labeling.PolicyLockBoth,
			Resolved: 1,
			Failed:   1,
		})

		c, w := newTestContext(http.MethodPost, "/labels/duplicates/lock-both", dto.DuplicateBarcodesRequest{Barcodes: []string{"AB12", "CD34"}})
		h.LockBoth(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, decodeResponse(t, w).Success)
	})

	t.Run("no barcodes", func(t *testing.T) {
		tools := new(MockDuplicateTools)
		h := NewDuplicateHandler(tools)
		c, w := newTestContext(http.MethodPost, "/labels/duplicates/lock-both", `{"barcodes": []}`)
		h.LockBoth(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		tools.AssertNotCalled(t, "LockBoth", mock.Anything, mock.Anything)
	})
}

func TestDuplicateHandler_Delete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		tools := new(MockDuplicateTools)
		h := NewDuplicateHandler(tools)
		tools.On("DeleteDuplicate", mock.Anything, "LBL-2").Return(nil)

		c, w := newTestContext(http.MethodDelete, "/labels/duplicates/LBL-2", nil)
		c.Params = gin.Params{{Key: "name", Value: "LBL-2"}}
		h.Delete(c)

		assert.Equal(t, http.StatusOK, w.Code)
		tools.AssertExpectations(t)
	})

	t.Run("barcode is not duplicated", func(t *testing.T) {
		tools := new(MockDuplicateTools)
		h := NewDuplicateHandler(tools)
		tools.On("DeleteDuplicate", mock.Anything, "LBL-3").
			Return(shared.NewDomainError(shared.CodePreconditionFailed, "barcode AB12 has a single record"))

		c, w := newTestContext(http.MethodDelete, "/labels/duplicates/LBL-3", nil)
		c.Params = gin.Params{{Key: "name", Value: "LBL-3"}}
		h.Delete(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodePreconditionFailed, decodeResponse(t, w).Error.Code)
	})
}
