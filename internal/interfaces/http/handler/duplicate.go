package handler

import (
	"context"
	"net/http"

	applabeling "github.com/erp/labtrack/internal/application/labeling"
	"github.com/erp/labtrack/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DuplicateTools resolves barcodes carried by more than one label record
type DuplicateTools interface {
	KeepOneLockOther(ctx context.Context, barcodes []string) applabeling.DuplicateReport
	LockBoth(ctx context.Context, barcodes []string) applabeling.DuplicateReport
	Inspect(ctx context.Context, barcodes []string, limit int) ([]applabeling.DuplicateInspection, error)
	DeleteDuplicate(ctx context.Context, labelName string) error
}

// DuplicateHandler exposes the duplicate label tools to lab operators
type DuplicateHandler struct {
	BaseHandler
	tools DuplicateTools
}

// NewDuplicateHandler creates a new DuplicateHandler
func NewDuplicateHandler(tools DuplicateTools) *DuplicateHandler {
	return &DuplicateHandler{tools: tools}
}

// Inspect godoc
// @Summary      Inspect duplicate barcodes
// @Description  Lists label records sharing a barcode with their usage
// @Tags         duplicates
// @Produce      json
// @Param        barcode query []string false "Barcodes to inspect" collectionFormat(multi)
// @Param        limit query int false "Maximum barcodes when none are given" minimum(1) maximum(500)
// @Success      200 {object} dto.Response{data=[]applabeling.DuplicateInspection}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /labels/duplicates [get]
func (h *DuplicateHandler) Inspect(c *gin.Context) {
	var query dto.DuplicateInspectQuery
	if !h.BindQuery(c, &query) {
		return
	}
	report, err := h.tools.Inspect(c.Request.Context(), query.Barcodes, query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// KeepOneLockOther godoc
// @Summary      Keep one duplicate, lock the rest
// @Description  Keeps the used record of each barcode and locks every other record
// @Tags         duplicates
// @Accept       json
// @Produce      json
// @Param        request body dto.DuplicateBarcodesRequest true "Barcodes to resolve"
// @Success      200 {object} dto.Response{data=applabeling.DuplicateReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /labels/duplicates/keep-one-lock-other [post]
func (h *DuplicateHandler) KeepOneLockOther(c *gin.Context) {
	var req dto.DuplicateBarcodesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.report(c, h.tools.KeepOneLockOther(c.Request.Context(), req.Barcodes))
}

// LockBoth godoc
// @Summary      Lock all duplicates
// @Description  Locks every record of each barcode
// @Tags         duplicates
// @Accept       json
// @Produce      json
// @Param        request body dto.DuplicateBarcodesRequest true "Barcodes to lock"
// @Success      200 {object} dto.Response{data=applabeling.DuplicateReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /labels/duplicates/lock-both [post]
func (h *DuplicateHandler) LockBoth(c *gin.Context) {
	var req dto.DuplicateBarcodesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.report(c, h.tools.LockBoth(c.Request.Context(), req.Barcodes))
}

func (h *DuplicateHandler) report(c *gin.Context, report applabeling.DuplicateReport) {
	c.JSON(http.StatusOK, dto.Response{Success: report.Failed == 0, Data: report})
}

// Delete godoc
// @Summary      Delete a duplicate label
// @Description  Deletes one unused label record whose barcode is carried by another record
// @Tags         duplicates
// @Produce      json
// @Param        name path string true "Label name"
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /labels/duplicates/{name} [delete]
func (h *DuplicateHandler) Delete(c *gin.Context) {
	name := c.Param("name")
	if err := h.tools.DeleteDuplicate(c.Request.Context(), name); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"deleted": name})
}
