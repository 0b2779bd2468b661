package handler

import (
	"context"
	"net/http"

	applabeling "github.com/erp/labtrack/internal/application/labeling"
	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// LabelLookup resolves labels by natural key
type LabelLookup interface {
	FindLabel(ctx context.Context, key labeling.LabelKey) (applabeling.LookupResult, error)
	BatchFindLabels(ctx context.Context, keys []labeling.LabelKey) (map[labeling.LabelKey]applabeling.LookupResult, error)
}

// LabelStatusChanger runs label status batches
type LabelStatusChanger interface {
	ProcessLabelStatusChange(ctx context.Context, req applabeling.StatusChangeRequest) applabeling.StatusChangeResult
	LockLabels(ctx context.Context, keys []labeling.LabelKey, allowedFrom []labeling.LabelStatus) applabeling.StatusChangeResult
	MarkLabelsUnused(ctx context.Context, keys []labeling.LabelKey, contextOrder string) applabeling.StatusChangeResult
	ReceiveLabels(ctx context.Context, keys []labeling.LabelKey) applabeling.StatusChangeResult
	ProcessLabels(ctx context.Context, keys []labeling.LabelKey) applabeling.StatusChangeResult
}

// LabelHandler serves the label status API used by lab instruments and the webshop
type LabelHandler struct {
	BaseHandler
	lookup  LabelLookup
	changer LabelStatusChanger
}

// NewLabelHandler creates a new LabelHandler
func NewLabelHandler(lookup LabelLookup, changer LabelStatusChanger) *LabelHandler {
	return &LabelHandler{lookup: lookup, changer: changer}
}

// SetStatus godoc
// @Summary      Change label status
// @Description  Moves a batch of labels to the target status. Per-label failures are reported in the body
// @Tags         labels
// @Accept       json
// @Produce      json
// @Param        request body dto.LabelStatusRequest true "Status change request"
// @Success      200 {object} dto.Response{data=applabeling.StatusChangeResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /labels/status [post]
func (h *LabelHandler) SetStatus(c *gin.Context) {
	var req dto.LabelStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	target, err := labeling.ParseLabelStatus(req.TargetStatus)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	allowedFrom, err := parseStatuses(req.AllowedFrom)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result := h.changer.ProcessLabelStatusChange(c.Request.Context(), applabeling.StatusChangeRequest{
		Keys:               dto.ToLabelKeys(req.Labels),
		Target:             target,
		AllowedFrom:        allowedFrom,
		CheckNotUsed:       req.CheckNotUsed,
		StopOnFirstFailure: req.StopOnFirstFailure,
		ContextOrder:       req.ContextOrder,
	})
	h.batchResult(c, result)
}

// Lock godoc
// @Summary      Lock labels
// @Description  Locks a batch of labels, optionally only from the given statuses
// @Tags         labels
// @Accept       json
// @Produce      json
// @Param        request body dto.LabelBatchRequest true "Labels to lock"
// @Success      200 {object} dto.Response{data=applabeling.StatusChangeResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /labels/lock [post]
func (h *LabelHandler) Lock(c *gin.Context) {
	var req dto.LabelBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	allowedFrom, err := parseStatuses(req.AllowedFrom)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.batchResult(c, h.changer.LockLabels(c.Request.Context(), dto.ToLabelKeys(req.Labels), allowedFrom))
}

// MarkUnused godoc
// @Summary      Mark labels unused
// @Description  Returns labels to unused and unlinks them from their order
// @Tags         labels
// @Accept       json
// @Produce      json
// @Param        request body dto.LabelBatchRequest true "Labels to release"
// @Success      200 {object} dto.Response{data=applabeling.StatusChangeResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /labels/mark-unused [post]
func (h *LabelHandler) MarkUnused(c *gin.Context) {
	var req dto.LabelBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.batchResult(c, h.changer.MarkLabelsUnused(c.Request.Context(), dto.ToLabelKeys(req.Labels), req.ContextOrder))
}

// Receive godoc
// @Summary      Receive labels
// @Description  Marks submitted labels as received in the lab
// @Tags         labels
// @Accept       json
// @Produce      json
// @Param        request body dto.LabelBatchRequest true "Labels received"
// @Success      200 {object} dto.Response{data=applabeling.StatusChangeResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /labels/receive [post]
func (h *LabelHandler) Receive(c *gin.Context) {
	var req dto.LabelBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.batchResult(c, h.changer.ReceiveLabels(c.Request.Context(), dto.ToLabelKeys(req.Labels)))
}

// Process godoc
// @Summary      Process labels
// @Description  Marks received labels as processed
// @Tags         labels
// @Accept       json
// @Produce      json
// @Param        request body dto.LabelBatchRequest true "Labels processed"
// @Success      200 {object} dto.Response{data=applabeling.StatusChangeResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /labels/process [post]
func (h *LabelHandler) Process(c *gin.Context) {
	var req dto.LabelBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.batchResult(c, h.changer.ProcessLabels(c.Request.Context(), dto.ToLabelKeys(req.Labels)))
}

// batchResult answers 200 whenever the batch ran; per-item failures are in the body
func (h *LabelHandler) batchResult(c *gin.Context, result applabeling.StatusChangeResult) {
	c.JSON(http.StatusOK, dto.Response{Success: result.Success, Data: result})
}

// Lookup godoc
// @Summary      Look up a label
// @Description  Resolves one label by barcode and item code
// @Tags         labels
// @Produce      json
// @Param        barcode query string true "Label barcode"
// @Param        item_code query string true "Label item code"
// @Success      200 {object} dto.Response{data=dto.LookupResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /labels/lookup [get]
func (h *LabelHandler) Lookup(c *gin.Context) {
	var query dto.LabelLookupQuery
	if !h.BindQuery(c, &query) {
		return
	}
	res, err := h.lookup.FindLabel(c.Request.Context(), labeling.LabelKey{Barcode: query.Barcode, ItemCode: query.ItemCode})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toLookupResponse(res))
}

// BatchLookup godoc
// @Summary      Look up labels
// @Description  Resolves a batch of labels by natural key. Duplicate keys are answered once
// @Tags         labels
// @Accept       json
// @Produce      json
// @Param        request body dto.LabelLookupRequest true "Labels to resolve"
// @Success      200 {object} dto.Response{data=[]dto.LookupResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /labels/lookup [post]
func (h *LabelHandler) BatchLookup(c *gin.Context) {
	var req dto.LabelLookupRequest
	if !h.BindJSON(c, &req) {
		return
	}
	keys := labeling.DedupeKeys(dto.ToLabelKeys(req.Labels))
	results, err := h.lookup.BatchFindLabels(c.Request.Context(), keys)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]dto.LookupResponse, 0, len(keys))
	for _, key := range keys {
		out = append(out, toLookupResponse(results[key]))
	}
	h.Success(c, out)
}

func toLookupResponse(r applabeling.LookupResult) dto.LookupResponse {
	return dto.LookupResponse{
		Barcode:  r.Key.Barcode,
		ItemCode: r.Key.ItemCode,
		Outcome:  string(r.Outcome),
		Label:    dto.NewLabelResponse(r.Label),
		Matches:  r.Matches,
	}
}

func parseStatuses(values []string) ([]labeling.LabelStatus, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]labeling.LabelStatus, 0, len(values))
	for _, v := range values {
		status, err := labeling.ParseLabelStatus(v)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}
