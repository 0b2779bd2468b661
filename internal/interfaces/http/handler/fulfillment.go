package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/erp/labtrack/internal/application/fulfillment"
	"github.com/erp/labtrack/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// CompletionEvaluator evaluates sample completeness of one order
type CompletionEvaluator interface {
	Evaluate(ctx context.Context, salesOrder string) (fulfillment.CompletionVerdict, error)
}

// CompletionSweeper runs the order completion sweep
type CompletionSweeper interface {
	Sweep(ctx context.Context, req fulfillment.CompletionSweepRequest) fulfillment.CompletionSweepReport
}

// SubmissionGate promotes draft delivery notes
type SubmissionGate interface {
	Sweep(ctx context.Context) fulfillment.SubmissionSweepReport
	CheckAndSubmit(ctx context.Context, name string) (fulfillment.SubmissionOutcome, error)
}

// FulfillmentHandler serves the order completion and delivery note endpoints
type FulfillmentHandler struct {
	BaseHandler
	evaluator  CompletionEvaluator
	completion CompletionSweeper
	gate       SubmissionGate
}

// NewFulfillmentHandler creates a new FulfillmentHandler
func NewFulfillmentHandler(evaluator CompletionEvaluator, completion CompletionSweeper, gate SubmissionGate) *FulfillmentHandler {
	return &FulfillmentHandler{evaluator: evaluator, completion: completion, gate: gate}
}

// OrderCompletion godoc
// @Summary      Check order completion
// @Description  Reports the label state of every sample of a sales order
// @Tags         fulfillment
// @Produce      json
// @Param        name path string true "Sales order name"
// @Success      200 {object} dto.Response{data=fulfillment.CompletionVerdict}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{name}/completion [get]
func (h *FulfillmentHandler) OrderCompletion(c *gin.Context) {
	verdict, err := h.evaluator.Evaluate(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, verdict)
}

// SubmitCheck godoc
// @Summary      Check and submit a delivery note
// @Description  Runs the submission gate on one draft delivery note
// @Tags         fulfillment
// @Produce      json
// @Param        name path string true "Delivery note name"
// @Success      200 {object} dto.Response{data=fulfillment.SubmissionOutcome}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /delivery-notes/{name}/submit-check [post]
func (h *FulfillmentHandler) SubmitCheck(c *gin.Context) {
	outcome, err := h.gate.CheckAndSubmit(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: outcome.Decision == fulfillment.DecisionSubmitted, Data: outcome})
}

// RunCompletionSweep godoc
// @Summary      Run the order completion sweep
// @Description  Creates draft delivery notes for open orders whose samples are all processed
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Param        request body dto.CompletionSweepRequest false "Sweep options"
// @Success      200 {object} dto.Response{data=fulfillment.CompletionSweepReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /fulfillment/sweeps/completion [post]
func (h *FulfillmentHandler) RunCompletionSweep(c *gin.Context) {
	var req dto.CompletionSweepRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.bindFailed(c, err)
			return
		}
	}
	report := h.completion.Sweep(c.Request.Context(), fulfillment.CompletionSweepRequest{
		ProductType: req.ProductType,
		Limit:       req.Limit,
	})
	h.sweepResult(c, report.Status, report.Message, report)
}

// RunSubmissionSweep godoc
// @Summary      Run the delivery note submission sweep
// @Description  Submits draft delivery notes that pass the gate
// @Tags         fulfillment
// @Produce      json
// @Success      200 {object} dto.Response{data=fulfillment.SubmissionSweepReport}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /fulfillment/sweeps/submission [post]
func (h *FulfillmentHandler) RunSubmissionSweep(c *gin.Context) {
	report := h.gate.Sweep(c.Request.Context())
	h.sweepResult(c, report.Status, report.Message, report)
}

// sweepResult keeps the report in the body for every status so callers can
// see which units ran before a failure.
func (h *FulfillmentHandler) sweepResult(c *gin.Context, status fulfillment.SweepStatus, message string, report any) {
	resp := dto.Response{Success: status == fulfillment.SweepCompleted, Data: report}
	switch status {
	case fulfillment.SweepCompleted:
		c.JSON(http.StatusOK, resp)
		return
	case fulfillment.SweepSkippedLocked:
		resp.Error = &dto.ErrorInfo{Code: dto.ErrCodeSweepAlreadyRunning, Message: "Sweep is already running on another instance"}
	default:
		resp.Error = &dto.ErrorInfo{Code: dto.ErrCodeInternal, Message: message}
	}
	resp.Error.RequestID = getRequestID(c)
	c.JSON(dto.GetHTTPStatus(resp.Error.Code), resp)
}
