package handler

import (
	"context"

	"github.com/erp/labtrack/internal/infrastructure/persistence"
	"github.com/erp/labtrack/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ErrorLogReader lists persisted escalations and failures
type ErrorLogReader interface {
	List(ctx context.Context, filter persistence.ErrorLogFilter) ([]persistence.ErrorLogRecord, error)
}

// ErrorLogHandler lets operators read the error log
type ErrorLogHandler struct {
	BaseHandler
	reader ErrorLogReader
}

// NewErrorLogHandler creates a new ErrorLogHandler
func NewErrorLogHandler(reader ErrorLogReader) *ErrorLogHandler {
	return &ErrorLogHandler{reader: reader}
}

// List godoc
// @Summary      List error log entries
// @Description  Lists persisted sweep failures and escalations, newest first by default
// @Tags         error-logs
// @Produce      json
// @Param        reference_type query string false "Reference document type"
// @Param        reference_name query string false "Reference document name"
// @Param        since query string false "Only entries created after this time" format(date-time)
// @Param        limit query int false "Maximum entries" minimum(1) maximum(500)
// @Param        order_by query string false "Sort column"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]dto.ErrorLogResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /error-logs [get]
func (h *ErrorLogHandler) List(c *gin.Context) {
	var query dto.ErrorLogQuery
	if !h.BindQuery(c, &query) {
		return
	}
	records, err := h.reader.List(c.Request.Context(), persistence.ErrorLogFilter{
		ReferenceType: query.ReferenceType,
		ReferenceName: query.ReferenceName,
		Since:         query.Since,
		Limit:         query.Limit,
		OrderBy:       query.OrderBy,
		OrderDir:      query.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]dto.ErrorLogResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.ErrorLogResponse{
			ID:            r.ID.String(),
			CreatedAt:     r.CreatedAt,
			Title:         r.Entry.Title,
			Message:       r.Entry.Message,
			ReferenceType: r.Entry.ReferenceType,
			ReferenceName: r.Entry.ReferenceName,
			Fields:        r.Entry.Fields,
		})
	}
	h.Success(c, out)
}
