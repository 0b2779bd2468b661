package dto

import "time"

// CompletionSweepRequest is the optional body of POST /fulfillment/sweeps/completion
type CompletionSweepRequest struct {
	ProductType string `json:"product_type" binding:"omitempty,max=140" example:"Sequencing"`
	Limit       int    `json:"limit" binding:"omitempty,min=1,max=10000" example:"500"`
}

// ErrorLogQuery filters GET /error-logs
type ErrorLogQuery struct {
	ReferenceType string    `form:"reference_type" binding:"omitempty,max=140" example:"Sales Order"`
	ReferenceName string    `form:"reference_name" binding:"omitempty,max=140" example:"SO-BAL-26001"`
	Since         time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00" example:"2026-01-01T00:00:00Z"`
	Limit         int       `form:"limit" binding:"omitempty,min=1,max=500" example:"100"`
	OrderBy       string    `form:"order_by" binding:"omitempty,max=40" example:"created_at"`
	OrderDir      string    `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC" example:"desc"`
}

// ErrorLogResponse is the API view of a persisted error log entry
type ErrorLogResponse struct {
	ID            string            `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	CreatedAt     time.Time         `json:"created_at" example:"2026-01-23T12:00:00Z"`
	Title         string            `json:"title" example:"Order completion failed"`
	Message       string            `json:"message" example:"item 3000 has no stock uom"`
	ReferenceType string            `json:"reference_type,omitempty" example:"Sales Order"`
	ReferenceName string            `json:"reference_name,omitempty" example:"SO-BAL-26001"`
	Fields        map[string]string `json:"fields,omitempty"`
}
