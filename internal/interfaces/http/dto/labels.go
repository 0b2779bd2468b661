package dto

import (
	"time"

	"github.com/erp/labtrack/internal/domain/labeling"
)

// MaxBatchSize bounds every batch request body
const MaxBatchSize = 1000

// LabelKeyRequest identifies one label by its natural key
type LabelKeyRequest struct {
	Barcode  string `json:"barcode" binding:"required,max=140" example:"60300123"`
	ItemCode string `json:"item_code" binding:"required,max=140" example:"6030"`
}

// ToKey converts the request to a domain key
func (r LabelKeyRequest) ToKey() labeling.LabelKey {
	return labeling.LabelKey{Barcode: r.Barcode, ItemCode: r.ItemCode}
}

// ToLabelKeys converts request keys to domain keys
func ToLabelKeys(reqs []LabelKeyRequest) []labeling.LabelKey {
	keys := make([]labeling.LabelKey, len(reqs))
	for i, r := range reqs {
		keys[i] = r.ToKey()
	}
	return keys
}

// LabelStatusRequest is the body of POST /labels/status
type LabelStatusRequest struct {
	Labels             []LabelKeyRequest `json:"labels" binding:"required,min=1,max=1000,dive"`
	TargetStatus       string            `json:"target_status" binding:"required,label_status" example:"submitted"`
	AllowedFrom        []string          `json:"allowed_from,omitempty" binding:"omitempty,max=10,dive,label_status" example:"unused,locked"`
	CheckNotUsed       bool              `json:"check_not_used" example:"false"`
	StopOnFirstFailure bool              `json:"stop_on_first_failure" example:"false"`
	ContextOrder       string            `json:"context_order,omitempty" example:"SO-BAL-26001"`
}

// LabelBatchRequest is the body of the convenience label operations
type LabelBatchRequest struct {
	Labels       []LabelKeyRequest `json:"labels" binding:"required,min=1,max=1000,dive"`
	AllowedFrom  []string          `json:"allowed_from,omitempty" binding:"omitempty,max=10,dive,label_status" example:"unused"`
	ContextOrder string            `json:"context_order,omitempty" example:"SO-BAL-26001"`
}

// LabelLookupRequest is the body of POST /labels/lookup
type LabelLookupRequest struct {
	Labels []LabelKeyRequest `json:"labels" binding:"required,min=1,max=1000,dive"`
}

// LabelLookupQuery is the query of GET /labels/lookup
type LabelLookupQuery struct {
	Barcode  string `form:"barcode" binding:"required,max=140" example:"60300123"`
	ItemCode string `form:"item_code" binding:"required,max=140" example:"6030"`
}

// LabelResponse is the API view of a label record
type LabelResponse struct {
	Name       string               `json:"name" example:"SL-000123"`
	Barcode    string               `json:"barcode" example:"60300123"`
	ItemCode   string               `json:"item_code" example:"6030"`
	Status     labeling.LabelStatus `json:"status" example:"submitted"`
	Customer   string               `json:"customer,omitempty" example:"CUST-00042"`
	SalesOrder string               `json:"sales_order,omitempty" example:"SO-BAL-26001"`
	Contact    string               `json:"contact,omitempty" example:"CONT-00017"`
	Registered bool                 `json:"registered" example:"true"`
	UpdatedAt  time.Time            `json:"updated_at" example:"2026-01-23T12:00:00Z"`
}

// NewLabelResponse maps a domain label
func NewLabelResponse(l *labeling.SequencingLabel) *LabelResponse {
	if l == nil {
		return nil
	}
	return &LabelResponse{
		Name:       l.Name,
		Barcode:    l.Barcode,
		ItemCode:   l.ItemCode,
		Status:     l.Status,
		Customer:   l.Customer,
		SalesOrder: l.SalesOrder,
		Contact:    l.Contact,
		Registered: l.Registered,
		UpdatedAt:  l.UpdatedAt,
	}
}

// LookupResponse is the API view of one lookup outcome
type LookupResponse struct {
	Barcode  string         `json:"barcode" example:"60300123"`
	ItemCode string         `json:"item_code" example:"6030"`
	Outcome  string         `json:"outcome" example:"found"`
	Label    *LabelResponse `json:"label,omitempty"`
	Matches  []string       `json:"matches,omitempty" example:"SL-000123,SL-000124"`
}

// DuplicateBarcodesRequest names the barcodes a duplicate tool works on
type DuplicateBarcodesRequest struct {
	Barcodes []string `json:"barcodes" binding:"required,min=1,max=1000,dive,required,max=140" example:"60300123,60300124"`
}

// DuplicateInspectQuery is the query of GET /labels/duplicates
type DuplicateInspectQuery struct {
	Barcodes []string `form:"barcode" binding:"omitempty,max=1000,dive,max=140" example:"60300123"`
	Limit    int      `form:"limit" binding:"omitempty,min=1,max=500" example:"50"`
}
