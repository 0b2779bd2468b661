package labeling

import (
	"github.com/erp/labtrack/internal/domain/labeling"
)

// StatusChangeRequest is one batch call of the label status API
type StatusChangeRequest struct {
	Keys   []labeling.LabelKey
	Target labeling.LabelStatus
	// AllowedFrom overrides the operation's default list of acceptable current statuses
	AllowedFrom []labeling.LabelStatus
	// CheckNotUsed rejects labels referenced by another open sales order
	CheckNotUsed bool
	// StopOnFirstFailure aborts the whole batch without writes on the first invalid item
	StopOnFirstFailure bool
	// ContextOrder is the sales order under edit; it is ignored by the not-used guard
	ContextOrder string
}

// ItemStatus is the outcome of one label in a batch
type ItemStatus string

const (
	ItemChanged ItemStatus = "changed"
	ItemFailed  ItemStatus = "failed"
	// ItemSkipped marks labels left untouched because a strict batch aborted
	ItemSkipped ItemStatus = "skipped"
)

// ItemResult is the per-label result of a status change batch
type ItemResult struct {
	Barcode  string               `json:"barcode"`
	ItemCode string               `json:"item_code"`
	Label    string               `json:"label,omitempty"`
	Status   ItemStatus           `json:"status"`
	From     labeling.LabelStatus `json:"from,omitempty"`
	To       labeling.LabelStatus `json:"to"`
	Code     string               `json:"code,omitempty"`
	Message  string               `json:"message,omitempty"`
}

// Key returns the natural key the item refers to
func (r ItemResult) Key() labeling.LabelKey {
	return labeling.LabelKey{Barcode: r.Barcode, ItemCode: r.ItemCode}
}

// StatusChangeResult aggregates a batch. Every distinct input pair has exactly
// one entry in Items.
type StatusChangeResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Changed int          `json:"changed"`
	Failed  int          `json:"failed"`
	Skipped int          `json:"skipped"`
	Items   []ItemResult `json:"items"`
}

// DuplicateOutcome is the disposition of one barcode in a resolver run
type DuplicateOutcome string

const (
	DuplicateResolved DuplicateOutcome = "resolved"
	DuplicateSkipped  DuplicateOutcome = "skipped"
	DuplicateFailed   DuplicateOutcome = "failed"
)

// DuplicateResolution reports what happened to one barcode
type DuplicateResolution struct {
	Barcode string           `json:"barcode"`
	Outcome DuplicateOutcome `json:"outcome"`
	Locked  []string         `json:"locked,omitempty"`
	Code    string           `json:"code,omitempty"`
	Message string           `json:"message,omitempty"`
}

// DuplicateReport aggregates a resolver run
type DuplicateReport struct {
	Policy   labeling.DuplicatePolicy `json:"policy"`
	Resolved int                      `json:"resolved"`
	Skipped  int                      `json:"skipped"`
	Failed   int                      `json:"failed"`
	Results  []DuplicateResolution    `json:"results"`
}

// DuplicateRecord is one label record in an inspection report
type DuplicateRecord struct {
	Name       string               `json:"name"`
	ItemCode   string               `json:"item_code"`
	Status     labeling.LabelStatus `json:"status"`
	Customer   string               `json:"customer,omitempty"`
	SalesOrder string               `json:"sales_order,omitempty"`
	Contact    string               `json:"contact,omitempty"`
}

// DuplicateInspection is the read-only classification of one duplicated barcode
type DuplicateInspection struct {
	Barcode string                  `json:"barcode"`
	Class   labeling.DuplicateClass `json:"class"`
	Live    string                  `json:"live,omitempty"`
	Stray   string                  `json:"stray,omitempty"`
	Records []DuplicateRecord       `json:"records"`
}

func toInspection(a labeling.DuplicateAssessment) DuplicateInspection {
	out := DuplicateInspection{
		Barcode: a.Barcode,
		Class:   a.Class,
		Records: make([]DuplicateRecord, 0, len(a.Records)),
	}
	if a.Live != nil {
		out.Live = a.Live.Name
	}
	if a.Stray != nil {
		out.Stray = a.Stray.Name
	}
	for _, r := range a.Records {
		out.Records = append(out.Records, DuplicateRecord{
			Name:       r.Name,
			ItemCode:   r.ItemCode,
			Status:     r.Status,
			Customer:   r.Customer,
			SalesOrder: r.SalesOrder,
			Contact:    r.Contact,
		})
	}
	return out
}
