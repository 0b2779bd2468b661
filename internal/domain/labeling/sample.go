package labeling

import (
	"time"

	"github.com/erp/labtrack/internal/domain/shared"
)

// ParentTypeSalesOrder is the parenttype of sample links attached to sales orders
const ParentTypeSalesOrder = "Sales Order"

// ParentTypeDeliveryNote is the parenttype of sample links attached to delivery notes
const ParentTypeDeliveryNote = "Delivery Note"

// Sample is a logical lab specimen. It references at most one label.
type Sample struct {
	shared.BaseEntity
	WebID           string
	SequencingLabel string // label name, empty when no label is attached
}

// HasLabel reports whether the sample references a label
func (s *Sample) HasLabel() bool {
	return s.SequencingLabel != ""
}

// SampleLink joins a sample to a parent document (sales order or delivery note)
type SampleLink struct {
	Parent     string
	ParentType string
	Sample     string
}

// SampleLabelState is the per-sample read model used for completion checks:
// the sample and the status of its label, if any.
type SampleLabelState struct {
	Sample      string
	WebID       string
	LabelName   string
	Barcode     string
	LabelStatus *LabelStatus // nil when the sample has no label or the label record is missing
}

// IsReady reports whether the sample's label is terminal-ready. A sample without
// a label is never ready.
func (s SampleLabelState) IsReady() bool {
	return s.LabelStatus != nil && s.LabelStatus.IsReady()
}

// SampleUsage describes a sample that references a label with a given barcode,
// together with the sales orders it is linked to.
type SampleUsage struct {
	Sample    string
	WebID     string
	LabelName string
	Barcode   string
	Creation  time.Time
	Orders    []string
}

// OrderUsage is a label reference found on an open sales order through a sample
type OrderUsage struct {
	SalesOrder string
	DocStatus  shared.DocStatus
	Sample     string
}
