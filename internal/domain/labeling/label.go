package labeling

import (
	"fmt"
	"strings"

	"github.com/erp/labtrack/internal/domain/shared"
)

// LabelStatus represents where a physical barcode label is in the lab pipeline
type LabelStatus string

const (
	LabelStatusUnknown   LabelStatus = "unknown"
	LabelStatusUnused    LabelStatus = "unused"
	LabelStatusSubmitted LabelStatus = "submitted"
	LabelStatusLocked    LabelStatus = "locked"
	LabelStatusReceived  LabelStatus = "received"
	LabelStatusProcessed LabelStatus = "processed"
)

// AllLabelStatuses returns every known status
func AllLabelStatuses() []LabelStatus {
	return []LabelStatus{
		LabelStatusUnknown,
		LabelStatusUnused,
		LabelStatusSubmitted,
		LabelStatusLocked,
		LabelStatusReceived,
		LabelStatusProcessed,
	}
}

// IsValid checks if the status is a valid LabelStatus
func (s LabelStatus) IsValid() bool {
	switch s {
	case LabelStatusUnknown, LabelStatusUnused, LabelStatusSubmitted,
		LabelStatusLocked, LabelStatusReceived, LabelStatusProcessed:
		return true
	}
	return false
}

// IsReady reports whether the status is terminal-ready (received or processed),
// i.e. the sample behind the label may be delivered.
func (s LabelStatus) IsReady() bool {
	return s == LabelStatusReceived || s == LabelStatusProcessed
}

// String returns the string representation of LabelStatus
func (s LabelStatus) String() string {
	return string(s)
}

// ParseLabelStatus converts user input into a LabelStatus
func ParseLabelStatus(value string) (LabelStatus, error) {
	status := LabelStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown label status %q", value))
	}
	return status, nil
}

// LabelKey is the natural key of a physical label: the vendor barcode paired with
// the item code of the product the label belongs to. Both halves are opaque.
type LabelKey struct {
	Barcode  string `json:"barcode"`
	ItemCode string `json:"item_code"`
}

// String returns "barcode/item_code"
func (k LabelKey) String() string {
	return k.Barcode + "/" + k.ItemCode
}

// IsZero reports whether either half of the key is missing
func (k LabelKey) IsZero() bool {
	return k.Barcode == "" || k.ItemCode == ""
}

// DedupeKeys returns keys in first-seen order with duplicates removed
func DedupeKeys(keys []LabelKey) []LabelKey {
	seen := make(map[LabelKey]struct{}, len(keys))
	out := make([]LabelKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// SequencingLabel is one physical barcode label registered in the label store.
// Empty strings stand for unset links.
type SequencingLabel struct {
	shared.BaseEntity
	Barcode      string
	ItemCode     string
	Status       LabelStatus
	Customer     string
	SalesOrder   string
	Contact      string
	RegisteredTo string
	Registered   bool
}

// NewSequencingLabel creates a freshly provisioned label in status unused
func NewSequencingLabel(name, barcode, itemCode string) (*SequencingLabel, error) {
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Label name cannot be empty")
	}
	if barcode == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Barcode cannot be empty")
	}
	if itemCode == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Item code cannot be empty")
	}
	return &SequencingLabel{
		BaseEntity: shared.NewBaseEntity(name),
		Barcode:    barcode,
		ItemCode:   itemCode,
		Status:     LabelStatusUnused,
	}, nil
}

// Key returns the natural key of the label
func (l *SequencingLabel) Key() LabelKey {
	return LabelKey{Barcode: l.Barcode, ItemCode: l.ItemCode}
}

// SetStatus writes the status without checking the transition table.
// Use ApplyOperation for guarded changes.
func (l *SequencingLabel) SetStatus(status LabelStatus) {
	l.Status = status
	l.Touch()
}

// ApplyOperation moves the label to the operation's target status if the
// current status is in allowedFrom (or the operation's default list when nil).
// The label is left untouched on failure.
func (l *SequencingLabel) ApplyOperation(op Operation, allowedFrom []LabelStatus) error {
	if err := CheckTransition(op, l.Status, allowedFrom); err != nil {
		return err
	}
	l.SetStatus(op.Target())
	return nil
}

// HasOwnership reports whether customer, sales order and contact are all set
func (l *SequencingLabel) HasOwnership() bool {
	return l.Customer != "" && l.SalesOrder != "" && l.Contact != ""
}

// HasNoOwnership reports whether customer, sales order and contact are all unset
func (l *SequencingLabel) HasNoOwnership() bool {
	return l.Customer == "" && l.SalesOrder == "" && l.Contact == ""
}
