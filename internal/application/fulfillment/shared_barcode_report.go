package fulfillment

import (
	"fmt"
	"strings"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
)

// BarcodeConflict is a barcode referenced by more than one sample
type BarcodeConflict struct {
	Barcode string                 `json:"barcode"`
	Usages  []labeling.SampleUsage `json:"usages"`
}

// SharedBarcodeReport lists the barcode collisions found on one delivery note
type SharedBarcodeReport struct {
	DeliveryNote string            `json:"delivery_note"`
	SalesOrder   string            `json:"sales_order"`
	Conflicts    []BarcodeConflict `json:"conflicts"`
}

// HasConflicts reports whether any barcode is shared
func (r SharedBarcodeReport) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Barcodes returns the conflicting barcodes
func (r SharedBarcodeReport) Barcodes() []string {
	out := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		out = append(out, c.Barcode)
	}
	return out
}

// SampleNames returns every sample involved in a conflict, without repeats
func (r SharedBarcodeReport) SampleNames() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, c := range r.Conflicts {
		for _, u := range c.Usages {
			if _, ok := seen[u.Sample]; ok {
				continue
			}
			seen[u.Sample] = struct{}{}
			out = append(out, u.Sample)
		}
	}
	return out
}

// Render formats the report for humans: one block per barcode, one line per sample
func (r SharedBarcodeReport) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Delivery note %s (sales order %s) was not submitted.\n", r.DeliveryNote, r.SalesOrder)
	for _, c := range r.Conflicts {
		fmt.Fprintf(&b, "\nBarcode %s is used by %d samples:\n", c.Barcode, len(c.Usages))
		for _, u := range c.Usages {
			orders := "-"
			if len(u.Orders) > 0 {
				orders = strings.Join(u.Orders, ", ")
			}
			fmt.Fprintf(&b, "  - sample %s, web id %s, label %s, created %s, orders %s\n",
				u.Sample, orDash(u.WebID), orDash(u.LabelName), u.Creation.Format("2006-01-02 15:04"), orders)
		}
	}
	return b.String()
}

// Notification builds the escalation message for the responsible role
func (r SharedBarcodeReport) Notification(template, role string) shared.Notification {
	return shared.Notification{
		Template:      template,
		RecipientRole: role,
		Subject:       fmt.Sprintf("Shared barcode on delivery note %s", r.DeliveryNote),
		Variables: map[string]any{
			"delivery_note": r.DeliveryNote,
			"sales_order":   r.SalesOrder,
			"barcodes":      r.Barcodes(),
			"samples":       r.SampleNames(),
			"conflicts":     r.Conflicts,
			"report":        r.Render(),
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
