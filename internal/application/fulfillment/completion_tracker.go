package fulfillment

import (
	"context"
	"fmt"

	"github.com/erp/labtrack/internal/domain/labeling"
)

// SampleState is one sample of an order with the status of its label
type SampleState struct {
	Sample      string `json:"sample"`
	WebID       string `json:"web_id,omitempty"`
	Label       string `json:"label,omitempty"`
	Barcode     string `json:"barcode,omitempty"`
	LabelStatus string `json:"label_status,omitempty"`
	Ready       bool   `json:"ready"`
}

// CompletionVerdict is the completeness test result of one sales order
type CompletionVerdict struct {
	SalesOrder string        `json:"sales_order"`
	Complete   bool          `json:"complete"`
	Ready      int           `json:"ready"`
	Pending    int           `json:"pending"`
	Unlabeled  int           `json:"unlabeled"`
	Reason     string        `json:"reason,omitempty"`
	Samples    []SampleState `json:"samples"`
}

// CompletionTracker decides whether every sample of an order has a label in a
// terminal-ready status
type CompletionTracker struct {
	sampleRepo labeling.SampleRepository
}

// NewCompletionTracker creates a new CompletionTracker
func NewCompletionTracker(sampleRepo labeling.SampleRepository) *CompletionTracker {
	return &CompletionTracker{sampleRepo: sampleRepo}
}

// IsComplete reports whether the order is complete
func (t *CompletionTracker) IsComplete(ctx context.Context, salesOrder string) (bool, error) {
	verdict, err := t.Evaluate(ctx, salesOrder)
	if err != nil {
		return false, err
	}
	return verdict.Complete, nil
}

// Evaluate loads all samples of the order with one query and classifies them.
// A sample without a label is never ready, and an order without samples is
// never complete.
func (t *CompletionTracker) Evaluate(ctx context.Context, salesOrder string) (CompletionVerdict, error) {
	states, err := t.sampleRepo.FindLabelStatesForOrder(ctx, salesOrder)
	if err != nil {
		return CompletionVerdict{}, fmt.Errorf("load samples of %s: %w", salesOrder, err)
	}

	verdict := CompletionVerdict{SalesOrder: salesOrder, Samples: make([]SampleState, 0, len(states))}
	for _, st := range states {
		s := SampleState{
			Sample:  st.Sample,
			WebID:   st.WebID,
			Label:   st.LabelName,
			Barcode: st.Barcode,
			Ready:   st.IsReady(),
		}
		if st.LabelStatus != nil {
			s.LabelStatus = st.LabelStatus.String()
		}
		switch {
		case s.Ready:
			verdict.Ready++
		case st.LabelStatus == nil:
			verdict.Unlabeled++
		default:
			verdict.Pending++
		}
		verdict.Samples = append(verdict.Samples, s)
	}

	switch {
	case len(states) == 0:
		verdict.Reason = "order has no samples"
	case verdict.Unlabeled > 0:
		verdict.Reason = fmt.Sprintf("%d sample(s) without label", verdict.Unlabeled)
	case verdict.Pending > 0:
		verdict.Reason = fmt.Sprintf("%d sample(s) not received or processed", verdict.Pending)
	default:
		verdict.Complete = true
	}
	return verdict, nil
}
