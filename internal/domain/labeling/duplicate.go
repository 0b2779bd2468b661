package labeling

import (
	"fmt"

	"github.com/erp/labtrack/internal/domain/shared"
)

// DuplicatePolicy selects how a duplicated barcode is resolved
type DuplicatePolicy string

const (
	// PolicyKeepOneLockOther locks the unused record when its sibling is already locked
	PolicyKeepOneLockOther DuplicatePolicy = "keep_one_lock_other"
	// PolicyLockBoth locks both records regardless of their status
	PolicyLockBoth DuplicatePolicy = "lock_both"
)

// IsValid checks if the policy is known
func (p DuplicatePolicy) IsValid() bool {
	return p == PolicyKeepOneLockOther || p == PolicyLockBoth
}

// DuplicateClass is the verdict of the live/stray heuristic for a duplicated barcode
type DuplicateClass string

const (
	// DuplicateLiveAndStray means exactly one record carries customer, order and contact
	DuplicateLiveAndStray DuplicateClass = "live_and_stray"
	// DuplicateSoldTwice means both or neither records carry ownership; needs a human
	DuplicateSoldTwice DuplicateClass = "sold_twice"
	// DuplicateUnexpectedCount means the barcode does not have exactly two records
	DuplicateUnexpectedCount DuplicateClass = "unexpected_count"
)

// DuplicateAssessment is a read-only classification of the records sharing a barcode
type DuplicateAssessment struct {
	Barcode string
	Class   DuplicateClass
	Records []SequencingLabel
	Live    *SequencingLabel
	Stray   *SequencingLabel
}

// AssessDuplicate classifies the records sharing one barcode. It never decides
// the ambiguous case: when both or neither record is owned the result is sold_twice.
func AssessDuplicate(barcode string, records []SequencingLabel) DuplicateAssessment {
	a := DuplicateAssessment{Barcode: barcode, Records: records}
	if len(records) != 2 {
		a.Class = DuplicateUnexpectedCount
		return a
	}
	first, second := &records[0], &records[1]
	switch {
	case first.HasOwnership() && second.HasNoOwnership():
		a.Class = DuplicateLiveAndStray
		a.Live, a.Stray = first, second
	case second.HasOwnership() && first.HasNoOwnership():
		a.Class = DuplicateLiveAndStray
		a.Live, a.Stray = second, first
	default:
		a.Class = DuplicateSoldTwice
	}
	return a
}

// PlanKeepOneLockOther returns the record to lock under the keep-one-lock-other
// policy. It expects exactly two records, one locked and one unused; any other
// combination is reported instead of guessed at.
func PlanKeepOneLockOther(barcode string, records []SequencingLabel) (*SequencingLabel, error) {
	if len(records) != 2 {
		return nil, shared.NewDomainError(shared.CodePreconditionFailed,
			fmt.Sprintf("Barcode %s has %d label records, expected 2", barcode, len(records)))
	}
	first, second := &records[0], &records[1]
	switch {
	case first.Status == LabelStatusLocked && second.Status == LabelStatusUnused:
		return second, nil
	case second.Status == LabelStatusLocked && first.Status == LabelStatusUnused:
		return first, nil
	}
	return nil, shared.NewDomainError(shared.CodePreconditionFailed,
		fmt.Sprintf("Barcode %s has statuses %s/%s, expected one locked and one unused",
			barcode, first.Status, second.Status))
}

// PlanLockBoth returns both records to lock. It expects exactly two records.
func PlanLockBoth(barcode string, records []SequencingLabel) ([]*SequencingLabel, error) {
	if len(records) != 2 {
		return nil, shared.NewDomainError(shared.CodePreconditionFailed,
			fmt.Sprintf("Barcode %s has %d label records, expected 2", barcode, len(records)))
	}
	return []*SequencingLabel{&records[0], &records[1]}, nil
}

// ConfirmDeletable checks that target may be hard-deleted: at least one other
// record must still share its exact barcode.
func ConfirmDeletable(target *SequencingLabel, sameBarcode []SequencingLabel) error {
	for i := range sameBarcode {
		sibling := &sameBarcode[i]
		if sibling.Name != target.Name && sibling.Barcode == target.Barcode {
			return nil
		}
	}
	return shared.NewDomainError(shared.CodePreconditionFailed,
		fmt.Sprintf("Label %s is the last record with barcode %s and cannot be deleted", target.Name, target.Barcode))
}
