package labeling

import (
	"fmt"
	"slices"

	"github.com/erp/labtrack/internal/domain/shared"
)

// Operation is one of the guarded status changes a label supports.
// There is no total order over statuses; each operation carries its own precondition.
type Operation string

const (
	OperationLock    Operation = "lock"
	OperationUnset   Operation = "unset"
	OperationSubmit  Operation = "submit"
	OperationReceive Operation = "receive"
	OperationProcess Operation = "process"
)

// operationSpec is a row of the transition table
type operationSpec struct {
	target LabelStatus
	// allowedFrom lists acceptable current statuses; nil means any status
	allowedFrom []LabelStatus
	// requiresNotUsed enables the "not used on another open order" guard
	requiresNotUsed bool
}

var operationTable = map[Operation]operationSpec{
	OperationLock: {
		target:      LabelStatusLocked,
		allowedFrom: []LabelStatus{LabelStatusUnused},
	},
	OperationUnset: {
		target:          LabelStatusUnused,
		allowedFrom:     nil,
		requiresNotUsed: true,
	},
	OperationSubmit: {
		target:      LabelStatusSubmitted,
		allowedFrom: []LabelStatus{LabelStatusUnused},
	},
	OperationReceive: {
		target:      LabelStatusReceived,
		allowedFrom: []LabelStatus{LabelStatusSubmitted, LabelStatusReceived},
	},
	OperationProcess: {
		target:      LabelStatusProcessed,
		allowedFrom: []LabelStatus{LabelStatusSubmitted, LabelStatusReceived},
	},
}

// IsValid checks if the operation exists in the transition table
func (o Operation) IsValid() bool {
	_, ok := operationTable[o]
	return ok
}

// Target returns the status the operation moves a label to
func (o Operation) Target() LabelStatus {
	return operationTable[o].target
}

// DefaultAllowedFrom returns the default acceptable current statuses, nil for any
func (o Operation) DefaultAllowedFrom() []LabelStatus {
	return slices.Clone(operationTable[o].allowedFrom)
}

// RequiresNotUsedGuard reports whether the operation must verify the label is
// not referenced by another open sales order
func (o Operation) RequiresNotUsedGuard() bool {
	return operationTable[o].requiresNotUsed
}

// OperationForTarget resolves the operation that produces the given target status
func OperationForTarget(target LabelStatus) (Operation, error) {
	for op, rule := range operationTable {
		if rule.target == target {
			return op, nil
		}
	}
	return "", shared.NewDomainError(shared.CodeInvalidInput,
		fmt.Sprintf("No status operation targets %q", target))
}

// CheckTransition validates that a label in status current may undergo op.
// A non-empty allowedFrom overrides the operation's default list.
func CheckTransition(op Operation, current LabelStatus, allowedFrom []LabelStatus) error {
	if !op.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown operation %q", op))
	}
	allowed := allowedFrom
	if len(allowed) == 0 {
		allowed = operationTable[op].allowedFrom
	}
	if allowed == nil || slices.Contains(allowed, current) {
		return nil
	}
	return shared.NewDomainError(shared.CodeIllegalTransition,
		fmt.Sprintf("Cannot %s label in status %q (allowed: %v)", op, current, allowed))
}
