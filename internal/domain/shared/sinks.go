package shared

import (
	"context"
)

// ErrorEntry is a structured record for the operator-facing error log
type ErrorEntry struct {
	Title         string
	Message       string
	ReferenceType string // doctype of the record the entry is about, e.g. "Sales Order"
	ReferenceName string
	Fields        map[string]string
}

// ErrorLog is the escalation sink operators browse for failed units of work.
// Implementations must not fail the caller; write problems are their own concern.
type ErrorLog interface {
	LogError(ctx context.Context, entry ErrorEntry)
}

// Notification is a templated message addressed to a role rather than a person
type Notification struct {
	Template      string
	RecipientRole string
	Subject       string
	Variables     map[string]any
}

// Notifier sends templated notifications (email, chat) to responsible roles
type Notifier interface {
	SendTemplated(ctx context.Context, notification Notification) error
}
