package trade

import (
	"context"
	"time"

	"github.com/erp/labtrack/internal/domain/shared"
)

// PageCursor resumes a keyset scan after the last row of the previous page.
// Rows are ordered by (At, Name); the zero cursor starts at the beginning.
type PageCursor struct {
	At   time.Time
	Name string
}

// IsZero reports whether the cursor starts a new scan
func (c PageCursor) IsZero() bool {
	return c.Name == ""
}

// OpenOrderFilter selects completion candidates
type OpenOrderFilter struct {
	ProductType string
	Limit       int
	// After skips orders at or before (transaction date, name)
	After PageCursor
}

// CursorAfterOrder returns the cursor positioned on o
func CursorAfterOrder(o *SalesOrder) PageCursor {
	return PageCursor{At: o.TransactionDate, Name: o.Name}
}

// DraftFilter selects draft delivery notes for the submission gate
type DraftFilter struct {
	// CreatedBefore keeps notes created strictly before this instant; zero disables it
	CreatedBefore time.Time
	Limit         int
	// After skips notes at or before (creation, name)
	After PageCursor
}

// CursorAfterNote returns the cursor positioned on n
func CursorAfterNote(n *DeliveryNote) PageCursor {
	return PageCursor{At: n.CreatedAt, Name: n.Name}
}

// SalesOrderRepository defines read access to sales orders
type SalesOrderRepository interface {
	// FindByName finds a sales order by name, items and sample links included
	FindByName(ctx context.Context, name string) (*SalesOrder, error)

	// FindCompletionCandidates returns submitted, unfinished orders of a product type
	// with per_delivered < 100 that have no delivery note, neither through an item
	// referencing the order nor through a non-cancelled note sharing its web order id.
	// Orders are returned by transaction date then name ascending.
	FindCompletionCandidates(ctx context.Context, filter OpenOrderFilter) ([]SalesOrder, error)
}

// DeliveryNoteRepository defines the interface for delivery note persistence
type DeliveryNoteRepository interface {
	// FindByName finds a delivery note by name, items and samples included
	FindByName(ctx context.Context, name string) (*DeliveryNote, error)

	// FindDrafts returns draft notes ordered by creation then name ascending
	FindDrafts(ctx context.Context, filter DraftFilter) ([]DeliveryNote, error)

	// ExistsForOrder reports whether any note item references the order directly
	// or a non-cancelled note shares its web order id (when webOrderID is not empty)
	ExistsForOrder(ctx context.Context, salesOrder, webOrderID string) (bool, error)

	// NextName reserves the next document name of a naming series such as
	// "DN-BAL-.YY.-.#####"
	NextName(ctx context.Context, series string) (string, error)

	// Create inserts a new note with its items and samples
	Create(ctx context.Context, note *DeliveryNote) error

	// UpdateDocStatus writes docstatus of an existing note
	UpdateDocStatus(ctx context.Context, name string, status shared.DocStatus) error
}
