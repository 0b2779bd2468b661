package partner

import (
	"context"

	"github.com/erp/labtrack/internal/domain/shared"
)

// Customer is the part of the customer master the label workflow touches.
// Disabled customers fail the ERP's link validation when a referencing record is saved.
type Customer struct {
	shared.BaseEntity
	CustomerName string
	Disabled     bool
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByName finds a customer by name
	FindByName(ctx context.Context, name string) (*Customer, error)

	// FindByNames returns the customers that exist among names
	FindByNames(ctx context.Context, names []string) ([]Customer, error)

	// SetDisabled writes the disabled flag of one customer
	SetDisabled(ctx context.Context, name string, disabled bool) error
}
