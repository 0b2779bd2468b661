package erp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/domain/trade"
	"github.com/go-playground/validator/v10"
)

// deliverableOrder holds the header fields a delivery note copies from its
// sales order; each must be present before a note can be made.
type deliverableOrder struct {
	Customer        string `validate:"required"`
	Company         string `validate:"required"`
	CustomerAddress string `validate:"required"`
	ShippingAddress string `validate:"required"`
	Items           int    `validate:"gt=0"`
}

// SalesOrderValidator checks that a sales order can be delivered
type SalesOrderValidator struct {
	orders   trade.SalesOrderRepository
	validate *validator.Validate
}

// NewSalesOrderValidator creates a SalesOrderValidator
func NewSalesOrderValidator(orders trade.SalesOrderRepository) *SalesOrderValidator {
	return &SalesOrderValidator{
		orders:   orders,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateSalesOrder returns a PRECONDITION_FAILED domain error naming every
// missing field, or an INVALID_STATE error when the order is not open.
func (v *SalesOrderValidator) ValidateSalesOrder(ctx context.Context, salesOrder string) error {
	order, err := v.orders.FindByName(ctx, salesOrder)
	if err != nil {
		return err
	}
	if order.DocStatus != shared.DocStatusSubmitted {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Sales order %s is %s, not submitted", order.Name, order.DocStatus))
	}
	if order.Status.IsFinished() || order.Status == trade.SalesOrderStatusCancelled {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Sales order %s is %s", order.Name, order.Status))
	}

	err = v.validate.Struct(deliverableOrder{
		Customer:        order.Customer,
		Company:         order.Company,
		CustomerAddress: order.CustomerAddress,
		ShippingAddress: order.ShippingAddress,
		Items:           len(order.Items),
	})
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		return shared.NewDomainError(shared.CodePreconditionFailed,
			fmt.Sprintf("Sales order %s is missing %s", order.Name, strings.Join(missing, ", ")))
	}
	return err
}
