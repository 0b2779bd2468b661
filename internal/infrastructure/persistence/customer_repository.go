package persistence

import (
	"context"
	"errors"

	"github.com/erp/labtrack/internal/domain/partner"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByName finds a customer by its name
func (r *GormCustomerRepository) FindByName(ctx context.Context, name string) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNames returns the customers that exist among names
func (r *GormCustomerRepository) FindByNames(ctx context.Context, names []string) ([]partner.Customer, error) {
	if len(names) == 0 {
		return []partner.Customer{}, nil
	}
	var customerModels []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("name IN ?", names).
		Order("name").
		Find(&customerModels).Error; err != nil {
		return nil, err
	}
	customers := make([]partner.Customer, len(customerModels))
	for i, model := range customerModels {
		customers[i] = *model.ToDomain()
	}
	return customers, nil
}

// SetDisabled writes the disabled flag of one customer
func (r *GormCustomerRepository) SetDisabled(ctx context.Context, name string, disabled bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("name = ?", name).
		Update("disabled", disabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Save creates or updates a customer. Customers are owned by the ERP; this
// exists for seeding and tests.
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return r.db.WithContext(ctx).Save(models.CustomerModelFromDomain(customer)).Error
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
