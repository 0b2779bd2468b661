package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLabelRepository implements LabelRepository using GORM
type GormLabelRepository struct {
	db *gorm.DB
}

// NewGormLabelRepository creates a new GormLabelRepository
func NewGormLabelRepository(db *gorm.DB) *GormLabelRepository {
	return &GormLabelRepository{db: db}
}

// FindByName finds a label by its name
func (r *GormLabelRepository) FindByName(ctx context.Context, name string) (*labeling.SequencingLabel, error) {
	var model models.SequencingLabelModel
	if err := r.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByKey returns every label with the exact barcode and item code
func (r *GormLabelRepository) FindByKey(ctx context.Context, key labeling.LabelKey) ([]labeling.SequencingLabel, error) {
	var labelModels []models.SequencingLabelModel
	if err := r.db.WithContext(ctx).
		Where("barcode = ? AND item_code = ?", key.Barcode, key.ItemCode).
		Order("name").
		Find(&labelModels).Error; err != nil {
		return nil, err
	}
	return toLabels(labelModels), nil
}

// FindByKeys returns every label matching any of the keys in one query.
// The query selects by barcode and the item code is matched in memory so the
// statement stays portable to sqlite, which has no row-value IN lists.
func (r *GormLabelRepository) FindByKeys(ctx context.Context, keys []labeling.LabelKey) ([]labeling.SequencingLabel, error) {
	if len(keys) == 0 {
		return []labeling.SequencingLabel{}, nil
	}
	wanted := make(map[labeling.LabelKey]struct{}, len(keys))
	barcodes := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
		if _, ok := seen[k.Barcode]; !ok {
			seen[k.Barcode] = struct{}{}
			barcodes = append(barcodes, k.Barcode)
		}
	}

	var labelModels []models.SequencingLabelModel
	if err := r.db.WithContext(ctx).
		Where("barcode IN ?", barcodes).
		Order("name").
		Find(&labelModels).Error; err != nil {
		return nil, err
	}
	labels := make([]labeling.SequencingLabel, 0, len(labelModels))
	for _, model := range labelModels {
		if _, ok := wanted[labeling.LabelKey{Barcode: model.Barcode, ItemCode: model.ItemCode}]; ok {
			labels = append(labels, *model.ToDomain())
		}
	}
	return labels, nil
}

// FindByBarcode returns every label with the barcode
func (r *GormLabelRepository) FindByBarcode(ctx context.Context, barcode string) ([]labeling.SequencingLabel, error) {
	var labelModels []models.SequencingLabelModel
	if err := r.db.WithContext(ctx).
		Where("barcode = ?", barcode).
		Order("name").
		Find(&labelModels).Error; err != nil {
		return nil, err
	}
	return toLabels(labelModels), nil
}

// FindDuplicatedBarcodes returns barcodes carried by more than one record
func (r *GormLabelRepository) FindDuplicatedBarcodes(ctx context.Context, limit int) ([]string, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SequencingLabelModel{}).
		Group("barcode").
		Having("COUNT(*) > ?", 1).
		Order("barcode")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var barcodes []string
	if err := query.Pluck("barcode", &barcodes).Error; err != nil {
		return nil, err
	}
	return barcodes, nil
}

// List returns labels matching the filter ordered by name
func (r *GormLabelRepository) List(ctx context.Context, filter labeling.LabelFilter) ([]labeling.SequencingLabel, error) {
	query := r.db.WithContext(ctx).Model(&models.SequencingLabelModel{})
	if filter.Barcode != "" {
		query = query.Where("barcode = ?", filter.Barcode)
	}
	if filter.ItemCode != "" {
		query = query.Where("item_code = ?", filter.ItemCode)
	}
	if filter.Customer != "" {
		query = query.Where("customer = ?", filter.Customer)
	}
	if filter.SalesOrder != "" {
		query = query.Where("sales_order = ?", filter.SalesOrder)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var labelModels []models.SequencingLabelModel
	if err := query.Order("name").Find(&labelModels).Error; err != nil {
		return nil, err
	}
	return toLabels(labelModels), nil
}

// Save creates or updates a label. Like the ERP's link validation, a label
// pointing to a disabled customer is rejected with CUSTOMER_DISABLED.
func (r *GormLabelRepository) Save(ctx context.Context, label *labeling.SequencingLabel) error {
	db := r.db.WithContext(ctx)
	if label.Customer != "" {
		var disabled []bool
		if err := db.Model(&models.CustomerModel{}).
			Where("name = ?", label.Customer).
			Pluck("disabled", &disabled).Error; err != nil {
			return err
		}
		if len(disabled) == 0 {
			return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Customer %s not found", label.Customer))
		}
		if disabled[0] {
			return shared.NewDomainError(shared.CodeCustomerDisabled, fmt.Sprintf("Customer %s is disabled", label.Customer))
		}
	}

	model := models.SequencingLabelModelFromDomain(label)
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"barcode", "item_code", "status", "customer", "sales_order", "contact", "registered_to", "registered", "updated_at"}),
	}).Create(model).Error
}

// UpdateStatus writes the status column of one label
func (r *GormLabelRepository) UpdateStatus(ctx context.Context, name string, status labeling.LabelStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.SequencingLabelModel{}).
		Where("name = ?", name).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete permanently removes a label
func (r *GormLabelRepository) Delete(ctx context.Context, name string) error {
	result := r.db.WithContext(ctx).Delete(&models.SequencingLabelModel{}, "name = ?", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toLabels(labelModels []models.SequencingLabelModel) []labeling.SequencingLabel {
	labels := make([]labeling.SequencingLabel, len(labelModels))
	for i, model := range labelModels {
		labels[i] = *model.ToDomain()
	}
	return labels
}

// Ensure GormLabelRepository implements LabelRepository
var _ labeling.LabelRepository = (*GormLabelRepository)(nil)
