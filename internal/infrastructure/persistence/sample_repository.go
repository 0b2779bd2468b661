package persistence

import (
	"context"
	"errors"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const sampleLabelColumns = "samples.name AS sample, samples.web_id AS web_id, samples.sequencing_label AS label_name, " +
	"sequencing_labels.barcode AS barcode, sequencing_labels.status AS status"

// GormSampleRepository implements SampleRepository using GORM
type GormSampleRepository struct {
	db *gorm.DB
}

// NewGormSampleRepository creates a new GormSampleRepository
func NewGormSampleRepository(db *gorm.DB) *GormSampleRepository {
	return &GormSampleRepository{db: db}
}

// FindByName finds a sample by its name
func (r *GormSampleRepository) FindByName(ctx context.Context, name string) (*labeling.Sample, error) {
	var model models.SampleModel
	if err := r.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLabelStatesForOrder joins the order's sample links, samples and labels in one query
func (r *GormSampleRepository) FindLabelStatesForOrder(ctx context.Context, salesOrder string) ([]labeling.SampleLabelState, error) {
	var rows []models.SampleLabelRow
	if err := r.db.WithContext(ctx).
		Table("sample_links").
		Select(sampleLabelColumns).
		Joins("JOIN samples ON samples.name = sample_links.sample").
		Joins("LEFT JOIN sequencing_labels ON sequencing_labels.name = samples.sequencing_label").
		Where("sample_links.parent = ? AND sample_links.parent_type = ?", salesOrder, labeling.ParentTypeSalesOrder).
		Order("sample_links.idx, samples.name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toSampleStates(rows), nil
}

// FindLabelStatesForSamples returns the label state of each named sample
func (r *GormSampleRepository) FindLabelStatesForSamples(ctx context.Context, samples []string) ([]labeling.SampleLabelState, error) {
	if len(samples) == 0 {
		return []labeling.SampleLabelState{}, nil
	}
	var rows []models.SampleLabelRow
	if err := r.db.WithContext(ctx).
		Table("samples").
		Select(sampleLabelColumns).
		Joins("LEFT JOIN sequencing_labels ON sequencing_labels.name = samples.sequencing_label").
		Where("samples.name IN ?", samples).
		Order("samples.name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toSampleStates(rows), nil
}

// FindOpenOrderUsages lists draft or submitted sales orders other than
// excludeOrder that reference the label through a sample
func (r *GormSampleRepository) FindOpenOrderUsages(ctx context.Context, labelName, excludeOrder string) ([]labeling.OrderUsage, error) {
	query := r.db.WithContext(ctx).
		Table("samples").
		Select("sales_orders.name AS sales_order, sales_orders.docstatus AS doc_status, samples.name AS sample").
		Joins("JOIN sample_links ON sample_links.sample = samples.name AND sample_links.parent_type = ?", labeling.ParentTypeSalesOrder).
		Joins("JOIN sales_orders ON sales_orders.name = sample_links.parent").
		Where("samples.sequencing_label = ?", labelName).
		Where("sales_orders.docstatus <= ?", int(shared.DocStatusSubmitted))
	if excludeOrder != "" {
		query = query.Where("sales_orders.name <> ?", excludeOrder)
	}

	var rows []models.OrderUsageRow
	if err := query.Order("sales_orders.name").Scan(&rows).Error; err != nil {
		return nil, err
	}
	usages := make([]labeling.OrderUsage, len(rows))
	for i, row := range rows {
		usages[i] = row.ToDomain()
	}
	return usages, nil
}

// FindUsagesByBarcode lists every sample whose label carries the barcode,
// oldest first, with the sales orders each sample is linked to
func (r *GormSampleRepository) FindUsagesByBarcode(ctx context.Context, barcode string) ([]labeling.SampleUsage, error) {
	db := r.db.WithContext(ctx)

	var rows []models.SampleUsageRow
	if err := db.Table("samples").
		Select("samples.name AS sample, samples.web_id AS web_id, samples.sequencing_label AS label_name, " +
			"sequencing_labels.barcode AS barcode, samples.created_at AS creation").
		Joins("JOIN sequencing_labels ON sequencing_labels.name = samples.sequencing_label").
		Where("sequencing_labels.barcode = ?", barcode).
		Order("samples.created_at, samples.name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []labeling.SampleUsage{}, nil
	}

	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Sample
	}
	var links []models.SampleLinkModel
	if err := db.Where("sample IN ? AND parent_type = ?", names, labeling.ParentTypeSalesOrder).
		Order("parent").
		Find(&links).Error; err != nil {
		return nil, err
	}
	orders := make(map[string][]string, len(rows))
	for _, link := range links {
		orders[link.Sample] = append(orders[link.Sample], link.Parent)
	}

	usages := make([]labeling.SampleUsage, len(rows))
	for i, row := range rows {
		usages[i] = labeling.SampleUsage{
			Sample:    row.Sample,
			WebID:     row.WebID,
			LabelName: row.LabelName,
			Barcode:   row.Barcode,
			Creation:  row.Creation,
			Orders:    orders[row.Sample],
		}
	}
	return usages, nil
}

// Save creates or updates a sample. Samples are registered by the webshop;
// this exists for seeding and tests.
func (r *GormSampleRepository) Save(ctx context.Context, sample *labeling.Sample) error {
	model := &models.SampleModel{}
	model.FromDomain(sample)
	return r.db.WithContext(ctx).Save(model).Error
}

func toSampleStates(rows []models.SampleLabelRow) []labeling.SampleLabelState {
	states := make([]labeling.SampleLabelState, len(rows))
	for i, row := range rows {
		states[i] = row.ToDomain()
	}
	return states
}

// Ensure GormSampleRepository implements SampleRepository
var _ labeling.SampleRepository = (*GormSampleRepository)(nil)
