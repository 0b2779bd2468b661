package persistence

import (
	"context"
	"errors"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/domain/trade"
	"github.com/erp/labtrack/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// FindByName finds a sales order by name with items and samples
func (r *GormSalesOrderRepository) FindByName(ctx context.Context, name string) (*trade.SalesOrder, error) {
	db := r.db.WithContext(ctx)
	var model models.SalesOrderModel
	if err := db.Preload("Items", orderByIdx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	order := model.ToDomain()
	samples, err := linkedSamples(db, labeling.ParentTypeSalesOrder, []string{name})
	if err != nil {
		return nil, err
	}
	order.Samples = samples[name]
	return order, nil
}

// FindCompletionCandidates returns submitted, unfinished, not fully delivered
// orders of the product type that have no delivery note yet. A note blocks an
// order either through an item pointing at it or through a live note sharing
// its web order id, so split webshop orders are delivered once.
func (r *GormSalesOrderRepository) FindCompletionCandidates(ctx context.Context, filter trade.OpenOrderFilter) ([]trade.SalesOrder, error) {
	db := r.db.WithContext(ctx)
	query := db.Model(&models.SalesOrderModel{}).
		Where("sales_orders.docstatus = ?", int(shared.DocStatusSubmitted)).
		Where("sales_orders.status NOT IN ?", []trade.SalesOrderStatus{trade.SalesOrderStatusClosed, trade.SalesOrderStatusCompleted}).
		Where("sales_orders.product_type = ?", filter.ProductType).
		Where("sales_orders.per_delivered < ?", trade.FullyDelivered).
		Where("(sales_orders.web_order_id = '' OR NOT EXISTS (?))",
			db.Table("delivery_notes").Select("1").
				Where("delivery_notes.web_order_id = sales_orders.web_order_id").
				Where("delivery_notes.docstatus < ?", int(shared.DocStatusCancelled))).
		Where("NOT EXISTS (?)",
			db.Table("delivery_note_items").Select("1").
				Where("delivery_note_items.against_sales_order = sales_orders.name")).
		Order("sales_orders.transaction_date ASC, sales_orders.name ASC")
	query = afterCursor(query, "sales_orders.transaction_date", "sales_orders.name", filter.After)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var orderModels []models.SalesOrderModel
	if err := query.Preload("Items", orderByIdx).Find(&orderModels).Error; err != nil {
		return nil, err
	}
	if len(orderModels) == 0 {
		return []trade.SalesOrder{}, nil
	}

	names := make([]string, len(orderModels))
	for i, m := range orderModels {
		names[i] = m.Name
	}
	samples, err := linkedSamples(db, labeling.ParentTypeSalesOrder, names)
	if err != nil {
		return nil, err
	}

	orders := make([]trade.SalesOrder, len(orderModels))
	for i, model := range orderModels {
		orders[i] = *model.ToDomain()
		orders[i].Samples = samples[model.Name]
	}
	return orders, nil
}

// Save creates or replaces a sales order with its items and sample links.
// Orders are owned by the ERP; this exists for seeding and tests.
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sales_order = ?", order.Name).Delete(&models.SalesOrderItemModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("parent = ? AND parent_type = ?", order.Name, labeling.ParentTypeSalesOrder).
			Delete(&models.SampleLinkModel{}).Error; err != nil {
			return err
		}
		model := models.SalesOrderModelFromDomain(order)
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		links := models.SampleLinkModels(order.Name, labeling.ParentTypeSalesOrder, order.Samples)
		if len(links) > 0 {
			return tx.Create(&links).Error
		}
		return nil
	})
}

func orderByIdx(db *gorm.DB) *gorm.DB {
	return db.Order("idx")
}

// linkedSamples loads sample names per parent in one query, in link order
func linkedSamples(db *gorm.DB, parentType string, parents []string) (map[string][]string, error) {
	var links []models.SampleLinkModel
	if err := db.Where("parent IN ? AND parent_type = ?", parents, parentType).
		Order("parent, idx").
		Find(&links).Error; err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(parents))
	for _, link := range links {
		out[link.Parent] = append(out[link.Parent], link.Sample)
	}
	return out, nil
}

// Ensure GormSalesOrderRepository implements SalesOrderRepository
var _ trade.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
