package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/domain/trade"
	"github.com/erp/labtrack/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDeliveryNoteRepository implements DeliveryNoteRepository using GORM
type GormDeliveryNoteRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormDeliveryNoteRepository creates a new GormDeliveryNoteRepository
func NewGormDeliveryNoteRepository(db *gorm.DB) *GormDeliveryNoteRepository {
	return &GormDeliveryNoteRepository{db: db, now: time.Now}
}

// FindByName finds a delivery note by name with items and samples
func (r *GormDeliveryNoteRepository) FindByName(ctx context.Context, name string) (*trade.DeliveryNote, error) {
	db := r.db.WithContext(ctx)
	var model models.DeliveryNoteModel
	if err := db.Preload("Items", orderByIdx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	note := model.ToDomain()
	samples, err := linkedSamples(db, labeling.ParentTypeDeliveryNote, []string{name})
	if err != nil {
		return nil, err
	}
	note.Samples = samples[name]
	return note, nil
}

// FindDrafts returns one page of draft notes ordered by creation then name.
// Samples are not loaded; callers re-read each note by name before acting on it.
func (r *GormDeliveryNoteRepository) FindDrafts(ctx context.Context, filter trade.DraftFilter) ([]trade.DeliveryNote, error) {
	query := r.db.WithContext(ctx).
		Where("docstatus = ?", int(shared.DocStatusDraft))
	if !filter.CreatedBefore.IsZero() {
		query = query.Where("created_at < ?", filter.CreatedBefore)
	}
	query = afterCursor(query, "created_at", "name", filter.After)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var noteModels []models.DeliveryNoteModel
	if err := query.Preload("Items", orderByIdx).Order("created_at ASC, name ASC").Find(&noteModels).Error; err != nil {
		return nil, err
	}
	notes := make([]trade.DeliveryNote, len(noteModels))
	for i, model := range noteModels {
		notes[i] = *model.ToDomain()
	}
	return notes, nil
}

// ExistsForOrder reports whether a note item references the order or a live
// note shares its web order id
func (r *GormDeliveryNoteRepository) ExistsForOrder(ctx context.Context, salesOrder, webOrderID string) (bool, error) {
	db := r.db.WithContext(ctx)

	var direct int64
	if err := db.Model(&models.DeliveryNoteItemModel{}).
		Where("against_sales_order = ?", salesOrder).
		Limit(1).
		Count(&direct).Error; err != nil {
		return false, err
	}
	if direct > 0 || webOrderID == "" {
		return direct > 0, nil
	}

	var siblings int64
	if err := db.Model(&models.DeliveryNoteModel{}).
		Where("web_order_id = ? AND docstatus < ?", webOrderID, int(shared.DocStatusCancelled)).
		Limit(1).
		Count(&siblings).Error; err != nil {
		return false, err
	}
	return siblings > 0, nil
}

// NextName increments the counter of the expanded series and returns the new
// name. Run it inside the transaction that inserts the note.
func (r *GormDeliveryNoteRepository) NextName(ctx context.Context, series string) (string, error) {
	prefix, digits := expandSeries(series, r.now())
	db := r.db.WithContext(ctx)

	counter := models.NamingSeriesModel{Name: prefix, Current: 1}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{"current": gorm.Expr("naming_series.current + 1")}),
	}).Create(&counter).Error; err != nil {
		return "", err
	}
	if err := db.First(&counter, "name = ?", prefix).Error; err != nil {
		return "", err
	}
	return formatSeriesName(prefix, digits, counter.Current), nil
}

// Create inserts the note with its items and sample links
func (r *GormDeliveryNoteRepository) Create(ctx context.Context, note *trade.DeliveryNote) error {
	if note.Name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Delivery note name cannot be empty")
	}
	model := models.DeliveryNoteModelFromDomain(note)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		links := models.SampleLinkModels(note.Name, labeling.ParentTypeDeliveryNote, note.Samples)
		if len(links) > 0 {
			return tx.Create(&links).Error
		}
		return nil
	})
}

// UpdateDocStatus writes docstatus of an existing note
func (r *GormDeliveryNoteRepository) UpdateDocStatus(ctx context.Context, name string, status shared.DocStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.DeliveryNoteModel{}).
		Where("name = ?", name).
		Update("docstatus", int(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormDeliveryNoteRepository implements DeliveryNoteRepository
var _ trade.DeliveryNoteRepository = (*GormDeliveryNoteRepository)(nil)
