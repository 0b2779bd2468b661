package persistence

import (
	"context"
	"time"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultErrorLogLimit = 100
	maxErrorLogLimit     = 500
)

// ErrorLogRecord is a stored error log entry with its id and timestamp
type ErrorLogRecord struct {
	ID        uuid.UUID         `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Entry     shared.ErrorEntry `json:"entry"`
}

// ErrorLogFilter narrows error log listings
type ErrorLogFilter struct {
	ReferenceType string
	ReferenceName string
	Since         time.Time
	Limit         int
	OrderBy       string
	OrderDir      string
}

// GormErrorLogRepository stores operator-facing error log entries
type GormErrorLogRepository struct {
	db *gorm.DB
}

// NewGormErrorLogRepository creates a new GormErrorLogRepository
func NewGormErrorLogRepository(db *gorm.DB) *GormErrorLogRepository {
	return &GormErrorLogRepository{db: db}
}

// Create inserts one entry
func (r *GormErrorLogRepository) Create(ctx context.Context, entry shared.ErrorEntry) error {
	return r.db.WithContext(ctx).Create(models.ErrorLogModelFromEntry(entry, time.Now())).Error
}

// List returns entries newest first unless the filter picks another order
func (r *GormErrorLogRepository) List(ctx context.Context, filter ErrorLogFilter) ([]ErrorLogRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.ErrorLogModel{})
	if filter.ReferenceType != "" {
		query = query.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.ReferenceName != "" {
		query = query.Where("reference_name = ?", filter.ReferenceName)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	limit := filter.Limit
	switch {
	case limit <= 0:
		limit = defaultErrorLogLimit
	case limit > maxErrorLogLimit:
		limit = maxErrorLogLimit
	}

	sortField := ValidateSortField(filter.OrderBy, ErrorLogSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.ErrorLogModel
	if err := query.Order(sortField + " " + sortOrder).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]ErrorLogRecord, len(rows))
	for i, row := range rows {
		records[i] = ErrorLogRecord{ID: row.ID, CreatedAt: row.CreatedAt, Entry: row.ToEntry()}
	}
	return records, nil
}
