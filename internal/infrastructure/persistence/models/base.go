package models

import (
	"time"

	"github.com/erp/labtrack/internal/domain/shared"
)

// DocumentModel provides the common persistence fields of named ERP records.
// It maps to the domain's BaseEntity.
type DocumentModel struct {
	Name      string    `gorm:"type:varchar(140);primaryKey"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts DocumentModel to domain BaseEntity
func (m *DocumentModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates DocumentModel from domain BaseEntity
func (m *DocumentModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.Name = e.Name
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}
