package models

import (
	"encoding/json"
	"time"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrorLogModel is one operator-facing error log entry.
type ErrorLogModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title         string    `gorm:"type:varchar(200);not null"`
	Message       string    `gorm:"type:text;not null;default:''"`
	ReferenceType string    `gorm:"type:varchar(40);not null;default:'';index:idx_error_logs_reference,priority:1"`
	ReferenceName string    `gorm:"type:varchar(140);not null;default:'';index:idx_error_logs_reference,priority:2"`
	Fields        string    `gorm:"type:text;not null;default:'{}'"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ErrorLogModel) TableName() string {
	return "error_logs"
}

// ErrorLogModelFromEntry creates a new row from an error entry
func ErrorLogModelFromEntry(entry shared.ErrorEntry, now time.Time) *ErrorLogModel {
	fields := "{}"
	if len(entry.Fields) > 0 {
		if b, err := json.Marshal(entry.Fields); err == nil {
			fields = string(b)
		}
	}
	return &ErrorLogModel{
		ID:            uuid.New(),
		Title:         entry.Title,
		Message:       entry.Message,
		ReferenceType: entry.ReferenceType,
		ReferenceName: entry.ReferenceName,
		Fields:        fields,
		CreatedAt:     now,
	}
}

// ToEntry converts the row back to an error entry
func (m *ErrorLogModel) ToEntry() shared.ErrorEntry {
	entry := shared.ErrorEntry{
		Title:         m.Title,
		Message:       m.Message,
		ReferenceType: m.ReferenceType,
		ReferenceName: m.ReferenceName,
	}
	if m.Fields != "" && m.Fields != "{}" {
		_ = json.Unmarshal([]byte(m.Fields), &entry.Fields)
	}
	return entry
}
