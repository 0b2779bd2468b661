package persistence

import (
	"github.com/erp/labtrack/internal/domain/trade"
	"gorm.io/gorm"
)

// afterCursor restricts query to rows strictly after cursor in (column, nameColumn)
// order. Both columns come from code, never from request input.
func afterCursor(query *gorm.DB, column, nameColumn string, cursor trade.PageCursor) *gorm.DB {
	if cursor.IsZero() {
		return query
	}
	return query.Where("("+column+" > ? OR ("+column+" = ? AND "+nameColumn+" > ?))",
		cursor.At, cursor.At, cursor.Name)
}
