// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Records are keyed by their ERP document name, not by surrogate ids. Child rows
// (order items, note items, sample links) carry the parent name and a row index.
//
// Structure:
// - base.go: DocumentModel shared by every named record
// - labeling.go: sequencing labels, samples, sample links
// - trade.go: sales orders, delivery notes, naming series counters
// - partner.go: customers
// - error_log.go: operator-facing error log
// - registry.go: model list for AutoMigrate
package models
