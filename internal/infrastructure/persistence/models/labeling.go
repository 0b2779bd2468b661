package models

import (
	"time"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
)

// SequencingLabelModel is the persistence model for the SequencingLabel entity.
// barcode + item_code is indexed but deliberately not unique: duplicates exist
// in the field and are reconciled by the duplicate resolver.
type SequencingLabelModel struct {
	DocumentModel
	Barcode      string               `gorm:"type:varchar(140);not null;index:idx_sequencing_labels_key,priority:1"`
	ItemCode     string               `gorm:"type:varchar(140);not null;index:idx_sequencing_labels_key,priority:2"`
	Status       labeling.LabelStatus `gorm:"type:varchar(20);not null;default:'unused';index"`
	Customer     string               `gorm:"type:varchar(140);not null;default:''"`
	SalesOrder   string               `gorm:"type:varchar(140);not null;default:''"`
	Contact      string               `gorm:"type:varchar(140);not null;default:''"`
	RegisteredTo string               `gorm:"type:varchar(140);not null;default:''"`
	Registered   bool                 `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (SequencingLabelModel) TableName() string {
	return "sequencing_labels"
}

// ToDomain converts the persistence model to a domain SequencingLabel entity.
func (m *SequencingLabelModel) ToDomain() *labeling.SequencingLabel {
	return &labeling.SequencingLabel{
		BaseEntity:   m.DocumentModel.ToDomain(),
		Barcode:      m.Barcode,
		ItemCode:     m.ItemCode,
		Status:       m.Status,
		Customer:     m.Customer,
		SalesOrder:   m.SalesOrder,
		Contact:      m.Contact,
		RegisteredTo: m.RegisteredTo,
		Registered:   m.Registered,
	}
}

// FromDomain populates the persistence model from a domain SequencingLabel entity.
func (m *SequencingLabelModel) FromDomain(l *labeling.SequencingLabel) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.Barcode = l.Barcode
	m.ItemCode = l.ItemCode
	m.Status = l.Status
	m.Customer = l.Customer
	m.SalesOrder = l.SalesOrder
	m.Contact = l.Contact
	m.RegisteredTo = l.RegisteredTo
	m.Registered = l.Registered
}

// SequencingLabelModelFromDomain creates a new persistence model from a domain label.
func SequencingLabelModelFromDomain(l *labeling.SequencingLabel) *SequencingLabelModel {
	m := &SequencingLabelModel{}
	m.FromDomain(l)
	return m
}

// SampleModel is the persistence model for the Sample entity.
type SampleModel struct {
	DocumentModel
	WebID           string `gorm:"type:varchar(140);not null;default:''"`
	SequencingLabel string `gorm:"type:varchar(140);not null;default:'';index"`
}

// TableName returns the table name for GORM
func (SampleModel) TableName() string {
	return "samples"
}

// ToDomain converts the persistence model to a domain Sample entity.
func (m *SampleModel) ToDomain() *labeling.Sample {
	return &labeling.Sample{
		BaseEntity:      m.DocumentModel.ToDomain(),
		WebID:           m.WebID,
		SequencingLabel: m.SequencingLabel,
	}
}

// FromDomain populates the persistence model from a domain Sample entity.
func (m *SampleModel) FromDomain(s *labeling.Sample) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.WebID = s.WebID
	m.SequencingLabel = s.SequencingLabel
}

// SampleLinkModel joins a sample to a sales order or delivery note.
type SampleLinkModel struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Parent     string `gorm:"type:varchar(140);not null;index:idx_sample_links_parent,priority:1"`
	ParentType string `gorm:"type:varchar(40);not null;index:idx_sample_links_parent,priority:2"`
	Idx        int    `gorm:"not null;default:0"`
	Sample     string `gorm:"type:varchar(140);not null;index"`
}

// TableName returns the table name for GORM
func (SampleLinkModel) TableName() string {
	return "sample_links"
}

// ToDomain converts the persistence model to a domain SampleLink.
func (m *SampleLinkModel) ToDomain() labeling.SampleLink {
	return labeling.SampleLink{Parent: m.Parent, ParentType: m.ParentType, Sample: m.Sample}
}

// SampleLinkModels builds the link rows of a parent document in order.
func SampleLinkModels(parent, parentType string, samples []string) []SampleLinkModel {
	links := make([]SampleLinkModel, len(samples))
	for i, s := range samples {
		links[i] = SampleLinkModel{Parent: parent, ParentType: parentType, Idx: i + 1, Sample: s}
	}
	return links
}

// SampleLabelRow is the scan target of the sample/label join used by the
// completion tracker and the submission gate.
type SampleLabelRow struct {
	Sample    string
	WebID     string
	LabelName string
	Barcode   *string
	Status    *string
}

// ToDomain converts the row to a SampleLabelState. A missing label record
// leaves LabelStatus nil.
func (r SampleLabelRow) ToDomain() labeling.SampleLabelState {
	st := labeling.SampleLabelState{
		Sample:    r.Sample,
		WebID:     r.WebID,
		LabelName: r.LabelName,
	}
	if r.Barcode != nil {
		st.Barcode = *r.Barcode
	}
	if r.Status != nil {
		status := labeling.LabelStatus(*r.Status)
		st.LabelStatus = &status
	}
	return st
}

// SampleUsageRow is the scan target of the barcode usage query.
type SampleUsageRow struct {
	Sample    string
	WebID     string
	LabelName string
	Barcode   string
	Creation  time.Time
}

// OrderUsageRow is the scan target of the open order usage query.
type OrderUsageRow struct {
	SalesOrder string
	DocStatus  int
	Sample     string
}

// ToDomain converts the row to an OrderUsage.
func (r OrderUsageRow) ToDomain() labeling.OrderUsage {
	return labeling.OrderUsage{SalesOrder: r.SalesOrder, DocStatus: shared.DocStatus(r.DocStatus), Sample: r.Sample}
}
