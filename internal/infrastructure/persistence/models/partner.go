package models

import (
	"github.com/erp/labtrack/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer entity.
type CustomerModel struct {
	DocumentModel
	CustomerName string `gorm:"type:varchar(200);not null;default:''"`
	Disabled     bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseEntity:   m.DocumentModel.ToDomain(),
		CustomerName: m.CustomerName,
		Disabled:     m.Disabled,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.CustomerName = c.CustomerName
	m.Disabled = c.Disabled
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
