package models

import (
	"github.com/captech/portal/internal/domain/partner"
)

// CustomerModel maps the customers table
type CustomerModel struct {
	CompanyAggregateModel
	Name           string `gorm:"not null;index"`
	Email          string
	BillingAddress string
	VATNumber      string `gorm:"column:vat_number"`
}

// TableName returns the table name
func (CustomerModel) TableName() string { return "customers" }

// ToDomain converts the model to the domain aggregate
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		CompanyAggregateRoot: m.ToDomainCompanyAggregateRoot(),
		Name:                 m.Name,
		Email:                m.Email,
		BillingAddress:       m.BillingAddress,
		VATNumber:            m.VATNumber,
	}
}

// FromDomain populates the model from the domain aggregate
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainCompanyAggregateRoot(c.CompanyAggregateRoot)
	m.Name = c.Name
	m.Email = c.Email
	m.BillingAddress = c.BillingAddress
	m.VATNumber = c.VATNumber
}
