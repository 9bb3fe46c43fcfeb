package models

import (
	"github.com/captech/portal/internal/domain/company"
	"github.com/captech/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CompanyModel maps the companies table
type CompanyModel struct {
	AggregateModel
	Name     string `gorm:"not null"`
	Email    string
	SIRET    string `gorm:"column:siret"`
	Currency string `gorm:"type:varchar(3);not null;default:'EUR'"`
}

// TableName returns the table name
func (CompanyModel) TableName() string { return "companies" }

// ToDomain converts the model to the domain aggregate
func (m *CompanyModel) ToDomain() *company.Company {
	return &company.Company{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Email:             m.Email,
		SIRET:             m.SIRET,
		Currency:          valueobject.Currency(m.Currency),
	}
}

// FromDomain populates the model from the domain aggregate
func (m *CompanyModel) FromDomain(c *company.Company) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Email = c.Email
	m.SIRET = c.SIRET
	m.Currency = string(c.Currency)
}

// TurnoverEntryModel maps the turnover_entries ledger table
type TurnoverEntryModel struct {
	CompanyAggregateModel
	Label  string
	Amount decimal.Decimal `gorm:"type:numeric(14,2);not null"`
}

// TableName returns the table name
func (TurnoverEntryModel) TableName() string { return "turnover_entries" }

// ToDomain converts the model to the domain aggregate
func (m *TurnoverEntryModel) ToDomain() *company.TurnoverEntry {
	return &company.TurnoverEntry{
		CompanyAggregateRoot: m.ToDomainCompanyAggregateRoot(),
		Label:                m.Label,
		Amount:               m.Amount,
	}
}

// FromDomain populates the model from the domain aggregate
func (m *TurnoverEntryModel) FromDomain(e *company.TurnoverEntry) {
	m.FromDomainCompanyAggregateRoot(e.CompanyAggregateRoot)
	m.Label = e.Label
	m.Amount = e.Amount
}
