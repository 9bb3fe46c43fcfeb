package models

import (
	"time"

	"github.com/captech/portal/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel maps the invoices table
type InvoiceModel struct {
	CompanyAggregateModel
	Number     string     `gorm:"not null;index"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index"`
	IssueDate  time.Time  `gorm:"not null;index"`
	DueDate    *time.Time
	Status     string             `gorm:"type:varchar(16);not null;default:'DRAFT'"`
	Items      []InvoiceItemModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name
func (InvoiceModel) TableName() string { return "invoices" }

// InvoiceItemModel maps the invoice_items table. Quote items share the
// shape through DocumentKind so one table serves both document types.
type InvoiceItemModel struct {
	BaseModel
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	DocumentKind   string          `gorm:"type:varchar(8);not null;default:'invoice'"`
	Description    string          `gorm:"not null"`
	Quantity       decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	UnitPriceCents int64           `gorm:"not null"`
	VATRatePct     decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	DiscountPct    decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	Position       int             `gorm:"not null;default:0"`
}

// TableName returns the table name
func (InvoiceItemModel) TableName() string { return "invoice_items" }

// ToDomain converts the item model to the domain value
func (m *InvoiceItemModel) ToDomain() billing.InvoiceItem {
	return billing.InvoiceItem{
		ID:             m.ID,
		InvoiceID:      m.InvoiceID,
		Description:    m.Description,
		Quantity:       m.Quantity,
		UnitPriceCents: m.UnitPriceCents,
		VATRatePct:     m.VATRatePct,
		DiscountPct:    m.DiscountPct,
		Position:       m.Position,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func itemModelFrom(item billing.InvoiceItem, kind string) InvoiceItemModel {
	return InvoiceItemModel{
		BaseModel: BaseModel{
			ID:        item.ID,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		},
		InvoiceID:      item.InvoiceID,
		DocumentKind:   kind,
		Description:    item.Description,
		Quantity:       item.Quantity,
		UnitPriceCents: item.UnitPriceCents,
		VATRatePct:     item.VATRatePct,
		DiscountPct:    item.DiscountPct,
		Position:       item.Position,
	}
}

// ToDomain converts the model to the domain aggregate
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		CompanyAggregateRoot: m.ToDomainCompanyAggregateRoot(),
		Number:               m.Number,
		CustomerID:           m.CustomerID,
		IssueDate:            m.IssueDate,
		DueDate:              m.DueDate,
		Status:               billing.InvoiceStatus(m.Status),
	}
	inv.Items = make([]billing.InvoiceItem, 0, len(m.Items))
	for i := range m.Items {
		inv.Items = append(inv.Items, m.Items[i].ToDomain())
	}
	return inv
}

// FromDomain populates the model from the domain aggregate
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainCompanyAggregateRoot(inv.CompanyAggregateRoot)
	m.Number = inv.Number
	m.CustomerID = inv.CustomerID
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Status = inv.Status.String()
	m.Items = make([]InvoiceItemModel, 0, len(inv.Items))
	for _, item := range inv.Items {
		m.Items = append(m.Items, itemModelFrom(item, "invoice"))
	}
}

// QuoteModel maps the quotes table
type QuoteModel struct {
	CompanyAggregateModel
	Number     string     `gorm:"not null;index"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index"`
	IssueDate  time.Time  `gorm:"not null"`
	ValidUntil *time.Time
	FooterNote string
	Items      []InvoiceItemModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name
func (QuoteModel) TableName() string { return "quotes" }

// ToDomain converts the model to the domain aggregate
func (m *QuoteModel) ToDomain() *billing.Quote {
	quote := &billing.Quote{
		CompanyAggregateRoot: m.ToDomainCompanyAggregateRoot(),
		Number:               m.Number,
		CustomerID:           m.CustomerID,
		IssueDate:            m.IssueDate,
		ValidUntil:           m.ValidUntil,
		FooterNote:           m.FooterNote,
	}
	quote.Items = make([]billing.InvoiceItem, 0, len(m.Items))
	for i := range m.Items {
		quote.Items = append(quote.Items, m.Items[i].ToDomain())
	}
	return quote
}

// FromDomain populates the model from the domain aggregate
func (m *QuoteModel) FromDomain(q *billing.Quote) {
	m.FromDomainCompanyAggregateRoot(q.CompanyAggregateRoot)
	m.Number = q.Number
	m.CustomerID = q.CustomerID
	m.IssueDate = q.IssueDate
	m.ValidUntil = q.ValidUntil
	m.FooterNote = q.FooterNote
	m.Items = make([]InvoiceItemModel, 0, len(q.Items))
	for _, item := range q.Items {
		m.Items = append(m.Items, itemModelFrom(item, "quote"))
	}
}

// PaymentModel maps the payments table
type PaymentModel struct {
	CompanyAggregateModel
	InvoiceID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AmountCents int64     `gorm:"not null"`
	PaidAt      time.Time `gorm:"not null"`
}

// TableName returns the table name
func (PaymentModel) TableName() string { return "payments" }

// ToDomain converts the model to the domain aggregate
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		CompanyAggregateRoot: m.ToDomainCompanyAggregateRoot(),
		InvoiceID:            m.InvoiceID,
		AmountCents:          m.AmountCents,
		PaidAt:               m.PaidAt,
	}
}

// FromDomain populates the model from the domain aggregate
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainCompanyAggregateRoot(p.CompanyAggregateRoot)
	m.InvoiceID = p.InvoiceID
	m.AmountCents = p.AmountCents
	m.PaidAt = p.PaidAt
}
