package models

import (
	"time"

	"github.com/captech/portal/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel extends BaseModel with the version used for optimistic
// locking
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
}

// ToDomainAggregateRoot rebuilds a BaseAggregateRoot without pending events
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Version:   m.Version,
	}
}

// CompanyAggregateModel extends AggregateModel with the owning company
type CompanyAggregateModel struct {
	AggregateModel
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromDomainCompanyAggregateRoot populates the model from the domain root
func (m *CompanyAggregateModel) FromDomainCompanyAggregateRoot(a shared.CompanyAggregateRoot) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.CompanyID = a.CompanyID
}

// ToDomainCompanyAggregateRoot rebuilds the company-scoped root
func (m *CompanyAggregateModel) ToDomainCompanyAggregateRoot() shared.CompanyAggregateRoot {
	return shared.CompanyAggregateRoot{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CompanyID:         m.CompanyID,
	}
}
