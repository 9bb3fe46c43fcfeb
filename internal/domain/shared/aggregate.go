package shared

import (
	"time"

	"github.com/google/uuid"
)

// AggregateRoot is what the event-publishing infrastructure needs from
// any aggregate: identity, optimistic-lock version and pending events.
type AggregateRoot interface {
	GetID() uuid.UUID
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot carries the identity, timestamps, version and event
// buffer shared by every aggregate in the portal. Aggregates embed it
// directly; there is no separate entity layer because nothing in this
// domain is persisted outside an aggregate.
type BaseAggregateRoot struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int
	domainEvents []DomainEvent
}

// GetID returns the aggregate ID
func (a *BaseAggregateRoot) GetID() uuid.UUID {
	return a.ID
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new aggregate root with a generated ID
// and version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now()
	return BaseAggregateRoot{
		ID:           uuid.New(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// CompanyAggregateRoot extends BaseAggregateRoot with company scoping.
// Every aggregate in the portal belongs to exactly one company.
type CompanyAggregateRoot struct {
	BaseAggregateRoot
	CompanyID uuid.UUID
}

// GetCompanyID returns the owning company ID
func (a *CompanyAggregateRoot) GetCompanyID() uuid.UUID {
	return a.CompanyID
}

// NewCompanyAggregateRoot creates a new company-scoped aggregate root
func NewCompanyAggregateRoot(companyID uuid.UUID) CompanyAggregateRoot {
	return CompanyAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		CompanyID:         companyID,
	}
}
