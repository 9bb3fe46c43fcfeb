package persistence

import (
	"context"
	"errors"

	"github.com/captech/portal/internal/domain/company"
	"github.com/captech/portal/internal/domain/shared"
	"github.com/captech/portal/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCompanyRepository implements company.Repository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID finds a company by its ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the company
func (r *GormCompanyRepository) Save(ctx context.Context, c *company.Company) error {
	var model models.CompanyModel
	model.FromDomain(c)
	return r.db.WithContext(ctx).Save(&model).Error
}

var _ company.Repository = (*GormCompanyRepository)(nil)

// GormTurnoverEntryRepository implements company.TurnoverEntryRepository
// using GORM. The sum query runs in the database; entries are never
// loaded into memory for the dashboard.
type GormTurnoverEntryRepository struct {
	db *gorm.DB
}

// NewGormTurnoverEntryRepository creates a new GormTurnoverEntryRepository
func NewGormTurnoverEntryRepository(db *gorm.DB) *GormTurnoverEntryRepository {
	return &GormTurnoverEntryRepository{db: db}
}

// Save upserts the ledger entry
func (r *GormTurnoverEntryRepository) Save(ctx context.Context, entry *company.TurnoverEntry) error {
	var model models.TurnoverEntryModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SumForCompany returns the signed sum of all entry amounts for the
// company. COALESCE maps an empty ledger to zero instead of NULL.
func (r *GormTurnoverEntryRepository) SumForCompany(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.TurnoverEntryModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("company_id = ?", companyID).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

var _ company.TurnoverEntryRepository = (*GormTurnoverEntryRepository)(nil)
