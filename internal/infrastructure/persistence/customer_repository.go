package persistence

import (
	"context"
	"errors"

	"github.com/captech/portal/internal/domain/partner"
	"github.com/captech/portal/internal/domain/shared"
	"github.com/captech/portal/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements partner.Repository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindForCompany returns all customers of a company ordered by name
func (r *GormCustomerRepository) FindForCompany(ctx context.Context, companyID uuid.UUID) ([]partner.Customer, error) {
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	customers := make([]partner.Customer, 0, len(rows))
	for i := range rows {
		customers = append(customers, *rows[i].ToDomain())
	}
	return customers, nil
}

// Save upserts the customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	var model models.CustomerModel
	model.FromDomain(customer)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Delete removes the customer
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.CustomerModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListNames implements the dashboard customer directory
func (r *GormCustomerRepository) ListNames(ctx context.Context, companyID uuid.UUID) (map[uuid.UUID]string, error) {
	type row struct {
		ID   uuid.UUID
		Name string
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Select("id", "name").
		Where("company_id = ?", companyID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(rows))
	for _, r := range rows {
		names[r.ID] = r.Name
	}
	return names, nil
}

var _ partner.Repository = (*GormCustomerRepository)(nil)
