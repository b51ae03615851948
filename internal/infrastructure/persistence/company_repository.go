package persistence

import (
	"context"
	"errors"

	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCompanyRepository implements identity.CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Create creates a new company
func (r *GormCompanyRepository) Create(ctx context.Context, company *identity.Company) error {
	model := models.CompanyModelFromDomain(company)
	return r.db.WithContext(ctx).Create(model).Error
}

// CreateWithAdmin persists the company and its bootstrap admin in one
// transaction so signup can never leave an adminless company behind.
func (r *GormCompanyRepository) CreateWithAdmin(ctx context.Context, company *identity.Company, admin *identity.User) error {
	companyModel := models.CompanyModelFromDomain(company)
	adminModel := models.UserModelFromDomain(admin)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(companyModel).Error; err != nil {
			return err
		}
		return tx.Create(adminModel).Error
	})
}

// Update updates an existing company
func (r *GormCompanyRepository) Update(ctx context.Context, company *identity.Company) error {
	model := models.CompanyModelFromDomain(company)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns all companies with pagination (operator use)
func (r *GormCompanyRepository) FindAll(ctx context.Context, page, pageSize int) ([]*identity.Company, int64, error) {
	var companyModels []*models.CompanyModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.CompanyModel{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&companyModels).Error; err != nil {
		return nil, 0, err
	}

	companies := make([]*identity.Company, len(companyModels))
	for i, model := range companyModels {
		companies[i] = model.ToDomain()
	}
	return companies, total, nil
}

// ActiveCurrencyCodes returns the distinct base currencies of active companies
func (r *GormCompanyRepository) ActiveCurrencyCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&models.CompanyModel{}).
		Where("status = ?", string(identity.CompanyStatusActive)).
		Distinct().
		Order("currency_code ASC").
		Pluck("currency_code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// Ensure GormCompanyRepository implements CompanyRepository
var _ identity.CompanyRepository = (*GormCompanyRepository)(nil)
