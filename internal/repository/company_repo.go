package repository

import (
	"go-cashbook-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	WithTx(tx *gorm.DB) CompanyRepository
	Create(company *model.Company) error
	FindByID(id uuid.UUID) (*model.Company, error)
	FindAll() ([]model.Company, error)
	SetActive(id uuid.UUID, active bool, updatedBy string) error
}

type companyRepo struct {
	db *gorm.DB
}

func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db}
}

func (r *companyRepo) WithTx(tx *gorm.DB) CompanyRepository {
	return &companyRepo{tx}
}

func (r *companyRepo) Create(company *model.Company) error {
	return r.db.Create(company).Error
}

func (r *companyRepo) FindByID(id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := r.db.Preload("Subscription").First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepo) FindAll() ([]model.Company, error) {
	var companies []model.Company
	err := r.db.Preload("Subscription").Order("created_at DESC").Find(&companies).Error
	return companies, err
}

func (r *companyRepo) SetActive(id uuid.UUID, active bool, updatedBy string) error {
	res := r.db.Model(&model.Company{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_active":  active,
		"updated_by": updatedBy,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
