package repository

import (
	"go-cashbook-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(category *model.Category) error
	FindAll(companyID uuid.UUID, kind model.TransactionKind) ([]model.Category, error)
	FindByID(companyID, id uuid.UUID) (*model.Category, error)
	Delete(companyID, id uuid.UUID) error
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) Create(category *model.Category) error {
	return r.db.Create(category).Error
}

func (r *categoryRepo) FindAll(companyID uuid.UUID, kind model.TransactionKind) ([]model.Category, error) {
	var categories []model.Category
	q := r.db.Where("company_id = ?", companyID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) FindByID(companyID, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.First(&category, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) Delete(companyID, id uuid.UUID) error {
	res := r.db.Delete(&model.Category{}, "id = ? AND company_id = ?", id, companyID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
