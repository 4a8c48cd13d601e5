package repository

import (
	"go-cashbook-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartyRepository stores customers and suppliers of one kind
type PartyRepository interface {
	Create(party *model.Party) error
	Update(party *model.Party) error
	FindAll(companyID uuid.UUID, search string) ([]model.Party, error)
	FindByID(companyID, id uuid.UUID) (*model.Party, error)
	Delete(companyID, id uuid.UUID, deletedBy string) error
}

type partyRepo struct {
	db   *gorm.DB
	kind model.PartyKind
}

func NewCustomerRepo(db *gorm.DB) PartyRepository {
	return &partyRepo{db: db, kind: model.PartyCustomer}
}

func NewSupplierRepo(db *gorm.DB) PartyRepository {
	return &partyRepo{db: db, kind: model.PartySupplier}
}

func (r *partyRepo) scoped(companyID uuid.UUID) *gorm.DB {
	return r.db.Where("company_id = ? AND kind = ?", companyID, r.kind)
}

func (r *partyRepo) Create(party *model.Party) error {
	party.Kind = r.kind
	return r.db.Create(party).Error
}

func (r *partyRepo) Update(party *model.Party) error {
	party.Kind = r.kind
	return r.db.Save(party).Error
}

func (r *partyRepo) FindAll(companyID uuid.UUID, search string) ([]model.Party, error) {
	var parties []model.Party
	q := r.scoped(companyID)
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("(LOWER(name) LIKE LOWER(?) OR document LIKE ?)", like, like)
	}
	err := q.Order("name ASC").Find(&parties).Error
	return parties, err
}

func (r *partyRepo) FindByID(companyID, id uuid.UUID) (*model.Party, error) {
	var party model.Party
	if err := r.scoped(companyID).First(&party, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *partyRepo) Delete(companyID, id uuid.UUID, deletedBy string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Party{}).
			Where("id = ? AND company_id = ? AND kind = ?", id, companyID, r.kind).
			Update("deleted_by", deletedBy)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&model.Party{}, "id = ?", id).Error
	})
}
