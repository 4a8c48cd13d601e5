package repository

import (
	"time"

	"go-cashbook-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Deal is a sale or a purchase row
type Deal interface {
	model.Sale | model.Purchase
}

// DealFilter narrows FindAll; zero fields are ignored
type DealFilter struct {
	PartyID *uuid.UUID
	From    *time.Time
	To      *time.Time
}

type DealRepository[T Deal] interface {
	WithTx(tx *gorm.DB) DealRepository[T]
	Create(deal *T) error
	Update(deal *T) error
	FindAll(companyID uuid.UUID, f DealFilter) ([]T, error)
	FindByID(companyID, id uuid.UUID) (*T, error)
	Delete(companyID, id uuid.UUID, deletedBy string) error
}

type dealRepo[T Deal] struct {
	db          *gorm.DB
	party       string // association preloaded with the deal
	partyColumn string
}

func NewSaleRepo(db *gorm.DB) DealRepository[model.Sale] {
	return &dealRepo[model.Sale]{db: db, party: "Customer", partyColumn: "customer_id"}
}

func NewPurchaseRepo(db *gorm.DB) DealRepository[model.Purchase] {
	return &dealRepo[model.Purchase]{db: db, party: "Supplier", partyColumn: "supplier_id"}
}

func (r *dealRepo[T]) WithTx(tx *gorm.DB) DealRepository[T] {
	return &dealRepo[T]{db: tx, party: r.party, partyColumn: r.partyColumn}
}

func (r *dealRepo[T]) Create(deal *T) error {
	return r.db.Omit(clause.Associations).Create(deal).Error
}

func (r *dealRepo[T]) Update(deal *T) error {
	return r.db.Omit(clause.Associations).Save(deal).Error
}

func (r *dealRepo[T]) FindAll(companyID uuid.UUID, f DealFilter) ([]T, error) {
	var deals []T
	q := r.db.Preload(r.party).Where("company_id = ?", companyID)
	if f.PartyID != nil {
		q = q.Where(r.partyColumn+" = ?", *f.PartyID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	err := q.Order("date DESC, created_at DESC").Find(&deals).Error
	return deals, err
}

func (r *dealRepo[T]) FindByID(companyID, id uuid.UUID) (*T, error) {
	var deal T
	if err := r.db.Preload(r.party).First(&deal, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *dealRepo[T]) Delete(companyID, id uuid.UUID, deletedBy string) error {
	res := r.db.Model(new(T)).Where("id = ? AND company_id = ?", id, companyID).Update("deleted_by", deletedBy)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.db.Where("id = ? AND company_id = ?", id, companyID).Delete(new(T)).Error
}
