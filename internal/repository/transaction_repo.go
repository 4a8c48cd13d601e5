package repository

import (
	"errors"
	"time"

	"go-cashbook-api/internal/installment"
	"go-cashbook-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleVersion means the row changed between read and write
var ErrStaleVersion = errors.New("transaction was modified concurrently")

// ErrGroupPaid means an installment of the group carries a payment
var ErrGroupPaid = errors.New("installment group has payments")

var settledStatuses = []installment.Status{installment.StatusCompleted, installment.StatusPaidLegacy}

type TransactionRepository interface {
	WithTx(tx *gorm.DB) TransactionRepository
	Create(t *model.Transaction) error
	CreateBatch(ts []model.Transaction) error
	FindAll(companyID uuid.UUID, f TransactionFilter) ([]model.Transaction, error)
	FindByID(companyID, id uuid.UUID) (*model.Transaction, error)
	FindByIDForUpdate(companyID, id uuid.UUID) (*model.Transaction, error)
	FindByGroup(companyID, group uuid.UUID) ([]model.Transaction, error)
	FindByGroupForUpdate(companyID, group uuid.UUID) ([]model.Transaction, error)
	Update(t *model.Transaction) error
	SavePaymentState(t *model.Transaction, expectedVersion int) error
	UpdateDueDate(t *model.Transaction, date time.Time, expectedVersion int) error
	Delete(companyID, id uuid.UUID, deletedBy string) error
	DeleteGroup(companyID, group uuid.UUID, deletedBy string) error
	AddPayment(entry *model.PaymentEntry) error
	DeletePayments(companyID, transactionID uuid.UUID) error
	CountPaymentsInGroup(companyID, group uuid.UUID) (int64, error)
	GetSummary(companyID uuid.UUID, from, to, today time.Time) (*Summary, error)
	GetPaymentFlows(companyID uuid.UUID, from, to time.Time) ([]PaymentFlow, error)
}

// TransactionFilter narrows FindAll; zero fields are ignored
type TransactionFilter struct {
	Status     installment.Status
	Kind       model.TransactionKind
	From       *time.Time
	To         *time.Time
	CustomerID *uuid.UUID
	SupplierID *uuid.UUID
	CategoryID *uuid.UUID
	OpenOnly   bool
	Limit      int
	Offset     int
}

// Summary is the dashboard overview for a period
type Summary struct {
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	Received     decimal.Decimal `json:"received"`
	PaidOut      decimal.Decimal `json:"paid_out"`
	Receivables  decimal.Decimal `json:"receivables"`
	Payables     decimal.Decimal `json:"payables"`
	OverdueCount int64           `json:"overdue_count"`
}

// PaymentFlow is one payment entry with the kind of its transaction
type PaymentFlow struct {
	PaymentDate time.Time
	Amount      decimal.Decimal
	Interest    decimal.Decimal
	Kind        model.TransactionKind
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepo{tx}
}

func (r *transactionRepo) Create(t *model.Transaction) error {
	return r.db.Create(t).Error
}

func (r *transactionRepo) CreateBatch(ts []model.Transaction) error {
	if len(ts) == 0 {
		return nil
	}
	return r.db.Omit(clause.Associations).Create(&ts).Error
}

func (r *transactionRepo) FindAll(companyID uuid.UUID, f TransactionFilter) ([]model.Transaction, error) {
	var transactions []model.Transaction

	q := r.db.Preload("Category").Preload("Customer").Preload("Supplier").
		Where("company_id = ?", companyID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.OpenOnly {
		q = q.Where("status NOT IN ?", settledStatuses)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.SupplierID != nil {
		q = q.Where("supplier_id = ?", *f.SupplierID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	err := q.Order("date ASC, installment_number ASC").Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByID(companyID, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := r.db.Preload("Category").Preload("Customer").Preload("Supplier").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date ASC, created_at ASC") }).
		First(&t, "id = ? AND company_id = ?", id, companyID).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
// Use it through WithTx.
func (r *transactionRepo) FindByIDForUpdate(companyID, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&t, "id = ? AND company_id = ?", id, companyID).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepo) FindByGroup(companyID, group uuid.UUID) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.Where("company_id = ? AND installment_group = ?", companyID, group).
		Order("installment_number ASC").
		Find(&transactions).Error
	return transactions, err
}

// FindByGroupForUpdate locks every installment of the group until the
// surrounding transaction ends
func (r *transactionRepo) FindByGroupForUpdate(companyID, group uuid.UUID) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND installment_group = ?", companyID, group).
		Order("installment_number ASC").
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) Update(t *model.Transaction) error {
	return r.db.Omit(clause.Associations).Save(t).Error
}

// SavePaymentState writes the payment columns only if the row still carries
// expectedVersion, and bumps the version
func (r *transactionRepo) SavePaymentState(t *model.Transaction, expectedVersion int) error {
	res := r.db.Model(&model.Transaction{}).
		Where("id = ? AND company_id = ? AND version = ?", t.ID, t.CompanyID, expectedVersion).
		Updates(map[string]interface{}{
			"status":         t.Status,
			"paid_amount":    t.PaidAmount,
			"interest":       t.Interest,
			"payment_date":   t.PaymentDate,
			"has_card_fee":   t.HasCardFee,
			"card_fee":       t.CardFee,
			"payment_method": t.PaymentMethod,
			"updated_by":     t.UpdatedBy,
			"version":        expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	t.Version = expectedVersion + 1
	return nil
}

// UpdateDueDate moves an unpaid row, guarded by version like SavePaymentState
func (r *transactionRepo) UpdateDueDate(t *model.Transaction, date time.Time, expectedVersion int) error {
	res := r.db.Model(&model.Transaction{}).
		Where("id = ? AND company_id = ? AND version = ?", t.ID, t.CompanyID, expectedVersion).
		Where("status = ?", installment.StatusPending).
		Updates(map[string]interface{}{
			"date":            date,
			"custom_due_date": t.CustomDueDate,
			"updated_by":      t.UpdatedBy,
			"version":         expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	t.Date = date
	t.Version = expectedVersion + 1
	return nil
}

func (r *transactionRepo) Delete(companyID, id uuid.UUID, deletedBy string) error {
	res := r.db.Model(&model.Transaction{}).Where("id = ? AND company_id = ?", id, companyID).Update("deleted_by", deletedBy)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.db.Delete(&model.Transaction{}, "id = ? AND company_id = ?", id, companyID).Error
}

// DeleteGroup soft-deletes the whole group, but only while no row has been
// paid. If any row carries a payment it returns ErrGroupPaid, and the
// caller's db transaction must roll the partial write back.
func (r *transactionRepo) DeleteGroup(companyID, group uuid.UUID, deletedBy string) error {
	inGroup := func() *gorm.DB {
		return r.db.Model(&model.Transaction{}).Where("company_id = ? AND installment_group = ?", companyID, group)
	}

	var total int64
	if err := inGroup().Count(&total).Error; err != nil {
		return err
	}
	res := inGroup().
		Where("status = ? AND paid_amount = 0", installment.StatusPending).
		Update("deleted_by", deletedBy)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < total {
		return ErrGroupPaid
	}
	return inGroup().Delete(&model.Transaction{}).Error
}

func (r *transactionRepo) AddPayment(entry *model.PaymentEntry) error {
	return r.db.Create(entry).Error
}

func (r *transactionRepo) DeletePayments(companyID, transactionID uuid.UUID) error {
	return r.db.Unscoped().
		Where("company_id = ? AND transaction_id = ?", companyID, transactionID).
		Delete(&model.PaymentEntry{}).Error
}

func (r *transactionRepo) CountPaymentsInGroup(companyID, group uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.PaymentEntry{}).
		Joins("JOIN transactions ON transactions.id = payment_entries.transaction_id").
		Where("payment_entries.company_id = ? AND transactions.installment_group = ?", companyID, group).
		Where("transactions.deleted_at IS NULL").
		Count(&count).Error
	return count, err
}

func (r *transactionRepo) GetSummary(companyID uuid.UUID, from, to, today time.Time) (*Summary, error) {
	var stats Summary
	base := func() *gorm.DB {
		return r.db.Model(&model.Transaction{}).Where("company_id = ?", companyID)
	}

	// Booked in the period, by due date
	var booked struct {
		Income  decimal.Decimal
		Expense decimal.Decimal
	}
	err := base().
		Select(`
			COALESCE(SUM(CASE WHEN kind = 'income' THEN amount ELSE 0 END), 0) AS income,
			COALESCE(SUM(CASE WHEN kind = 'expense' THEN -amount ELSE 0 END), 0) AS expense
		`).
		Where("date BETWEEN ? AND ?", from, to).
		Scan(&booked).Error
	if err != nil {
		return nil, err
	}
	stats.Income, stats.Expense = booked.Income, booked.Expense

	// Cash that actually moved in the period
	var moved struct {
		Received decimal.Decimal
		PaidOut  decimal.Decimal
	}
	err = r.db.Model(&model.PaymentEntry{}).
		Joins("JOIN transactions ON transactions.id = payment_entries.transaction_id").
		Select(`
			COALESCE(SUM(CASE WHEN transactions.kind = 'income' THEN payment_entries.amount + payment_entries.interest ELSE 0 END), 0) AS received,
			COALESCE(SUM(CASE WHEN transactions.kind = 'expense' THEN payment_entries.amount + payment_entries.interest ELSE 0 END), 0) AS paid_out
		`).
		Where("payment_entries.company_id = ?", companyID).
		Where("transactions.deleted_at IS NULL").
		Where("payment_entries.payment_date BETWEEN ? AND ?", from, to).
		Scan(&moved).Error
	if err != nil {
		return nil, err
	}
	stats.Received, stats.PaidOut = moved.Received, moved.PaidOut

	// Still open, whatever the due date. Interest counts toward settlement,
	// as in installment.Ledger.Outstanding, and no row goes below zero.
	var open struct {
		Receivables decimal.Decimal
		Payables    decimal.Decimal
	}
	err = base().
		Select(`
			COALESCE(SUM(CASE
				WHEN kind = 'income' AND amount - paid_amount - interest > 0 THEN amount - paid_amount - interest
				ELSE 0 END), 0) AS receivables,
			COALESCE(SUM(CASE
				WHEN kind = 'expense' AND -amount - paid_amount - interest > 0 THEN -amount - paid_amount - interest
				ELSE 0 END), 0) AS payables
		`).
		Where("status NOT IN ?", settledStatuses).
		Scan(&open).Error
	if err != nil {
		return nil, err
	}
	stats.Receivables, stats.Payables = open.Receivables, open.Payables

	err = base().
		Where("status NOT IN ?", settledStatuses).
		Where("date < ?", today).
		Count(&stats.OverdueCount).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *transactionRepo) GetPaymentFlows(companyID uuid.UUID, from, to time.Time) ([]PaymentFlow, error) {
	var entries []model.PaymentEntry
	err := r.db.Where("company_id = ? AND payment_date BETWEEN ? AND ?", companyID, from, to).
		Order("payment_date ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.TransactionID)
	}
	var owners []model.Transaction
	if err := r.db.Select("id", "kind").Where("id IN ?", ids).Find(&owners).Error; err != nil {
		return nil, err
	}
	kinds := make(map[uuid.UUID]model.TransactionKind, len(owners))
	for _, o := range owners {
		kinds[o.ID] = o.Kind
	}

	flows := make([]PaymentFlow, 0, len(entries))
	for _, e := range entries {
		kind, ok := kinds[e.TransactionID]
		if !ok {
			continue // owner was deleted
		}
		flows = append(flows, PaymentFlow{
			PaymentDate: e.PaymentDate,
			Amount:      e.Amount,
			Interest:    e.Interest,
			Kind:        kind,
		})
	}
	return flows, nil
}
