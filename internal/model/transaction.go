package model

import (
	"time"

	"go-cashbook-api/internal/installment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// Sign returns +1 for income and -1 for expense
func (k TransactionKind) Sign() decimal.Decimal {
	if k == KindExpense {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Transaction is one ledger row: an installment of a sale or purchase, or an
// ad-hoc entry. Amount is signed (income positive, expense negative).
type Transaction struct {
	TenantModel
	Kind        TransactionKind    `gorm:"type:varchar(10);not null;index" json:"kind"`
	Description string             `gorm:"type:varchar(255)" json:"description"`
	Amount      decimal.Decimal    `gorm:"type:numeric(15,2);not null" json:"amount"`
	Date        time.Time          `gorm:"type:date;not null;index" json:"date"` // due date
	PaymentDate *time.Time         `gorm:"type:date" json:"payment_date"`
	Status      installment.Status `gorm:"type:varchar(12);not null;default:'pendente';index" json:"status"`

	PaidAmount    decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"paid_amount"`
	Interest      decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"interest"`
	HasCardFee    bool            `gorm:"default:false" json:"has_card_fee"`
	CardFee       decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"card_fee"`
	PaymentMethod string          `gorm:"type:varchar(20)" json:"payment_method"`

	// Set when the user picked the due date instead of the monthly rule;
	// rescheduling and the repair command leave such rows alone
	CustomDueDate bool `gorm:"not null;default:false" json:"custom_due_date"`

	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer   *Party     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	SupplierID *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Supplier   *Party     `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`

	// Installment correlation; number is 1-indexed and unique per group
	InstallmentGroup  *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_group_number" json:"installment_group,omitempty"`
	InstallmentNumber int        `gorm:"uniqueIndex:idx_group_number" json:"installment_number,omitempty"`
	InstallmentTotal  int        `json:"installment_total,omitempty"`

	// Bumped on every payment change; payment updates are conditional on it
	Version int `gorm:"not null;default:1" json:"version"`

	Payments []PaymentEntry `gorm:"foreignKey:TransactionID" json:"payments,omitempty"`
}

// Ledger extracts the payment state handled by the installment package
func (t *Transaction) Ledger() installment.Ledger {
	return installment.Ledger{
		Amount:      t.Amount,
		Status:      t.Status,
		PaidAmount:  t.PaidAmount,
		Interest:    t.Interest,
		PaymentDate: t.PaymentDate,
		HasCardFee:  t.HasCardFee,
		CardFee:     t.CardFee,
	}
}

// ApplyLedger copies l back onto t
func (t *Transaction) ApplyLedger(l installment.Ledger) {
	t.Status = l.Status
	t.PaidAmount = l.PaidAmount
	t.Interest = l.Interest
	t.PaymentDate = l.PaymentDate
	t.HasCardFee = l.HasCardFee
	t.CardFee = l.CardFee
}

// IsInstallment reports whether t belongs to a sale or purchase
func (t *Transaction) IsInstallment() bool {
	return t.InstallmentGroup != nil
}

// Overdue reports whether t is unsettled and its due date is before today
func (t *Transaction) Overdue(today time.Time) bool {
	return !t.Status.Settled() && t.Date.Before(today)
}

// PaymentEntry is one confirmed payment against a Transaction. Cancelling
// the payment deletes the entries.
type PaymentEntry struct {
	TenantModel
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Interest      decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"interest"`
	PaymentDate   time.Time       `gorm:"type:date;not null" json:"payment_date"`
	PaymentMethod string          `gorm:"type:varchar(20)" json:"payment_method"`
}
