package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deal carries what a sale and a purchase have in common. Its installments
// are the Transaction rows sharing InstallmentGroup.
type Deal struct {
	Description      string          `gorm:"type:varchar(255)" json:"description"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"total_amount"`
	Date             time.Time       `gorm:"type:date;not null;index" json:"date"`
	InstallmentCount int             `gorm:"not null" json:"installment_count"`
	InstallmentGroup uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"installment_group"`
	PaymentMethod    string          `gorm:"type:varchar(20)" json:"payment_method"`
	CategoryID       *uuid.UUID      `gorm:"type:uuid" json:"category_id,omitempty"`

	Installments []Transaction `gorm:"-" json:"installments,omitempty"`
}

type Sale struct {
	TenantModel
	Deal
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer   *Party     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

type Purchase struct {
	TenantModel
	Deal
	SupplierID *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Supplier   *Party     `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}
