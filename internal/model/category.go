package model

// Category groups transactions for reports
type Category struct {
	TenantModel
	Name string          `gorm:"type:varchar(100);not null" json:"name" validate:"required"`
	Kind TransactionKind `gorm:"type:varchar(10);not null" json:"kind" validate:"required,oneof=income expense"`
}
