package model

// PartyKind separates customers from suppliers in the shared table
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartySupplier PartyKind = "supplier"
)

// Party is a customer or supplier of a company
type Party struct {
	TenantModel
	Kind     PartyKind `gorm:"type:varchar(10);not null;index" json:"kind"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Document string    `gorm:"type:varchar(20)" json:"document"`
	Email    string    `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
	Phone    string    `gorm:"type:varchar(20)" json:"phone"`
	Note     string    `gorm:"type:text" json:"note,omitempty"`
}

func (Party) TableName() string {
	return "parties"
}
