package model

// Company is a tenant. Every business row hangs off one.
type Company struct {
	BaseModel
	Name     string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Document string `gorm:"type:varchar(20);index" json:"document"` // CNPJ or CPF, digits only
	Email    string `gorm:"type:varchar(255)" json:"email"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Subscription *Subscription `gorm:"foreignKey:CompanyID" json:"subscription,omitempty"`
}
