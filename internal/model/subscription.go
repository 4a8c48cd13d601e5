package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// Subscription tracks a company's plan as reported by the payment gateway
type Subscription struct {
	BaseModel
	CompanyID        uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex" json:"company_id"`
	Plan             string             `gorm:"type:varchar(50);not null" json:"plan"`
	Price            decimal.Decimal    `gorm:"type:numeric(15,2);not null;default:0" json:"price"`
	Status           SubscriptionStatus `gorm:"type:varchar(12);not null;index" json:"status"`
	GatewayID        string             `gorm:"type:varchar(100);index" json:"gateway_id,omitempty"`
	TicketURL        string             `gorm:"type:text" json:"ticket_url,omitempty"` // boleto / PIX page
	CurrentPeriodEnd *time.Time         `json:"current_period_end,omitempty"`
}

// Usable reports whether the company may keep using the API
func (s *Subscription) Usable(now time.Time) bool {
	switch s.Status {
	case SubscriptionActive, SubscriptionPastDue:
		return s.CurrentPeriodEnd == nil || s.CurrentPeriodEnd.After(now)
	case SubscriptionPending:
		// trial window until the first gateway confirmation
		return s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.After(now)
	}
	return false
}

// SubscriptionPayment is one approved gateway payment. GatewayID is unique,
// so each payment extends the period at most once.
type SubscriptionPayment struct {
	BaseModel
	SubscriptionID uuid.UUID `gorm:"type:uuid;not null;index" json:"subscription_id"`
	CompanyID      uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	GatewayID      string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"gateway_id"`
	PeriodEnd      time.Time `gorm:"not null" json:"period_end"`
}
