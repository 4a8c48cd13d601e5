package repository

import (
	"time"

	"go-cashbook-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository interface {
	WithTx(tx *gorm.DB) SubscriptionRepository
	Create(sub *model.Subscription) error
	Update(sub *model.Subscription) error
	FindByCompany(companyID uuid.UUID) (*model.Subscription, error)
	FindByCompanyForUpdate(companyID uuid.UUID) (*model.Subscription, error)
	FindByGatewayID(gatewayID string) (*model.Subscription, error)
	RecordPayment(p *model.SubscriptionPayment) (bool, error)
	PaymentRecorded(gatewayID string) (bool, error)
	ExpireEndedBefore(now time.Time) (int64, error)
}

type subscriptionRepo struct {
	db *gorm.DB
}

func NewSubscriptionRepo(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{db}
}

func (r *subscriptionRepo) WithTx(tx *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{tx}
}

func (r *subscriptionRepo) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *subscriptionRepo) Update(sub *model.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *subscriptionRepo) FindByCompany(companyID uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription
	if err := r.db.First(&sub, "company_id = ?", companyID).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepo) FindByCompanyForUpdate(companyID uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sub, "company_id = ?", companyID).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByGatewayID matches the latest gateway id as well as any payment
// recorded earlier for the subscription
func (r *subscriptionRepo) FindByGatewayID(gatewayID string) (*model.Subscription, error) {
	paid := r.db.Model(&model.SubscriptionPayment{}).Select("subscription_id").Where("gateway_id = ?", gatewayID)
	var sub model.Subscription
	if err := r.db.Where("gateway_id = ?", gatewayID).Or("id IN (?)", paid).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// RecordPayment inserts p unless its gateway id is already stored. It
// reports false for a payment seen before.
func (r *subscriptionRepo) RecordPayment(p *model.SubscriptionPayment) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gateway_id"}},
		DoNothing: true,
	}).Create(p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *subscriptionRepo) PaymentRecorded(gatewayID string) (bool, error) {
	var n int64
	err := r.db.Model(&model.SubscriptionPayment{}).Where("gateway_id = ?", gatewayID).Count(&n).Error
	return n > 0, err
}

// ExpireEndedBefore marks active, past-due and trial subscriptions whose
// period ended before now as expired
func (r *subscriptionRepo) ExpireEndedBefore(now time.Time) (int64, error) {
	res := r.db.Model(&model.Subscription{}).
		Where("status IN ?", []model.SubscriptionStatus{
			model.SubscriptionActive, model.SubscriptionPastDue, model.SubscriptionPending,
		}).
		Where("current_period_end IS NOT NULL AND current_period_end < ?", now).
		Updates(map[string]interface{}{
			"status":     model.SubscriptionExpired,
			"updated_by": "scheduler",
		})
	return res.RowsAffected, res.Error
}
