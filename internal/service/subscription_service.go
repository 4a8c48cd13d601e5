package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-cashbook-api/internal/installment"
	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/internal/ws"
	"go-cashbook-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUnknownGatewayStatus = errors.New("unknown gateway status")
)

// gatewayStatuses maps payment gateway statuses onto ours
var gatewayStatuses = map[string]model.SubscriptionStatus{
	"approved":     model.SubscriptionActive,
	"authorized":   model.SubscriptionActive,
	"paid":         model.SubscriptionActive,
	"pending":      model.SubscriptionPending,
	"in_process":   model.SubscriptionPending,
	"in_mediation": model.SubscriptionPending,
	"rejected":     model.SubscriptionCanceled,
	"cancelled":    model.SubscriptionCanceled,
	"canceled":     model.SubscriptionCanceled,
	"refunded":     model.SubscriptionCanceled,
	"charged_back": model.SubscriptionCanceled,
}

type SubscriptionService interface {
	Get(actor Actor) (*model.Subscription, error)
	HandleGatewayNotification(n *GatewayNotification) (*model.Subscription, error)
	ExpireOverdue(now time.Time) (int64, error)
}

// GatewayNotification is the part of a gateway webhook body we read.
// ExternalReference carries the company id for the first payment, before
// the gateway id is known.
type GatewayNotification struct {
	ID                string `json:"id" validate:"required"`
	Status            string `json:"status" validate:"required"`
	TicketURL         string `json:"ticket_url"`
	ExternalReference string `json:"external_reference"`
}

type subscriptionService struct {
	subRepo repository.SubscriptionRepository
	db      *gorm.DB
	wsHub   *ws.Hub
	log     zerolog.Logger
}

func NewSubscriptionService(subRepo repository.SubscriptionRepository, db *gorm.DB, hub *ws.Hub, log zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		subRepo: subRepo,
		db:      db,
		wsHub:   hub,
		log:     log.With().Str("component", "subscriptions").Logger(),
	}
}

func (s *subscriptionService) Get(actor Actor) (*model.Subscription, error) {
	sub, err := s.subRepo.FindByCompany(actor.CompanyID)
	if err != nil {
		return nil, notFound(err, ErrSubscriptionNotFound)
	}
	return sub, nil
}

func (s *subscriptionService) find(n *GatewayNotification) (*model.Subscription, error) {
	sub, err := s.subRepo.FindByGatewayID(n.ID)
	if err == nil {
		return sub, nil
	}
	if ref := strings.TrimSpace(n.ExternalReference); ref != "" {
		companyID, perr := uuid.Parse(ref)
		if perr != nil {
			return nil, fmt.Errorf("%w: external_reference", ErrInvalidID)
		}
		sub, err = s.subRepo.FindByCompany(companyID)
	}
	if err != nil {
		return nil, notFound(err, ErrSubscriptionNotFound)
	}
	return sub, nil
}

// HandleGatewayNotification applies a gateway status change. An approval
// extends the paid period by one month, once per gateway payment id: a
// replayed approval, or a late pending notice for a payment already
// approved, leaves the subscription untouched.
func (s *subscriptionService) HandleGatewayNotification(n *GatewayNotification) (*model.Subscription, error) {
	if err := validator.Check(n); err != nil {
		return nil, err
	}
	status, ok := gatewayStatuses[strings.ToLower(strings.TrimSpace(n.Status))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGatewayStatus, n.Status)
	}

	found, err := s.find(n)
	if err != nil {
		return nil, err
	}

	var sub *model.Subscription
	duplicate := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.subRepo.WithTx(tx)
		var err error
		if sub, err = repo.FindByCompanyForUpdate(found.CompanyID); err != nil {
			return err
		}

		switch status {
		case model.SubscriptionActive:
			end := nextPeriodEnd(sub, time.Now())
			recorded, err := repo.RecordPayment(&model.SubscriptionPayment{
				SubscriptionID: sub.ID,
				CompanyID:      sub.CompanyID,
				GatewayID:      n.ID,
				PeriodEnd:      end,
			})
			if err != nil {
				return err
			}
			if !recorded {
				duplicate = true
				return nil
			}
			sub.CurrentPeriodEnd = &end
		case model.SubscriptionPending:
			approved, err := repo.PaymentRecorded(n.ID)
			if err != nil {
				return err
			}
			if approved {
				duplicate = true
				return nil
			}
		}

		sub.GatewayID = n.ID
		if n.TicketURL != "" {
			sub.TicketURL = n.TicketURL
		}
		sub.Status = status
		sub.UpdatedBy = "gateway"
		return repo.Update(sub)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", sub.CompanyID.String()).Str("gateway_id", n.ID).
		Str("gateway_status", n.Status).Str("status", string(sub.Status)).Bool("duplicate", duplicate).
		Msg("gateway notification applied")
	if !duplicate {
		s.wsHub.Publish(sub.CompanyID, map[string]interface{}{
			"type":               "subscription_updated",
			"status":             sub.Status,
			"current_period_end": sub.CurrentPeriodEnd,
		})
	}
	return sub, nil
}

// nextPeriodEnd is one month after the current paid period, or after now
// when nothing paid is still running
func nextPeriodEnd(sub *model.Subscription, now time.Time) time.Time {
	start := now
	if sub.Status == model.SubscriptionActive && sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.After(start) {
		start = *sub.CurrentPeriodEnd
	}
	return installment.AddMonths(start, 1)
}

func (s *subscriptionService) ExpireOverdue(now time.Time) (int64, error) {
	n, err := s.subRepo.ExpireEndedBefore(now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("expired", n).Msg("subscriptions expired")
	}
	return n, nil
}
