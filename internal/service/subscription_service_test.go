package service

import (
	"testing"
	"time"

	"go-cashbook-api/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayNotification_Lifecycle(t *testing.T) {
	f := newAuthFixture(t)
	owner := ownerActor(f.register(t, "ana@example.com"))
	subs := NewSubscriptionService(f.subRepo, f.db, nil, zerolog.Nop())

	// first notice only knows the company through external_reference
	sub, err := subs.HandleGatewayNotification(&GatewayNotification{
		ID: "pay-1", Status: "pending", TicketURL: "https://pay.example/t/1", ExternalReference: owner.CompanyID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionPending, sub.Status)
	assert.Equal(t, "https://pay.example/t/1", sub.TicketURL)

	before := time.Now()
	sub, err = subs.HandleGatewayNotification(&GatewayNotification{ID: "pay-1", Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionActive, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	end := *sub.CurrentPeriodEnd
	assert.True(t, end.After(before.AddDate(0, 0, 27)))

	// the gateway retries; the period is extended only once
	sub, err = subs.HandleGatewayNotification(&GatewayNotification{ID: "pay-1", Status: "APPROVED"})
	require.NoError(t, err)
	assert.True(t, end.Equal(*sub.CurrentPeriodEnd))

	// a pending notice delivered after the approval changes nothing
	sub, err = subs.HandleGatewayNotification(&GatewayNotification{ID: "pay-1", Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionActive, sub.Status)
	assert.True(t, end.Equal(*sub.CurrentPeriodEnd))

	got, err := subs.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, "pay-1", got.GatewayID)

	sub, err = subs.HandleGatewayNotification(&GatewayNotification{ID: "pay-1", Status: "refunded"})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionCanceled, sub.Status)
}

func TestGatewayNotification_ReplayedApprovalAfterNewerPayment(t *testing.T) {
	f := newAuthFixture(t)
	owner := ownerActor(f.register(t, "ana@example.com"))
	subs := NewSubscriptionService(f.subRepo, f.db, nil, zerolog.Nop())
	ref := owner.CompanyID.String()

	sub, err := subs.HandleGatewayNotification(&GatewayNotification{ID: "pay-1", Status: "approved", ExternalReference: ref})
	require.NoError(t, err)
	first := *sub.CurrentPeriodEnd

	sub, err = subs.HandleGatewayNotification(&GatewayNotification{ID: "pay-2", Status: "approved", ExternalReference: ref})
	require.NoError(t, err)
	second := *sub.CurrentPeriodEnd
	assert.True(t, second.After(first))
	assert.Equal(t, "pay-2", sub.GatewayID)

	// the gateway retries the older payment
	sub, err = subs.HandleGatewayNotification(&GatewayNotification{ID: "pay-1", Status: "approved"})
	require.NoError(t, err)
	assert.True(t, second.Equal(*sub.CurrentPeriodEnd))
	assert.Equal(t, "pay-2", sub.GatewayID)

	got, err := subs.Get(owner)
	require.NoError(t, err)
	assert.True(t, second.Equal(*got.CurrentPeriodEnd))

	var payments int64
	require.NoError(t, f.db.Model(&model.SubscriptionPayment{}).Where("company_id = ?", owner.CompanyID).Count(&payments).Error)
	assert.Equal(t, int64(2), payments)
}

func TestGatewayNotification_ReplayedApprovalAfterExpiry(t *testing.T) {
	f := newAuthFixture(t)
	owner := ownerActor(f.register(t, "ana@example.com"))
	subs := NewSubscriptionService(f.subRepo, f.db, nil, zerolog.Nop())

	sub, err := subs.HandleGatewayNotification(&GatewayNotification{ID: "pay-1", Status: "approved", ExternalReference: owner.CompanyID.String()})
	require.NoError(t, err)
	end := *sub.CurrentPeriodEnd

	n, err := subs.ExpireOverdue(end.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sub, err = subs.HandleGatewayNotification(&GatewayNotification{ID: "pay-1", Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionExpired, sub.Status)
	assert.True(t, end.Equal(*sub.CurrentPeriodEnd))

	got, err := subs.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionExpired, got.Status)
}

func TestGatewayNotification_Errors(t *testing.T) {
	f := newAuthFixture(t)
	subs := NewSubscriptionService(f.subRepo, f.db, nil, zerolog.Nop())

	_, err := subs.HandleGatewayNotification(&GatewayNotification{ID: "x", Status: "teleported"})
	assert.ErrorIs(t, err, ErrUnknownGatewayStatus)

	_, err = subs.HandleGatewayNotification(&GatewayNotification{ID: "x", Status: "approved"})
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	_, err = subs.HandleGatewayNotification(&GatewayNotification{ID: "x", Status: "approved", ExternalReference: "not-a-uuid"})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = subs.HandleGatewayNotification(&GatewayNotification{Status: "approved"})
	assert.Error(t, err)
}

func TestExpireOverdue(t *testing.T) {
	f := newAuthFixture(t)
	owner := ownerActor(f.register(t, "ana@example.com"))
	subs := NewSubscriptionService(f.subRepo, f.db, nil, zerolog.Nop())

	n, err := subs.ExpireOverdue(time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	// past the trial
	n, err = subs.ExpireOverdue(time.Now().Add(trialPeriod + time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sub, err := subs.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionExpired, sub.Status)
	assert.False(t, sub.Usable(time.Now()))
}
