package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	calledWith time.Time
	err        error
}

func (f *fakeExpirer) ExpireOverdue(now time.Time) (int64, error) {
	f.calledWith = now
	return 1, f.err
}

func TestSubscriptionExpiryJob_Run(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC)
	exp := &fakeExpirer{}
	job := NewSubscriptionExpiryJob(exp)
	job.now = func() time.Time { return fixed }

	require.NoError(t, job.Run())
	assert.Equal(t, fixed, exp.calledWith)
	assert.Equal(t, "subscription_expiry", job.Name())

	exp.err = errors.New("db down")
	assert.Error(t, job.Run())
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(time.UTC, zerolog.Nop())

	assert.NoError(t, s.AddJob("0 0 3 * * *", NewSubscriptionExpiryJob(&fakeExpirer{})))
	assert.Error(t, s.AddJob("not a spec", NewSubscriptionExpiryJob(&fakeExpirer{})))
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(time.UTC, zerolog.Nop())
	exp := &fakeExpirer{}
	require.NoError(t, s.RunNow(NewSubscriptionExpiryJob(exp)))
	assert.False(t, exp.calledWith.IsZero())
}
