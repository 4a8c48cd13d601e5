package scheduler

import (
	"time"
)

// Expirer marks subscriptions whose paid period ended before now
type Expirer interface {
	ExpireOverdue(now time.Time) (int64, error)
}

// SubscriptionExpiryJob expires subscriptions once their period is over
type SubscriptionExpiryJob struct {
	expirer Expirer
	now     func() time.Time
}

func NewSubscriptionExpiryJob(expirer Expirer) *SubscriptionExpiryJob {
	return &SubscriptionExpiryJob{expirer: expirer, now: time.Now}
}

func (j *SubscriptionExpiryJob) Name() string {
	return "subscription_expiry"
}

func (j *SubscriptionExpiryJob) Run() error {
	_, err := j.expirer.ExpireOverdue(j.now())
	return err
}
