package installment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the payment state of a ledger row.
type Status string

const (
	StatusPending   Status = "pendente"
	StatusPartial   Status = "parcial"
	StatusCompleted Status = "completed"
	// StatusPaidLegacy is written by older clients and means the same as
	// StatusCompleted.
	StatusPaidLegacy Status = "pago"
)

// Settled reports whether no further payment is expected.
func (s Status) Settled() bool {
	return s == StatusCompleted || s == StatusPaidLegacy
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPartial, StatusCompleted, StatusPaidLegacy:
		return true
	}
	return false
}

var (
	ErrNonPositivePayment = errors.New("payment amount must be greater than zero")
	ErrNegativeInterest   = errors.New("interest cannot be negative")
	ErrAlreadySettled     = errors.New("installment is already fully paid")
	ErrNothingToCancel    = errors.New("installment has no payment to cancel")
)

// Ledger is the payment-related state of one transaction row.
type Ledger struct {
	Amount      decimal.Decimal // signed; only its magnitude is owed
	Status      Status
	PaidAmount  decimal.Decimal
	Interest    decimal.Decimal
	PaymentDate *time.Time
	HasCardFee  bool
	CardFee     decimal.Decimal
}

// Payment is one confirmation coming from the cashier.
type Payment struct {
	Amount     decimal.Decimal
	Interest   decimal.Decimal
	PaidAt     time.Time
	Method     string
	HasCardFee bool
	CardFee    decimal.Decimal
}

// Outstanding is what is still owed on l.
func (l Ledger) Outstanding() decimal.Decimal {
	if l.Status.Settled() {
		return decimal.Zero
	}
	rest := l.Amount.Abs().Sub(l.PaidAmount).Sub(l.Interest)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// ApplyPayment folds p into l. A row in StatusPartial accumulates paid
// amount and interest; any other unsettled row treats p as its first
// payment. The row becomes StatusCompleted once paid plus interest covers
// the magnitude of Amount.
func ApplyPayment(l Ledger, p Payment) (Ledger, error) {
	if !p.Amount.IsPositive() {
		return l, ErrNonPositivePayment
	}
	if p.Interest.IsNegative() {
		return l, ErrNegativeInterest
	}
	if l.Status.Settled() {
		return l, ErrAlreadySettled
	}

	paid := p.Amount
	interest := p.Interest
	if l.Status == StatusPartial {
		paid = l.PaidAmount.Add(p.Amount)
		interest = l.Interest.Add(p.Interest)
	}

	next := l
	next.PaidAmount = paid
	next.Interest = interest
	paidAt := p.PaidAt
	next.PaymentDate = &paidAt

	if p.HasCardFee {
		next.HasCardFee = true
		next.CardFee = l.CardFee.Add(p.CardFee)
	}

	if paid.Add(interest).GreaterThanOrEqual(l.Amount.Abs()) {
		next.Status = StatusCompleted
	} else {
		next.Status = StatusPartial
	}
	return next, nil
}

// Cancel undoes every payment on l.
func Cancel(l Ledger) (Ledger, error) {
	if l.Status == StatusPending && l.PaidAmount.IsZero() {
		return l, ErrNothingToCancel
	}
	next := l
	next.Status = StatusPending
	next.PaidAmount = decimal.Zero
	next.Interest = decimal.Zero
	next.PaymentDate = nil
	next.HasCardFee = false
	next.CardFee = decimal.Zero
	return next, nil
}
