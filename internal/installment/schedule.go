// Package installment holds the installment rules shared by sales, purchases
// and the repair command: due dates, amount splits and payment
// reconciliation. Nothing here touches the database.
package installment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-cashbook-api/pkg/dateutil"

	"github.com/jinzhu/now"
)

var ErrNegativeIndex = errors.New("installment index cannot be negative")

// CustomDate is a caller-supplied due date for one installment. Front ends
// send either due_date or date.
type CustomDate struct {
	DueDate string `json:"due_date,omitempty"`
	Date    string `json:"date,omitempty"`
}

func (c CustomDate) value() string {
	if v := strings.TrimSpace(c.DueDate); v != "" {
		return v
	}
	return strings.TrimSpace(c.Date)
}

// HasCustomDate reports whether custom carries a date for installment index
func HasCustomDate(custom []CustomDate, index int) bool {
	return index >= 0 && index < len(custom) && custom[index].value() != ""
}

// DueDate returns the due date of installment index (0-based).
//
// A custom date for that index always wins. Otherwise the installment falls
// index+1 calendar months after base: the first one is due a month after the
// sale or purchase, never on the same day.
func DueDate(base time.Time, custom []CustomDate, index int, loc *time.Location) (time.Time, error) {
	if index < 0 {
		return time.Time{}, ErrNegativeIndex
	}
	if HasCustomDate(custom, index) {
		d, err := dateutil.ParseDateIn(custom[index].value(), loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("installment %d: %w", index+1, err)
		}
		return d, nil
	}
	return AddMonths(base, index+1), nil
}

// Schedule returns the due dates of all n installments.
func Schedule(base time.Time, custom []CustomDate, n int, loc *time.Location) ([]time.Time, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}
	dates := make([]time.Time, n)
	for i := 0; i < n; i++ {
		d, err := DueDate(base, custom, i, loc)
		if err != nil {
			return nil, err
		}
		dates[i] = d
	}
	return dates, nil
}

// AddMonths moves t by months calendar months, clamping the day to the end
// of the target month (Jan 31 + 1 = Feb 28/29).
func AddMonths(t time.Time, months int) time.Time {
	first := now.With(t).BeginningOfMonth().AddDate(0, months, 0)
	last := now.With(first).EndOfMonth().Day()

	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
