package installment

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidCount = errors.New("installment count must be at least 1")

var hundred = decimal.NewFromInt(100)

// Split divides total into n parts. Parts 1..n-1 are total/n truncated
// down to the cent; the last part absorbs the remainder, so the parts always
// add up to total exactly.
func Split(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}

	count := decimal.NewFromInt(int64(n))
	share := total.Mul(hundred).Div(count).Floor().Div(hundred)

	parts := make([]decimal.Decimal, n)
	sum := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = share
		sum = sum.Add(share)
	}
	parts[n-1] = total.Sub(sum)
	return parts, nil
}
