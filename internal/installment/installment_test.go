package installment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSplit_Examples(t *testing.T) {
	t.Run("even total", func(t *testing.T) {
		parts, err := Split(dec("500"), 5)
		require.NoError(t, err)
		for _, p := range parts {
			assert.Equal(t, "100.00", p.StringFixed(2))
		}
	})

	t.Run("remainder goes to last", func(t *testing.T) {
		parts, err := Split(dec("500.03"), 5)
		require.NoError(t, err)
		got := make([]string, len(parts))
		for i, p := range parts {
			got[i] = p.StringFixed(2)
		}
		assert.Equal(t, []string{"100.00", "100.00", "100.00", "100.00", "100.03"}, got)
	})

	t.Run("thirds", func(t *testing.T) {
		parts, err := Split(dec("100"), 3)
		require.NoError(t, err)
		assert.Equal(t, "33.33", parts[0].StringFixed(2))
		assert.Equal(t, "33.34", parts[2].StringFixed(2))
	})

	t.Run("single installment", func(t *testing.T) {
		parts, err := Split(dec("19.99"), 1)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.True(t, parts[0].Equal(dec("19.99")))
	})
}

func TestSplit_SumIsExact(t *testing.T) {
	totals := []string{"0.01", "1", "10.10", "99.99", "1234.56", "500.03", "1000000.07", "0"}
	for _, total := range totals {
		for n := 1; n <= 48; n++ {
			parts, err := Split(dec(total), n)
			require.NoError(t, err)
			require.Len(t, parts, n)

			sum := decimal.Zero
			for _, p := range parts {
				sum = sum.Add(p)
			}
			assert.True(t, sum.Equal(dec(total)), "total %s n %d sum %s", total, n, sum)
		}
	}
}

func TestSplit_InvalidCount(t *testing.T) {
	_, err := Split(dec("10"), 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = Split(dec("10"), -2)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestAddMonths(t *testing.T) {
	cases := []struct {
		base   time.Time
		months int
		want   time.Time
	}{
		{day(2025, 1, 31), 1, day(2025, 2, 28)},
		{day(2024, 1, 31), 1, day(2024, 2, 29)},
		{day(2025, 1, 31), 3, day(2025, 4, 30)},
		{day(2025, 3, 31), 1, day(2025, 4, 30)},
		{day(2025, 1, 15), 1, day(2025, 2, 15)},
		{day(2025, 11, 30), 2, day(2026, 1, 30)},
		{day(2025, 12, 31), 2, day(2026, 2, 28)},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, AddMonths(c.base, c.months), "%s + %d", c.base.Format("2006-01-02"), c.months)
	}
}

func TestDueDate_DefaultPolicy(t *testing.T) {
	base := day(2025, 1, 31)

	first, err := DueDate(base, nil, 0, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 2, 28), first)

	for i := 0; i < 24; i++ {
		got, err := DueDate(base, nil, i, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, AddMonths(base, i+1), got)
	}
}

func TestDueDate_CustomDatesWin(t *testing.T) {
	base := day(2025, 1, 10)
	custom := []CustomDate{
		{DueDate: "2025-01-20"},
		{Date: "05/03/2025"},
		{},
	}

	got, err := DueDate(base, custom, 0, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 1, 20), got)

	got, err = DueDate(base, custom, 1, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 3, 5), got)

	// empty entry falls back to the monthly rule
	got, err = DueDate(base, custom, 2, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 4, 10), got)

	// past the end of the list as well
	got, err = DueDate(base, custom, 5, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 7, 10), got)
}

func TestDueDate_Errors(t *testing.T) {
	_, err := DueDate(day(2025, 1, 1), []CustomDate{{DueDate: "not a date"}}, 0, time.UTC)
	assert.Error(t, err)

	_, err = DueDate(day(2025, 1, 1), nil, -1, time.UTC)
	assert.ErrorIs(t, err, ErrNegativeIndex)
}

func TestSchedule(t *testing.T) {
	dates, err := Schedule(day(2025, 1, 31), nil, 3, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2025, 2, 28), day(2025, 3, 31), day(2025, 4, 30)}, dates)

	_, err = Schedule(day(2025, 1, 31), nil, 0, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestApplyPayment_TwoPartialsComplete(t *testing.T) {
	l := Ledger{Amount: dec("100.00"), Status: StatusPending}

	l, err := ApplyPayment(l, Payment{Amount: dec("40.00"), PaidAt: day(2025, 2, 1), Method: "pix"})
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, l.Status)
	assert.True(t, l.PaidAmount.Equal(dec("40")))
	assert.True(t, l.Outstanding().Equal(dec("60")))

	l, err = ApplyPayment(l, Payment{Amount: dec("60.00"), PaidAt: day(2025, 2, 10), Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, l.Status)
	assert.True(t, l.PaidAmount.Equal(dec("100")))
	assert.Equal(t, day(2025, 2, 10), *l.PaymentDate)
	assert.True(t, l.Outstanding().IsZero())
}

func TestApplyPayment_InterestCountsTowardsTotal(t *testing.T) {
	l := Ledger{Amount: dec("-100.00"), Status: StatusPending}

	l, err := ApplyPayment(l, Payment{Amount: dec("95"), Interest: dec("5"), PaidAt: day(2025, 2, 1)})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, l.Status)
	assert.True(t, l.Interest.Equal(dec("5")))
}

func TestApplyPayment_PendingWithStalePaidStartsOver(t *testing.T) {
	l := Ledger{Amount: dec("100"), Status: StatusPending, PaidAmount: dec("30")}

	l, err := ApplyPayment(l, Payment{Amount: dec("50"), PaidAt: day(2025, 2, 1)})
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, l.Status)
	assert.True(t, l.PaidAmount.Equal(dec("50")))
}

func TestApplyPayment_CardFeeAccumulates(t *testing.T) {
	l := Ledger{Amount: dec("100"), Status: StatusPending}
	l, err := ApplyPayment(l, Payment{Amount: dec("50"), HasCardFee: true, CardFee: dec("1.5"), PaidAt: day(2025, 2, 1)})
	require.NoError(t, err)
	l, err = ApplyPayment(l, Payment{Amount: dec("50"), HasCardFee: true, CardFee: dec("1.5"), PaidAt: day(2025, 2, 2)})
	require.NoError(t, err)
	assert.True(t, l.HasCardFee)
	assert.True(t, l.CardFee.Equal(dec("3")))
}

func TestApplyPayment_Rejections(t *testing.T) {
	l := Ledger{Amount: dec("100"), Status: StatusPending}

	_, err := ApplyPayment(l, Payment{Amount: decimal.Zero})
	assert.ErrorIs(t, err, ErrNonPositivePayment)

	_, err = ApplyPayment(l, Payment{Amount: dec("-1")})
	assert.ErrorIs(t, err, ErrNonPositivePayment)

	_, err = ApplyPayment(l, Payment{Amount: dec("1"), Interest: dec("-1")})
	assert.ErrorIs(t, err, ErrNegativeInterest)

	_, err = ApplyPayment(Ledger{Amount: dec("100"), Status: StatusCompleted}, Payment{Amount: dec("1")})
	assert.ErrorIs(t, err, ErrAlreadySettled)

	_, err = ApplyPayment(Ledger{Amount: dec("100"), Status: StatusPaidLegacy}, Payment{Amount: dec("1")})
	assert.ErrorIs(t, err, ErrAlreadySettled)
}

func TestCancel(t *testing.T) {
	paidAt := day(2025, 2, 1)
	l := Ledger{
		Amount:      dec("100"),
		Status:      StatusPartial,
		PaidAmount:  dec("40"),
		Interest:    dec("2"),
		PaymentDate: &paidAt,
		HasCardFee:  true,
		CardFee:     dec("1"),
	}

	got, err := Cancel(l)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.True(t, got.PaidAmount.IsZero())
	assert.True(t, got.Interest.IsZero())
	assert.Nil(t, got.PaymentDate)
	assert.False(t, got.HasCardFee)

	_, err = Cancel(got)
	assert.ErrorIs(t, err, ErrNothingToCancel)
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusCompleted.Settled())
	assert.True(t, StatusPaidLegacy.Settled())
	assert.False(t, StatusPartial.Settled())
	assert.True(t, StatusPending.Valid())
	assert.False(t, Status("paid").Valid())
}
