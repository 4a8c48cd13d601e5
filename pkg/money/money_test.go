package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"1234,56", "1234.56"},
		{"1234.56", "1234.56"},
		{"1.234.567", "1234567"},
		{"R$ 1.234,56", "1234.56"},
		{"-10,00", "-10"},
		{"  500.03 ", "500.03"},
		{"0,5", "0.5"},
	}

	for _, c := range cases {
		got, err := Parse(c.in)
		require.NoError(t, err, c.in)
		assert.True(t, got.Equal(decimal.RequireFromString(c.want)), "%s: got %s", c.in, got)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, ErrEmptyAmount)

	_, err = Parse("R$ ")
	assert.ErrorIs(t, err, ErrEmptyAmount)

	_, err = Parse("abc")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "100.00", Format(decimal.NewFromInt(100)))
	assert.Equal(t, "-0.50", Format(decimal.RequireFromString("-0.5")))
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", FormatBRL(MustParse("1234.56")))
	assert.Equal(t, "R$ 0,00", FormatBRL(decimal.Zero))
	assert.Equal(t, "R$ 100,00", FormatBRL(MustParse("100")))
	assert.Equal(t, "-R$ 1.000.000,10", FormatBRL(MustParse("-1000000.1")))
}
