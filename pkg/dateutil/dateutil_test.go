package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateIn_KeepsCalendarDayInEveryZone(t *testing.T) {
	zones := []string{"UTC", "America/Sao_Paulo", "Asia/Tokyo", "Pacific/Kiritimati", "Pacific/Pago_Pago"}

	for _, name := range zones {
		loc, err := time.LoadLocation(name)
		if err != nil {
			loc = time.FixedZone(name, 0)
		}

		got, err := ParseDateIn("2025-03-09", loc)
		require.NoError(t, err, name)
		assert.Equal(t, 2025, got.Year(), name)
		assert.Equal(t, time.March, got.Month(), name)
		assert.Equal(t, 9, got.Day(), name)
		assert.Equal(t, 0, got.Hour(), name)
		assert.Equal(t, loc, got.Location(), name)
	}
}

func TestParseDateIn_Formats(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)

	cases := []struct {
		in    string
		y     int
		m     time.Month
		d     int
		valid bool
	}{
		{"2025-01-31", 2025, time.January, 31, true},
		{"2025-01-31T23:59:00.000Z", 2025, time.January, 31, true},
		{"31/01/2025", 2025, time.January, 31, true},
		{"05/12/2024", 2024, time.December, 5, true},
		{"  2024-02-29 ", 2024, time.February, 29, true},
		{"2025-02-30", 0, 0, 0, false},
		{"31/13/2025", 0, 0, 0, false},
		{"yesterday", 0, 0, 0, false},
	}

	for _, c := range cases {
		got, err := ParseDateIn(c.in, loc)
		if !c.valid {
			var perr *ParseError
			assert.ErrorAs(t, err, &perr, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.y, got.Year(), c.in)
		assert.Equal(t, c.m, got.Month(), c.in)
		assert.Equal(t, c.d, got.Day(), c.in)
	}
}

func TestParseDate_EmptyIsNotNow(t *testing.T) {
	_, err := ParseDate("")
	assert.ErrorIs(t, err, ErrEmptyDate)
}

func TestNormalize(t *testing.T) {
	loc := time.UTC
	ts := time.Date(2025, 6, 15, 18, 30, 0, 0, loc)

	got, err := Normalize(ts, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, loc), got)

	got, err = Normalize(&ts, loc)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Day())

	_, err = Normalize(nil, loc)
	assert.ErrorIs(t, err, ErrEmptyDate)

	var nilTime *time.Time
	_, err = Normalize(nilTime, loc)
	assert.ErrorIs(t, err, ErrEmptyDate)

	_, err = Normalize(42, loc)
	assert.Error(t, err)
}

func TestOrNow(t *testing.T) {
	fixed := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, OrNow(fixed, nil, time.UTC))

	got := OrNow(time.Time{}, ErrEmptyDate, time.UTC)
	assert.Equal(t, Midnight(time.Now().UTC()), got)
}
