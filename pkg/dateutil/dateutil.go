// Package dateutil turns the date shapes accepted by the API into local
// midnight dates.
package dateutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyDate = errors.New("date is empty")

	isoPrefix = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	brPrefix  = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})`)

	fallbackLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
)

// ParseError reports an input that could not be read as a date.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid date %q, use YYYY-MM-DD or DD/MM/YYYY", e.Input)
}

// ParseDate parses s in the local timezone. See ParseDateIn.
func ParseDate(s string) (time.Time, error) {
	return ParseDateIn(s, time.Local)
}

// ParseDateIn reads YYYY-MM-DD and DD/MM/YYYY prefixes straight from their
// digits, so the calendar day never shifts with loc. Anything else goes
// through the RFC3339 family and is then cut to midnight in loc.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyDate
	}
	if loc == nil {
		loc = time.Local
	}

	if m := isoPrefix.FindStringSubmatch(s); m != nil {
		return build(s, m[1], m[2], m[3], loc)
	}
	if m := brPrefix.FindStringSubmatch(s); m != nil {
		return build(s, m[3], m[2], m[1], loc)
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Midnight(t.In(loc)), nil
		}
	}
	return time.Time{}, &ParseError{Input: s}
}

func build(input, ys, ms, ds string, loc *time.Location) (time.Time, error) {
	y, _ := strconv.Atoi(ys)
	m, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	// time.Date normalizes 2025-02-30 into March; reject instead
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, &ParseError{Input: input}
	}
	return t, nil
}

// Normalize accepts a string, time.Time, *time.Time or nil.
func Normalize(v interface{}, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	switch d := v.(type) {
	case nil:
		return time.Time{}, ErrEmptyDate
	case string:
		return ParseDateIn(d, loc)
	case *string:
		if d == nil {
			return time.Time{}, ErrEmptyDate
		}
		return ParseDateIn(*d, loc)
	case time.Time:
		if d.IsZero() {
			return time.Time{}, ErrEmptyDate
		}
		return Midnight(d.In(loc)), nil
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, ErrEmptyDate
		}
		return Midnight(d.In(loc)), nil
	default:
		return time.Time{}, &ParseError{Input: fmt.Sprint(v)}
	}
}

// OrNow returns t, or today at midnight when err is non-nil.
func OrNow(t time.Time, err error, loc *time.Location) time.Time {
	if err != nil {
		if loc == nil {
			loc = time.Local
		}
		return Midnight(time.Now().In(loc))
	}
	return t
}

// Midnight drops the clock part of t, keeping its location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatISO renders t as YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.Format("2006-01-02")
}
