// Package timerange resolves the relative "range" query windows used by the
// session, activity and transaction listings.
package timerange

import (
	"fmt"
	"strings"
	"time"

	"github.com/cashflow-api/internal/domain"
)

const (
	Today = "today"
	Week  = "week"
	Month = "month"
	Year  = "year"
)

// Since returns the inclusive lower bound for name relative to now, or nil
// when name is empty (no filtering).
func Since(name string, now time.Time) (*time.Time, error) {
	var t time.Time
	switch name {
	case "":
		return nil, nil
	case Today:
		y, m, d := now.Date()
		t = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case Week:
		t = now.AddDate(0, 0, -7)
	case Month:
		t = now.AddDate(0, -1, 0)
	case Year:
		t = now.AddDate(-1, 0, 0)
	default:
		return nil, fmt.Errorf("range must be one of today, week, month, year: %w", domain.ErrValidation)
	}
	return &t, nil
}

// Period returns the lower bound of a dashboard period ending at now. An
// empty name means all time (nil); unrecognised names fall back to the last
// month.
func Period(name string, now time.Time) *time.Time {
	var t time.Time
	switch strings.ToLower(name) {
	case "":
		return nil
	case "7days", "7d", Week:
		t = now.AddDate(0, 0, -7)
	case "14days", "14d":
		t = now.AddDate(0, 0, -14)
	case "year", "365d":
		t = now.AddDate(-1, 0, 0)
	case Today:
		y, m, d := now.Date()
		t = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	default:
		t = now.AddDate(0, -1, 0)
	}
	return &t
}

const dateOnly = "2006-01-02"

// Bounds parses optional start and end query values. Either may be an
// RFC3339 timestamp or a bare date; a bare end date covers that whole day.
func Bounds(start, end string) (from, to *time.Time, err error) {
	if start != "" {
		t, err := ParseDate(start)
		if err != nil {
			return nil, nil, fmt.Errorf("startDate: %w", err)
		}
		from = &t
	}
	if end != "" {
		t, err := ParseDate(end)
		if err != nil {
			return nil, nil, fmt.Errorf("endDate: %w", err)
		}
		if len(end) == len(dateOnly) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fmt.Errorf("endDate before startDate: %w", domain.ErrValidation)
	}
	return from, to, nil
}

// ParseDate accepts an RFC3339 timestamp or a bare YYYY-MM-DD date (UTC).
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a date: %w", s, domain.ErrValidation)
	}
	return t, nil
}
