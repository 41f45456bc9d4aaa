// Package input converts raw user supplied strings into the typed values the
// core accepts. Every rejection is a *ValidationError; the core never sees
// malformed input.
package input

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

var (
	ErrInvalidDate  = errors.New("expected YYYY-MM-DD")
	ErrInvalidRange = errors.New("range start is after range end")
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// SearchParams are the raw filter strings; blank means "not provided".
type SearchParams struct {
	Start     string
	End       string
	MinAmount string
	MaxAmount string
}

// ParseFilter validates p and builds a core.Filter. Dates are read in loc.
// A date-only end bound covers the whole of that day.
func ParseFilter(p SearchParams, loc *time.Location) (core.Filter, error) {
	if loc == nil {
		loc = time.Local
	}
	var f core.Filter

	if v := strings.TrimSpace(p.Start); v != "" {
		start, err := parseDate(v, loc)
		if err != nil {
			return core.Filter{}, &ValidationError{Field: "start date", Value: v, Err: err}
		}
		f.Start = &start
	}
	if v := strings.TrimSpace(p.End); v != "" {
		end, err := parseDate(v, loc)
		if err != nil {
			return core.Filter{}, &ValidationError{Field: "end date", Value: v, Err: err}
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.End = &end
	}
	if f.Start != nil && f.End != nil && f.Start.After(*f.End) {
		return core.Filter{}, &ValidationError{Field: "date range", Value: p.Start + ".." + p.End, Err: ErrInvalidRange}
	}

	if v := strings.TrimSpace(p.MinAmount); v != "" {
		lo, err := core.ParseBound(v)
		if err != nil {
			return core.Filter{}, &ValidationError{Field: "minimum amount", Value: v, Err: err}
		}
		f.MinAmount = &lo
	}
	if v := strings.TrimSpace(p.MaxAmount); v != "" {
		hi, err := core.ParseBound(v)
		if err != nil {
			return core.Filter{}, &ValidationError{Field: "maximum amount", Value: v, Err: err}
		}
		f.MaxAmount = &hi
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.GreaterThan(*f.MaxAmount) {
		return core.Filter{}, &ValidationError{Field: "amount range", Value: p.MinAmount + ".." + p.MaxAmount, Err: ErrInvalidRange}
	}

	return f, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ParseTimestamp accepts RFC 3339, "YYYY-MM-DD HH:MM" or "YYYY-MM-DD".
func ParseTimestamp(field, s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	t, ok := parseAnyTimestamp(s, loc)
	if !ok {
		return time.Time{}, &ValidationError{Field: field, Value: s, Err: ErrInvalidDate}
	}
	if !core.InTimestampRange(t) {
		return time.Time{}, &ValidationError{Field: field, Value: s, Err: core.ErrTimestampRange}
	}
	return t, nil
}

func parseAnyTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	for _, layout := range []string{DateTimeLayout, DateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Amount parses a transaction amount: positive, rounded to cents.
func Amount(s string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Value: strings.TrimSpace(s), Err: err}
	}
	return d, nil
}

func Kind(s string) (core.Kind, error) {
	k, err := core.ParseKind(s)
	if err != nil {
		return "", &ValidationError{Field: "type", Value: strings.TrimSpace(s), Err: fmt.Errorf("%w: must be 'income' or 'expense'", core.ErrInvalidKind)}
	}
	return k, nil
}

// Required trims s and rejects it when empty.
func Required(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: field, Value: s, Err: errors.New("cannot be empty")}
	}
	return s, nil
}

func Email(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !core.ValidEmail(s) {
		return "", &ValidationError{Field: "email", Value: s, Err: core.ErrInvalidEmail}
	}
	return s, nil
}
