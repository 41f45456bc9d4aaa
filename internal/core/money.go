// Package core provides money parsing and handling utilities.
//
// Amounts are decimal.Decimal values. Stored amounts carry at most two
// fraction digits; sums are exact and only rounded when formatted.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of fraction digits kept for a stored amount.
const AmountPlaces = 2

// AmountLimit is the largest amount a transaction may carry, ten digits
// with two of them fractional.
var AmountLimit = decimal.New(9999999999, -AmountPlaces)

var maxCents = Cents(AmountLimit)

// ParseAmount converts a user supplied decimal string into a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to two fraction digits. Signs, exponents and zero are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.35
//	ParseAmount("12.344") -> 12.34
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parseUnsignedDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	d = RoundAmount(d)
	if !d.IsPositive() || d.GreaterThan(AmountLimit) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseBound parses an amount filter bound. Unlike ParseAmount it keeps the
// precision given and allows zero.
func ParseBound(s string) (decimal.Decimal, error) {
	return parseUnsignedDecimal(s)
}

func parseUnsignedDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}
	if len(parts) == 2 && parts[1] != "" {
		intPart += "." + parts[1]
	}
	d, err := decimal.NewFromString(intPart)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// RoundAmount rounds half away from zero to AmountPlaces digits.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// FormatAmount renders d with exactly two fraction digits, for display only.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountPlaces)
}

// Cents returns the amount in hundredths. d must already be rounded and
// within AmountLimit.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(AmountPlaces).IntPart()
}

func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -AmountPlaces)
}

// CeilCents and FloorCents map an arbitrary precision bound onto the cent
// grid so that an inclusive comparison on cents matches the decimal one.
// Bounds above AmountLimit clamp to just past it, which keeps the comparison
// exact for every storable amount.
func CeilCents(d decimal.Decimal) int64 {
	if d.GreaterThan(AmountLimit) {
		return maxCents + 1
	}
	return d.Shift(AmountPlaces).Ceil().IntPart()
}

func FloorCents(d decimal.Decimal) int64 {
	if d.GreaterThan(AmountLimit) {
		return maxCents + 1
	}
	return d.Shift(AmountPlaces).Floor().IntPart()
}
