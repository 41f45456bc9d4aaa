package core

import (
	"sort"
	"time"
)

const monthKeyLayout = "2006-01"

// MonthKey returns the "YYYY-MM" bucket for t in t's own location.
// No timezone conversion is applied.
func MonthKey(t time.Time) string {
	return t.Format(monthKeyLayout)
}

// ParseMonthKey is the inverse of MonthKey.
func ParseMonthKey(key string) (int, time.Month, error) {
	if len(key) != len(monthKeyLayout) {
		return 0, 0, ErrInvalidMonthKey
	}
	t, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return 0, 0, ErrInvalidMonthKey
	}
	return t.Year(), t.Month(), nil
}

// SortedMonthKeys returns the keys of a month keyed map, newest month first.
func SortedMonthKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}
