package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Filter holds the optional search predicates. A nil field imposes no
// constraint; every bound is inclusive and the predicates are ANDed.
type Filter struct {
	Start     *time.Time
	End       *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

func (f Filter) IsZero() bool {
	return f.Start == nil && f.End == nil && f.MinAmount == nil && f.MaxAmount == nil
}

// Match reports whether t satisfies every predicate present in f.
func (f Filter) Match(t Transaction) bool {
	if f.Start != nil && t.CreatedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && t.CreatedAt.After(*f.End) {
		return false
	}
	if f.MinAmount != nil && t.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && t.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	return true
}

// Search returns the transactions of txs matching f, newest first. Equal
// timestamps keep their input order. txs is not modified.
func Search(txs []Transaction, f Filter) ([]Transaction, error) {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if err := t.checkReportable(); err != nil {
			return nil, err
		}
		if f.Match(t) {
			out = append(out, t)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// newestFirst returns txs itself when already ordered, otherwise a sorted copy.
func newestFirst(txs []Transaction) []Transaction {
	if sort.SliceIsSorted(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	}) {
		return txs
	}
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sortNewestFirst(sorted)
	return sorted
}

func sortNewestFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
