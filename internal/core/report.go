package core

import (
	"github.com/shopspring/decimal"
)

const (
	lineItemDateLayout = "2006-01-02"
	lineItemTimeLayout = "15:04"
)

type (
	// Totals holds the exact income and expense sums of a set of transactions.
	Totals struct {
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	// Summary maps a month key to that month's totals.
	Summary map[string]Totals

	// LineItem is the report projection of a single transaction.
	LineItem struct {
		ID          int64
		Amount      decimal.Decimal
		Description string
		Date        string // YYYY-MM-DD
		Time        string // HH:MM
	}

	// MonthDetail lists a month's transactions per kind, newest first.
	// Both lists are non-nil even when empty.
	MonthDetail struct {
		Income  []LineItem
		Expense []LineItem
		Totals  Totals
	}

	DetailedReport map[string]MonthDetail
)

// Net is always derived from the two totals.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

func (t *Totals) add(kind Kind, amount decimal.Decimal) {
	switch kind {
	case Income:
		t.Income = t.Income.Add(amount)
	case Expense:
		t.Expense = t.Expense.Add(amount)
	}
}

// Summarize groups txs by month key and sums each kind. An empty input yields
// an empty, non-nil Summary.
func Summarize(txs []Transaction) (Summary, error) {
	summary := make(Summary)
	for _, t := range txs {
		if err := t.checkReportable(); err != nil {
			return nil, err
		}
		key := MonthKey(t.CreatedAt)
		totals := summary[key]
		totals.add(t.Kind, t.Amount)
		summary[key] = totals
	}
	return summary, nil
}

// Detail builds the per month line item report. Line items are ordered newest
// first; input that is not already in that order is sorted on a copy.
func Detail(txs []Transaction) (DetailedReport, error) {
	for _, t := range txs {
		if err := t.checkReportable(); err != nil {
			return nil, err
		}
	}

	report := make(DetailedReport)
	for _, t := range newestFirst(txs) {
		key := MonthKey(t.CreatedAt)
		month, ok := report[key]
		if !ok {
			month = MonthDetail{Income: []LineItem{}, Expense: []LineItem{}}
		}
		item := NewLineItem(t)
		if t.Kind == Income {
			month.Income = append(month.Income, item)
		} else {
			month.Expense = append(month.Expense, item)
		}
		month.Totals.add(t.Kind, t.Amount)
		report[key] = month
	}
	return report, nil
}

// Summary projects the detailed report onto its totals.
func (r DetailedReport) Summary() Summary {
	s := make(Summary, len(r))
	for key, month := range r {
		s[key] = month.Totals
	}
	return s
}

func NewLineItem(t Transaction) LineItem {
	return LineItem{
		ID:          t.ID,
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.CreatedAt.Format(lineItemDateLayout),
		Time:        t.CreatedAt.Format(lineItemTimeLayout),
	}
}

// Balance totals an arbitrary list of transactions regardless of month.
func Balance(txs []Transaction) (Totals, error) {
	var totals Totals
	for _, t := range txs {
		if err := t.checkReportable(); err != nil {
			return Totals{}, err
		}
		totals.add(t.Kind, t.Amount)
	}
	return totals, nil
}
