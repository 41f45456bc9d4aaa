// Package present renders ledger views as plain text.
package present

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

const (
	bullet         = "•"
	dateTimeLayout = "2006-01-02 15:04"
	monthLayout    = "January 2006"
	wideRule       = 60
	narrowRule     = 50
)

// printer keeps the first write error so renderers can print unconditionally.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func money(d decimal.Decimal) string {
	return "$" + core.FormatAmount(d)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "Never"
	}
	return t.Format(dateTimeLayout)
}

func UserInfo(w io.Writer, u core.User) error {
	p := &printer{w: w}
	p.printf("\n--- Account Info ---\n")
	p.printf("Name: %s\n", u.Name)
	p.printf("Email: %s\n", u.Email)
	p.printf("ID: %s\n", u.PublicID)
	p.printf("Created: %s\n", formatTime(&u.CreatedAt))
	p.printf("Last Login: %s\n", formatTime(u.LastLogin))
	return p.err
}

func Categories(w io.Writer, cats []core.Category) error {
	p := &printer{w: w}
	if len(cats) == 0 {
		p.printf("No categories found.\n")
		return p.err
	}
	p.printf("Categories (%d):\n", len(cats))
	for _, c := range cats {
		p.printf("%s %s\n", bullet, c.Name)
	}
	return p.err
}

// Transaction renders a single transaction on one line.
func Transaction(w io.Writer, t core.Transaction) error {
	p := &printer{w: w}
	p.printf("#%d %s %s %s - %s\n", t.ID, t.CreatedAt.Format(dateTimeLayout), t.Kind, money(t.Amount), t.Description)
	return p.err
}

// Transactions renders the balance view: income and expenses with their
// totals followed by the net balance.
func Transactions(w io.Writer, txs []core.Transaction) error {
	p := &printer{w: w}
	if len(txs) == 0 {
		p.printf("No transactions found.\n")
		return p.err
	}

	var income, expense []core.Transaction
	for _, t := range txs {
		if t.Kind == core.Income {
			income = append(income, t)
		} else {
			expense = append(expense, t)
		}
	}
	totals, err := core.Balance(txs)
	if err != nil {
		return err
	}

	p.printf("Transactions (%d):\n", len(txs))
	if len(income) > 0 {
		p.printf("\n INCOME: %s\n", money(totals.Income))
		for _, t := range income {
			p.printf("  %s #%d %s - %s\n", bullet, t.ID, money(t.Amount), t.Description)
		}
	}
	if len(expense) > 0 {
		p.printf("\n EXPENSES: %s\n", money(totals.Expense))
		for _, t := range expense {
			p.printf("  %s #%d %s - %s\n", bullet, t.ID, money(t.Amount), t.Description)
		}
	}
	p.printf("\n Balance: %s\n", money(totals.Net()))
	return p.err
}

// DetailedReport prints every month newest first. Months always show both
// sections and explicit zero totals.
func DetailedReport(w io.Writer, report core.DetailedReport) error {
	p := &printer{w: w}
	if len(report) == 0 {
		p.printf("No transactions found for monthly report.\n")
		return p.err
	}

	p.printf("\n%s\n", strings.Repeat("=", wideRule))
	p.printf("           DETAILED MONTHLY REPORT\n")
	p.printf("%s\n", strings.Repeat("=", wideRule))

	for _, key := range core.SortedMonthKeys(report) {
		month := report[key]
		p.printf("\n %s\n", monthTitle(key))
		p.printf("%s\n", strings.Repeat("-", narrowRule))

		section(p, "INCOME", "income", "Total Income", month.Income, month.Totals.Income)
		p.printf("\n")
		section(p, "EXPENSES", "expense", "Total Expenses", month.Expense, month.Totals.Expense)

		p.printf("\n   Net Balance: %s\n", money(month.Totals.Net()))
		p.printf("%s\n", strings.Repeat("-", narrowRule))
	}
	return p.err
}

func section(p *printer, title, kind, totalLabel string, items []core.LineItem, total decimal.Decimal) {
	if len(items) == 0 {
		p.printf(" %s: No %s transactions\n", title, kind)
		p.printf("    %s: %s\n", totalLabel, money(decimal.Zero))
		return
	}
	p.printf(" %s:\n", title)
	for _, item := range items {
		p.printf("   %s %s - %s - %s\n", bullet, item.Date, money(item.Amount), item.Description)
	}
	p.printf("    %s: %s\n", totalLabel, money(total))
}

func monthTitle(key string) string {
	year, month, err := core.ParseMonthKey(key)
	if err != nil {
		return key
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)
}

func SummaryReport(w io.Writer, summary core.Summary) error {
	p := &printer{w: w}
	if len(summary) == 0 {
		p.printf("No transactions found for summary report.\n")
		return p.err
	}
	p.printf("\n--- SUMMARY OVERVIEW ---\n")
	for _, key := range core.SortedMonthKeys(summary) {
		t := summary[key]
		p.printf("\n%s | Income: %s | Expenses: %s | Net: %s\n",
			key, money(t.Income), money(t.Expense), money(t.Net()))
	}
	return p.err
}

func Stats(w io.Writer, stats []services.UserStats) error {
	p := &printer{w: w}
	p.printf("\n--- Database Stats ---\n")
	p.printf("Total Users: %d\n", len(stats))
	for _, s := range stats {
		p.printf("%s: %d categories, %d transactions\n", s.User.Name, s.Categories, s.Transactions)
	}
	return p.err
}

// JSON writes v indented, for --json output.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
