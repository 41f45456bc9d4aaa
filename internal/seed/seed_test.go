package seed

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/input"
	"fintrack/internal/log"
	"fintrack/internal/memory"
	"fintrack/internal/services"
)

func newService() *services.LedgerService {
	logger := log.New(log.Config{Level: slog.LevelError, Output: &bytes.Buffer{}})
	return services.NewLedgerService(memory.New(), services.WithLogger(logger))
}

func TestLoadAndApply(t *testing.T) {
	ctx := context.Background()
	file, err := Load("testdata/sample.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(file.Users) != 2 {
		t.Fatalf("users = %d, want 2", len(file.Users))
	}

	svc := newService()
	res, err := Apply(ctx, svc, file, time.UTC)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res != (Result{Users: 2, Categories: 3, Transactions: 3}) {
		t.Fatalf("result = %+v", res)
	}

	john, err := svc.AccountByEmail(ctx, "john.doe@example.com")
	if err != nil {
		t.Fatalf("AccountByEmail: %v", err)
	}
	summary, err := svc.MonthlySummary(ctx, john.ID)
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	jan := summary["2024-01"]
	if !jan.Income.Equal(decimal.RequireFromString("3500")) || !jan.Expense.Equal(decimal.RequireFromString("85.5")) {
		t.Fatalf("january = %+v", jan)
	}
	if !summary["2024-02"].Expense.Equal(decimal.RequireFromString("12.35")) {
		t.Fatalf("february expense = %s, want 12.35", summary["2024-02"].Expense)
	}

	found, err := svc.FindTransaction(ctx, john.ID, "Grocery Shopping")
	if err != nil {
		t.Fatalf("FindTransaction: %v", err)
	}
	if found.CategoryID == nil {
		t.Fatal("seeded transaction should reference its category")
	}
}

func TestApplyRejectsBadEntriesBeforeWriting(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad amount", `
users:
  - name: A
    email: a@example.com
    transactions:
      - {amount: "-3", kind: income, description: x, created_at: "2024-01-01"}
`},
		{"bad kind", `
users:
  - name: A
    email: a@example.com
    transactions:
      - {amount: "3", kind: transfer, description: x, created_at: "2024-01-01"}
`},
		{"bad date", `
users:
  - name: A
    email: a@example.com
    transactions:
      - {amount: "3", kind: income, description: x, created_at: "01/02/2024"}
`},
		{"undeclared category", `
users:
  - name: A
    email: a@example.com
    transactions:
      - {amount: "3", kind: income, description: x, category: food, created_at: "2024-01-01"}
`},
		{"bad email", `
users:
  - name: A
    email: not-an-email
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Parse(strings.NewReader(tt.yaml))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			svc := newService()
			res, err := Apply(context.Background(), svc, file, time.UTC)
			var ve *input.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if res.Users != 0 {
				t.Fatalf("wrote %d users before failing", res.Users)
			}
			if users, _ := svc.ListAccounts(context.Background()); len(users) != 0 {
				t.Fatalf("ledger not untouched: %d users", len(users))
			}
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse(strings.NewReader("users:\n  - name: A\n    password: secret\n")); err == nil {
		t.Fatal("unknown field should fail")
	}
	file, err := Parse(strings.NewReader(""))
	if err != nil || len(file.Users) != 0 {
		t.Fatalf("empty file = %+v, %v", file, err)
	}
}

func TestApplyDuplicateUser(t *testing.T) {
	svc := newService()
	file := &File{Users: []User{{Name: "A", Email: "a@example.com"}}}
	if _, err := Apply(context.Background(), svc, file, time.UTC); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	if _, err := Apply(context.Background(), svc, file, time.UTC); err == nil {
		t.Fatal("second Apply should fail on the duplicate email")
	}
}
