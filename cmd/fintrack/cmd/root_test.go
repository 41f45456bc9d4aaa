package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/input"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "fintrack.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, a := newRoot()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := a.run(context.Background(), root, args)
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("fintrack %s: %v", strings.Join(args, " "), err)
	}
	return out
}

const john = "john@example.com"

func TestLedgerWorkflow(t *testing.T) {
	setupEnv(t)

	out := mustExecute(t, "account", "create", "--name", "John Doe", "--email", john)
	if !strings.Contains(out, "Account created for John Doe.") {
		t.Fatalf("create output = %q", out)
	}

	out = mustExecute(t, "--user", john, "tx", "add",
		"--amount", "12,345", "--kind", "expense", "--description", "Lunch", "--at", "2024-01-15 12:30")
	if !strings.Contains(out, "$12.35") {
		t.Fatalf("add output = %q, want rounded amount", out)
	}
	mustExecute(t, "--user", john, "category", "add", "Salary")
	mustExecute(t, "--user", john, "tx", "add",
		"--amount", "100", "--kind", "Income", "--description", "Salary", "--category", "Salary", "--at", "2024-02-01")

	out = mustExecute(t, "--user", john, "report", "summary")
	if !strings.Contains(out, "2024-02 | Income: $100.00 | Expenses: $0.00") {
		t.Fatalf("summary output = %q", out)
	}
	if strings.Index(out, "2024-02") > strings.Index(out, "2024-01") {
		t.Fatalf("months should be newest first: %q", out)
	}

	out = mustExecute(t, "--user", john, "report", "detailed")
	if !strings.Contains(out, "February 2024") || !strings.Contains(out, "No expense transactions") {
		t.Fatalf("detailed output = %q", out)
	}

	out = mustExecute(t, "--user", john, "tx", "search", "--start", "2024-02-01")
	if !strings.Contains(out, "Salary") || strings.Contains(out, "Lunch") {
		t.Fatalf("search output = %q", out)
	}

	out = mustExecute(t, "--user", john, "tx", "search", "--end", "2024-01-15", "--max", "12.35")
	if !strings.Contains(out, "Lunch") {
		t.Fatalf("date-only end bound should cover the day: %q", out)
	}

	mustExecute(t, "--user", john, "tx", "add",
		"--amount", "7", "--kind", "expense", "--description", "Time capsule", "--at", "2300-01-05")
	out = mustExecute(t, "--user", john, "tx", "search", "--start", "2000-01-01", "--end", "2999-12-31")
	for _, want := range []string{"Lunch", "Salary", "Time capsule"} {
		if !strings.Contains(out, want) {
			t.Fatalf("wide search missing %q: %q", want, out)
		}
	}
	mustExecute(t, "--user", john, "tx", "delete", "--description", "Time capsule")

	out = mustExecute(t, "--user", john, "tx", "edit", "1", "--amount", "20", "--description", "Dinner")
	if !strings.Contains(out, "$20.00 - Dinner") {
		t.Fatalf("edit output = %q", out)
	}

	out = mustExecute(t, "--user", john, "tx", "delete", "--description", "Dinner")
	if !strings.Contains(out, "deleted") {
		t.Fatalf("delete output = %q", out)
	}
	out = mustExecute(t, "--user", john, "tx", "list")
	if !strings.Contains(out, "Transactions (1):") || !strings.Contains(out, "Balance: $100.00") {
		t.Fatalf("list output = %q", out)
	}
}

func TestJSONOutput(t *testing.T) {
	setupEnv(t)
	mustExecute(t, "account", "create", "--name", "John Doe", "--email", john)
	mustExecute(t, "--user", john, "tx", "add",
		"--amount", "3.50", "--kind", "expense", "--description", "Coffee", "--at", "2024-03-02")

	out := mustExecute(t, "--json", "--user", john, "report", "summary")
	var summary map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("summary is not JSON: %v\n%s", err, out)
	}
	if _, ok := summary["2024-03"]; !ok {
		t.Fatalf("summary = %v, want 2024-03", summary)
	}
}

func TestCommandErrors(t *testing.T) {
	setupEnv(t)
	mustExecute(t, "account", "create", "--name", "John Doe", "--email", john)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing user", []string{"tx", "list"}, "--user is required"},
		{"unknown user", []string{"--user", "nobody@example.com", "tx", "list"}, "nobody@example.com"},
		{"empty edit", []string{"--user", john, "tx", "edit", "1"}, "nothing to change"},
		{"bad id", []string{"--user", john, "tx", "delete", "abc"}, "invalid transaction id"},
		{"delete needs one selector", []string{"--user", john, "tx", "delete"}, "either an id or --description"},
		{"delete account without confirmation", []string{"--user", john, "account", "delete"}, "--yes"},
		{"duplicate account", []string{"account", "create", "--name", "J", "--email", john}, "exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestValidationErrors(t *testing.T) {
	setupEnv(t)
	mustExecute(t, "account", "create", "--name", "John Doe", "--email", john)

	tests := []struct {
		name string
		args []string
	}{
		{"inverted dates", []string{"--user", john, "tx", "search", "--start", "2024-03-01", "--end", "2024-02-01"}},
		{"bad minimum", []string{"--user", john, "tx", "search", "--min", "ten"}},
		{"negative amount", []string{"--user", john, "tx", "add", "--amount", "-5", "--kind", "expense", "--description", "x"}},
		{"oversized amount", []string{"--user", john, "tx", "add", "--amount", "100000000000000000000", "--kind", "expense", "--description", "x"}},
		{"year past 9999 in UTC", []string{"--user", john, "tx", "add", "--amount", "1", "--kind", "expense", "--description", "x", "--at", "9999-12-31T23:00:00-05:00"}},
		{"bad kind", []string{"--user", john, "tx", "add", "--amount", "5", "--kind", "transfer", "--description", "x"}},
		{"bad email", []string{"account", "create", "--name", "X", "--email", "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			var ve *input.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestSeedAndStats(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	data := `users:
  - name: Jane Smith
    email: jane@example.com
    categories: [Groceries]
    transactions:
      - {amount: "42.10", kind: expense, description: Market, category: Groceries, created_at: "2024-05-04"}
  - name: Bob
    email: bob@example.com
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	out := mustExecute(t, "seed", path)
	if !strings.Contains(out, "Seeded 2 users, 1 categories, 1 transactions.") {
		t.Fatalf("seed output = %q", out)
	}
	out = mustExecute(t, "stats")
	if !strings.Contains(out, "Total Users: 2") || !strings.Contains(out, "Jane Smith: 1 categories, 1 transactions") {
		t.Fatalf("stats output = %q", out)
	}

	mustExecute(t, "--user", "jane@example.com", "account", "delete", "--yes")
	out = mustExecute(t, "stats")
	if !strings.Contains(out, "Total Users: 1") {
		t.Fatalf("stats after delete = %q", out)
	}
}
