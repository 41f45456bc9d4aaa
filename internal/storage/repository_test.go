package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustUser(t *testing.T, repo *SQLiteRepository, email string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), core.User{Name: "Test", Email: email})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func mustTx(t *testing.T, repo *SQLiteRepository, tx core.Transaction) core.Transaction {
	t.Helper()
	saved, err := repo.CreateTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return saved
}

func TestMigrationsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	repo.Close()

	// Reopening must be a no-op migration.
	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	repo.Close()

	version, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != 2 || dirty {
		t.Fatalf("schema version = %d dirty=%v, want 2 clean", version, dirty)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u := mustUser(t, repo, "ada@example.com")
	if u.ID == 0 || u.PublicID == "" {
		t.Fatalf("ids not assigned: %+v", u)
	}

	if _, err := repo.CreateUser(ctx, core.User{Name: "Dup", Email: "ADA@example.com"}); !errors.Is(err, ports.ErrAlreadyExists) {
		t.Fatalf("duplicate email error = %v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetUserByEmail(ctx, "Ada@Example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != u.ID || got.LastLogin != nil {
		t.Fatalf("got %+v", got)
	}

	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	if err := repo.TouchLogin(ctx, u.ID, at); err != nil {
		t.Fatalf("TouchLogin: %v", err)
	}
	got, err = repo.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(at) {
		t.Fatalf("last login = %v, want %v", got.LastLogin, at)
	}

	if _, err := repo.GetUser(ctx, 999); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("missing user error = %v, want ErrNotFound", err)
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := mustUser(t, repo, "ada@example.com")

	loc := time.FixedZone("CET", 3600)
	created := time.Date(2024, 1, 31, 23, 30, 15, 123456789, loc)
	saved := mustTx(t, repo, core.Transaction{
		OwnerID:     u.ID,
		Amount:      decimal.RequireFromString("12.345"),
		Kind:        core.Expense,
		Description: "Groceries",
		CreatedAt:   created,
	})

	got, err := repo.GetTransaction(ctx, u.ID, saved.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("12.35")) {
		t.Fatalf("amount = %s, want 12.35", got.Amount)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created = %v, want %v", got.CreatedAt, created)
	}
	// The stored offset is kept, so the month bucket does not move.
	if core.MonthKey(got.CreatedAt) != "2024-01" {
		t.Fatalf("month key = %s, want 2024-01", core.MonthKey(got.CreatedAt))
	}

	if _, err := repo.GetTransaction(ctx, u.ID+1, saved.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("foreign owner error = %v, want ErrNotFound", err)
	}

	got.Description = "Groceries and wine"
	got.Kind = core.Income
	if err := repo.UpdateTransaction(ctx, got); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	found, err := repo.FindTransactionByDescription(ctx, u.ID, "Groceries and wine")
	if err != nil {
		t.Fatalf("FindTransactionByDescription: %v", err)
	}
	if found.ID != saved.ID || found.Kind != core.Income {
		t.Fatalf("found %+v", found)
	}

	if err := repo.DeleteTransaction(ctx, u.ID, saved.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, u.ID, saved.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestListByOwnerScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	alice := mustUser(t, repo, "alice@example.com")
	bob := mustUser(t, repo, "bob@example.com")

	base := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	a1 := mustTx(t, repo, core.Transaction{OwnerID: alice.ID, Amount: decimal.NewFromInt(5), Kind: core.Expense, Description: "late", CreatedAt: base.Add(time.Hour)})
	mustTx(t, repo, core.Transaction{OwnerID: bob.ID, Amount: decimal.NewFromInt(7), Kind: core.Income, Description: "bob", CreatedAt: base})
	a2 := mustTx(t, repo, core.Transaction{OwnerID: alice.ID, Amount: decimal.NewFromInt(3), Kind: core.Income, Description: "early", CreatedAt: base})

	got, err := repo.ListByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(got) != 2 || got[0].ID != a1.ID || got[1].ID != a2.ID {
		t.Fatalf("ListByOwner = %+v, want insertion order [%d %d]", got, a1.ID, a2.ID)
	}
}

func TestListByOwnerFilteredMatchesSearch(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := mustUser(t, repo, "ada@example.com")

	jan := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	seed := []struct {
		amount string
		at     time.Time
	}{
		{"10.00", jan},
		{"10.01", jan},
		{"0.99", jan.Add(-time.Hour)},
		{"250.50", jan.AddDate(0, 1, 0)},
		{"42.42", jan.AddDate(0, -1, 0)},
		{"10.00", jan.Add(time.Minute)},
		{"99.00", time.Date(2300, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"5.00", time.Date(2300, 1, 5, 8, 0, 0, 0, time.FixedZone("CET", 3600))},
	}
	for i, s := range seed {
		kind := core.Expense
		if i%2 == 0 {
			kind = core.Income
		}
		mustTx(t, repo, core.Transaction{OwnerID: u.ID, Amount: decimal.RequireFromString(s.amount), Kind: kind, Description: "t", CreatedAt: s.at})
	}

	all, err := repo.ListByOwner(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	minBound := decimal.RequireFromString("10.001")
	maxBound := decimal.RequireFromString("10.00")
	zero := decimal.Zero
	wideStart := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	wideEnd := time.Date(2999, 12, 31, 23, 59, 59, 0, time.UTC)
	after2262 := time.Date(2263, 1, 1, 0, 0, 0, 0, time.UTC)
	beforeYearZero := time.Date(-50, 1, 1, 0, 0, 0, 0, time.UTC)
	afterYear9999 := time.Date(12000, 1, 1, 0, 0, 0, 0, time.UTC)
	huge := decimal.RequireFromString("100000000000000000000")

	tests := []struct {
		name   string
		filter core.Filter
	}{
		{"identity", core.Filter{}},
		{"january", core.Filter{Start: &start, End: &end}},
		{"sub-cent minimum", core.Filter{MinAmount: &minBound}},
		{"exact maximum", core.Filter{MaxAmount: &maxBound}},
		{"zero maximum", core.Filter{MaxAmount: &zero}},
		{"only start", core.Filter{Start: &start}},
		{"end in year 2999", core.Filter{Start: &wideStart, End: &wideEnd}},
		{"start after 2262", core.Filter{Start: &after2262}},
		{"bounds beyond four digit years", core.Filter{Start: &beforeYearZero, End: &afterYear9999}},
		{"start beyond four digit years", core.Filter{Start: &afterYear9999}},
		{"maximum above amount limit", core.Filter{MaxAmount: &huge}},
		{"minimum above amount limit", core.Filter{MinAmount: &huge}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := core.Search(all, tt.filter)
			if err != nil {
				t.Fatalf("core.Search: %v", err)
			}
			got, err := repo.ListByOwnerFiltered(ctx, u.ID, tt.filter)
			if err != nil {
				t.Fatalf("ListByOwnerFiltered: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("got %d transactions, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i].ID != want[i].ID {
					t.Fatalf("position %d: got id %d, want %d", i, got[i].ID, want[i].ID)
				}
			}
		})
	}
}

func TestCreateTransactionRejectsUnstorableValues(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := mustUser(t, repo, "ada@example.com")
	at := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		tx   core.Transaction
		want error
	}{
		{"amount past int64 cents", core.Transaction{Amount: decimal.RequireFromString("100000000000000000000"), CreatedAt: at}, core.ErrInvalidAmount},
		{"amount just above limit", core.Transaction{Amount: decimal.RequireFromString("100000000.00"), CreatedAt: at}, core.ErrInvalidAmount},
		{"year after 9999", core.Transaction{Amount: decimal.NewFromInt(1), CreatedAt: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)}, core.ErrTimestampRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := tt.tx
			tx.OwnerID = u.ID
			tx.Kind = core.Expense
			tx.Description = "big"
			if _, err := repo.CreateTransaction(ctx, tx); !errors.Is(err, tt.want) {
				t.Fatalf("CreateTransaction error = %v, want %v", err, tt.want)
			}
		})
	}

	limit := mustTx(t, repo, core.Transaction{OwnerID: u.ID, Amount: core.AmountLimit, Kind: core.Income, Description: "limit", CreatedAt: at})
	got, err := repo.GetTransaction(ctx, u.ID, limit.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !got.Amount.Equal(core.AmountLimit) {
		t.Fatalf("amount = %s, want %s", got.Amount, core.AmountLimit)
	}
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := mustUser(t, repo, "ada@example.com")

	food, err := repo.CreateCategory(ctx, core.Category{OwnerID: u.ID, Name: "food"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := repo.CreateCategory(ctx, core.Category{OwnerID: u.ID, Name: "books"}); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := repo.CreateCategory(ctx, core.Category{OwnerID: u.ID, Name: "food"}); !errors.Is(err, ports.ErrAlreadyExists) {
		t.Fatalf("duplicate category error = %v, want ErrAlreadyExists", err)
	}

	list, err := repo.ListCategories(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(list) != 2 || list[0].Name != "books" || list[1].Name != "food" {
		t.Fatalf("ListCategories = %+v, want [books food]", list)
	}

	tx := mustTx(t, repo, core.Transaction{OwnerID: u.ID, CategoryID: &food.ID, Amount: decimal.NewFromInt(8), Kind: core.Expense, Description: "pizza", CreatedAt: time.Now()})

	if err := repo.DeleteCategory(ctx, u.ID, "food"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	got, err := repo.GetTransaction(ctx, u.ID, tx.ID)
	if err != nil {
		t.Fatalf("transaction should survive its category: %v", err)
	}
	if got.CategoryID != nil {
		t.Fatalf("category id = %d, want nil", *got.CategoryID)
	}
	if _, err := repo.GetCategoryByName(ctx, u.ID, "food"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("deleted category error = %v, want ErrNotFound", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := mustUser(t, repo, "ada@example.com")
	other := mustUser(t, repo, "bob@example.com")

	if _, err := repo.CreateCategory(ctx, core.Category{OwnerID: u.ID, Name: "rent"}); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	mustTx(t, repo, core.Transaction{OwnerID: u.ID, Amount: decimal.NewFromInt(900), Kind: core.Expense, Description: "rent", CreatedAt: time.Now()})
	mustTx(t, repo, core.Transaction{OwnerID: other.ID, Amount: decimal.NewFromInt(1), Kind: core.Income, Description: "tip", CreatedAt: time.Now()})

	if err := repo.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	txs, err := repo.ListByOwner(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("transactions left after delete: %d", len(txs))
	}
	cats, err := repo.ListCategories(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 0 {
		t.Fatalf("categories left after delete: %d", len(cats))
	}

	rest, err := repo.ListByOwner(ctx, other.ID)
	if err != nil {
		t.Fatalf("ListByOwner other: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("other user's transactions = %d, want 1", len(rest))
	}
}

func TestAuditEvents(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	at := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	events := []core.LedgerEvent{
		{Type: core.EventTransactionCreated, OwnerID: 1, TransactionID: 10, MonthKey: "2024-05", OccurredAt: at},
		{Type: core.EventCategoryDeleted, OwnerID: 1, OccurredAt: at.Add(time.Second)},
		{Type: core.EventTransactionCreated, OwnerID: 2, TransactionID: 11, MonthKey: "2024-05", OccurredAt: at},
	}
	for _, e := range events {
		if err := repo.RecordEvent(ctx, e); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}

	got, err := repo.ListEvents(ctx, 1)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Type != core.EventTransactionCreated || got[0].TransactionID != 10 || !got[0].OccurredAt.Equal(at) {
		t.Fatalf("first event = %+v", got[0])
	}
	if got[1].TransactionID != 0 || got[1].MonthKey != "" {
		t.Fatalf("second event = %+v", got[1])
	}
}
