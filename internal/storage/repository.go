package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/ports"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

// sortKeyLayout is fixed width for four digit years, so keys compare as text
// in instant order.
const sortKeyLayout = "2006-01-02T15:04:05.000000000Z"

const (
	minSortKey = "0000-01-01T00:00:00.000000000Z"
	maxSortKey = "9999-12-31T23:59:59.999999999Z"
)

func sortKey(t time.Time) string {
	return t.UTC().Format(sortKeyLayout)
}

// boundKey clamps a filter bound to the storable range. Stored keys always
// lie inside it, so clamping keeps inclusive comparisons exact.
func boundKey(t time.Time) string {
	switch y := t.UTC().Year(); {
	case y < 0:
		return minSortKey
	case y > 9999:
		return maxSortKey
	}
	return sortKey(t)
}

type SQLiteRepository struct {
	db *sql.DB
}

func dsn(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser inserts u, assigning a public id when it has none.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if u.PublicID == "" {
		u.PublicID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (public_id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		u.PublicID, u.Name, u.Email, u.CreatedAt.Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("user %s: %w", u.Email, ports.ErrAlreadyExists)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return core.User{}, fmt.Errorf("read user id: %w", err)
	}

	slog.InfoContext(ctx, "User saved to SQLite", "id", u.ID, "public_id", u.PublicID)
	return u, nil
}

const userColumns = `id, public_id, name, email, created_at, last_login`

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, notFound(err, fmt.Sprintf("user %d", id))
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email))
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, notFound(err, "user "+email)
	}
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteRepository) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at.Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return requireAffected(res, fmt.Sprintf("user %d", id))
}

// DeleteUser relies on ON DELETE CASCADE for categories and transactions.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := requireAffected(res, fmt.Sprintf("user %d", id)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "User deleted from SQLite", "id", id)
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, created_at) VALUES (?, ?, ?)`,
		c.OwnerID, c.Name, c.CreatedAt.Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("category %q: %w", c.Name, ports.ErrAlreadyExists)
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("read category id: %w", err)
	}

	slog.InfoContext(ctx, "Category saved to SQLite", "id", c.ID, "owner_id", c.OwnerID, "name", c.Name)
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM categories WHERE user_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) GetCategoryByName(ctx context.Context, ownerID int64, name string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM categories WHERE user_id = ? AND name = ?`, ownerID, name)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, notFound(err, fmt.Sprintf("category %q", name))
	}
	return c, nil
}

// DeleteCategory relies on ON DELETE SET NULL to detach transactions.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, ownerID int64, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE user_id = ? AND name = ?`, ownerID, name)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := requireAffected(res, fmt.Sprintf("category %q", name)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Category deleted from SQLite", "owner_id", ownerID, "name", name)
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.Amount = core.RoundAmount(t.Amount)

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, category_id, amount_cents, kind, description, created_at, created_at_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.OwnerID, nullableID(t.CategoryID), core.Cents(t.Amount), string(t.Kind), t.Description,
		t.CreatedAt.Format(timeLayout), sortKey(t.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return core.Transaction{}, fmt.Errorf("read transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"owner_id", t.OwnerID,
		"kind", t.Kind,
		"amount_cents", core.Cents(t.Amount))
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.Amount = core.RoundAmount(t.Amount)

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, amount_cents = ?, kind = ?, description = ?, created_at = ?, created_at_utc = ?
		WHERE id = ? AND user_id = ?`,
		nullableID(t.CategoryID), core.Cents(t.Amount), string(t.Kind), t.Description,
		t.CreatedAt.Format(timeLayout), sortKey(t.CreatedAt), t.ID, t.OwnerID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireAffected(res, fmt.Sprintf("transaction %d", t.ID))
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := requireAffected(res, fmt.Sprintf("transaction %d", id)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id, "owner_id", ownerID)
	return nil
}

const transactionColumns = `id, user_id, category_id, amount_cents, kind, description, created_at`

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, ownerID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err, fmt.Sprintf("transaction %d", id))
	}
	return t, nil
}

func (r *SQLiteRepository) FindTransactionByDescription(ctx context.Context, ownerID int64, description string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND description = ? ORDER BY id LIMIT 1`,
		ownerID, description)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err, fmt.Sprintf("transaction %q", description))
	}
	return t, nil
}

// ListByOwner returns the owner's transactions in insertion order.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY id`, ownerID)
}

// ListByOwnerFiltered pushes the filter into SQL. Amount bounds are mapped onto
// the cent grid (ceil for the minimum, floor for the maximum) so the integer
// comparison matches the decimal one in core.Filter.Match.
func (r *SQLiteRepository) ListByOwnerFiltered(ctx context.Context, ownerID int64, f core.Filter) ([]core.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{ownerID}
	)
	if f.Start != nil {
		where = append(where, "created_at_utc >= ?")
		args = append(args, boundKey(*f.Start))
	}
	if f.End != nil {
		where = append(where, "created_at_utc <= ?")
		args = append(args, boundKey(*f.End))
	}
	if f.MinAmount != nil {
		where = append(where, "amount_cents >= ?")
		args = append(args, core.CeilCents(*f.MinAmount))
	}
	if f.MaxAmount != nil {
		where = append(where, "amount_cents <= ?")
		args = append(args, core.FloorCents(*f.MaxAmount))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at_utc DESC, id ASC`
	return r.queryTransactions(ctx, query, args...)
}

// RecordEvent appends e to the audit trail.
func (r *SQLiteRepository) RecordEvent(ctx context.Context, e core.LedgerEvent) error {
	var txID any
	if e.TransactionID != 0 {
		txID = e.TransactionID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_audit (event_type, owner_id, transaction_id, month_key, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(e.Type), e.OwnerID, txID, e.MonthKey, e.OccurredAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListEvents returns the owner's audit trail, oldest first.
func (r *SQLiteRepository) ListEvents(ctx context.Context, ownerID int64) ([]core.LedgerEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_type, owner_id, transaction_id, month_key, occurred_at
		FROM ledger_audit WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	events := []core.LedgerEvent{}
	for rows.Next() {
		var (
			e         core.LedgerEvent
			eventType string
			txID      sql.NullInt64
			monthKey  sql.NullString
			occurred  string
		)
		if err := rows.Scan(&eventType, &e.OwnerID, &txID, &monthKey, &occurred); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Type = core.EventType(eventType)
		e.TransactionID = txID.Int64
		e.MonthKey = monthKey.String
		if e.OccurredAt, err = time.Parse(timeLayout, occurred); err != nil {
			return nil, fmt.Errorf("parse audit timestamp: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}
