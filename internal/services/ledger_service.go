package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 5 * time.Minute
)

type categoryKey struct {
	owner int64
	name  string
}

// LedgerService orchestrates ledger operations over a repository and an
// optional event publisher. Writes hit the repository first; events are
// best effort.
type LedgerService struct {
	repo       ports.Repository
	publisher  ports.EventPublisher
	categories *cache.LRU[categoryKey, core.Category]
	now        func() time.Time
	logger     *log.Logger
}

type Option func(*LedgerService)

// WithPublisher enables ledger events. A nil publisher disables them.
func WithPublisher(p ports.EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l.WithComponent(log.ComponentLedger) }
}

func WithCategoryCache(size int, ttl time.Duration) Option {
	return func(s *LedgerService) {
		if size > 0 {
			s.categories = cache.NewLRU[categoryKey, core.Category](size, ttl)
		}
	}
}

func NewLedgerService(repo ports.Repository, opts ...Option) *LedgerService {
	s := &LedgerService{
		repo:       repo,
		categories: cache.NewLRU[categoryKey, core.Category](defaultCacheSize, defaultCacheTTL),
		now:        time.Now,
		logger:     log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTransaction is the input of CreateTransaction. A zero CreatedAt means
// now; Category is an optional category name.
type NewTransaction struct {
	OwnerID     int64
	Amount      decimal.Decimal
	Kind        core.Kind
	Description string
	Category    string
	CreatedAt   time.Time
}

// TransactionPatch lists the fields EditTransaction changes. Nil fields are
// kept. A Category pointing at "" detaches the transaction from its category.
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Kind        *core.Kind
	Description *string
	Category    *string
}

func (p TransactionPatch) IsZero() bool {
	return p.Amount == nil && p.Kind == nil && p.Description == nil && p.Category == nil
}

// UserStats counts what a user owns.
type UserStats struct {
	User         core.User
	Categories   int
	Transactions int
}

// CreateAccount registers a user. Emails are unique regardless of case.
func (s *LedgerService) CreateAccount(ctx context.Context, name, email string) (core.User, error) {
	u := core.User{
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		CreatedAt: s.now(),
	}
	created, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("create account: %w", err)
	}
	s.logger.InfoContext(ctx, "Account created",
		log.NewFields().WithOwner(created.ID).WithOperation(log.OpCreate).ToSlice()...)
	return created, nil
}

// Login resolves email to a user and stamps its last login.
func (s *LedgerService) Login(ctx context.Context, email string) (core.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, fmt.Errorf("login: %w", err)
	}
	at := s.now()
	if err := s.repo.TouchLogin(ctx, u.ID, at); err != nil {
		return core.User{}, fmt.Errorf("login: %w", err)
	}
	u.LastLogin = &at
	s.logger.InfoContext(ctx, "User logged in", log.FieldOwnerID, u.ID)
	return u, nil
}

func (s *LedgerService) AccountByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, fmt.Errorf("find account: %w", err)
	}
	return u, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, id int64) (core.User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("get account: %w", err)
	}
	return u, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return users, nil
}

// DeleteAccount removes the user with all of its categories and transactions.
func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.categories.DeleteFunc(func(k categoryKey) bool { return k.owner == id })
	s.logger.InfoContext(ctx, "Account deleted",
		log.NewFields().WithOwner(id).WithOperation(log.OpDelete).ToSlice()...)
	s.publish(ctx, core.LedgerEvent{Type: core.EventAccountDeleted, OwnerID: id})
	return nil
}

func (s *LedgerService) CreateCategory(ctx context.Context, ownerID int64, name string) (core.Category, error) {
	if _, err := s.repo.GetUser(ctx, ownerID); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	c, err := s.repo.CreateCategory(ctx, core.Category{
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(name),
		CreatedAt: s.now(),
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.categories.Set(categoryKey{ownerID, c.Name}, c)
	s.logger.InfoContext(ctx, "Category created", log.FieldOwnerID, ownerID, log.FieldCategory, c.Name)
	return c, nil
}

// ListCategories returns the owner's categories ordered by name.
func (s *LedgerService) ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	cats, err := s.repo.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// FindCategory looks a category up by exact name, through the cache.
func (s *LedgerService) FindCategory(ctx context.Context, ownerID int64, name string) (core.Category, error) {
	key := categoryKey{ownerID, strings.TrimSpace(name)}
	if c, ok := s.categories.Get(key); ok {
		return c, nil
	}
	c, err := s.repo.GetCategoryByName(ctx, ownerID, key.name)
	if err != nil {
		return core.Category{}, fmt.Errorf("find category: %w", err)
	}
	s.categories.Set(key, c)
	return c, nil
}

// DeleteCategory removes the category; its transactions become uncategorized.
func (s *LedgerService) DeleteCategory(ctx context.Context, ownerID int64, name string) error {
	name = strings.TrimSpace(name)
	s.categories.Delete(categoryKey{ownerID, name})
	if err := s.repo.DeleteCategory(ctx, ownerID, name); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category deleted", log.FieldOwnerID, ownerID, log.FieldCategory, name)
	s.publish(ctx, core.LedgerEvent{Type: core.EventCategoryDeleted, OwnerID: ownerID})
	return nil
}

// CreateTransaction rounds the amount half-up to cents and stores it.
func (s *LedgerService) CreateTransaction(ctx context.Context, nt NewTransaction) (core.Transaction, error) {
	if _, err := s.repo.GetUser(ctx, nt.OwnerID); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	t := core.Transaction{
		OwnerID:     nt.OwnerID,
		Amount:      core.RoundAmount(nt.Amount),
		Kind:        nt.Kind,
		Description: strings.TrimSpace(nt.Description),
		CreatedAt:   nt.CreatedAt,
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if nt.Category != "" {
		c, err := s.FindCategory(ctx, nt.OwnerID, nt.Category)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
		}
		t.CategoryID = &c.ID
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	saved, err := s.repo.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		log.NewFields().WithTransaction(saved).WithOperation(log.OpCreate).ToSlice()...)
	s.publishTransaction(ctx, core.EventTransactionCreated, saved)
	return saved, nil
}

// ListTransactions returns the owner's transactions, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	txs, err := s.repo.ListByOwnerFiltered(ctx, ownerID, core.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// FindTransaction returns the oldest transaction with exactly this description.
func (s *LedgerService) FindTransaction(ctx context.Context, ownerID int64, description string) (core.Transaction, error) {
	t, err := s.repo.FindTransactionByDescription(ctx, ownerID, strings.TrimSpace(description))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("find transaction: %w", err)
	}
	return t, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	t, err := s.repo.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// EditTransaction applies patch under the same rules as creation.
func (s *LedgerService) EditTransaction(ctx context.Context, ownerID, id int64, patch TransactionPatch) (core.Transaction, error) {
	t, err := s.repo.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("edit transaction: %w", err)
	}
	if patch.IsZero() {
		return t, nil
	}

	if patch.Amount != nil {
		t.Amount = core.RoundAmount(*patch.Amount)
	}
	if patch.Kind != nil {
		t.Kind = *patch.Kind
	}
	if patch.Description != nil {
		t.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		if *patch.Category == "" {
			t.CategoryID = nil
		} else {
			c, err := s.FindCategory(ctx, ownerID, *patch.Category)
			if err != nil {
				return core.Transaction{}, fmt.Errorf("edit transaction: %w", err)
			}
			t.CategoryID = &c.ID
		}
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("edit transaction: %w", err)
	}

	if err := s.repo.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("edit transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction updated",
		log.NewFields().WithTransaction(t).WithOperation(log.OpUpdate).ToSlice()...)
	s.publishTransaction(ctx, core.EventTransactionUpdated, t)
	return t, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	t, err := s.repo.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return s.deleteTransaction(ctx, t)
}

// DeleteTransactionByDescription deletes the oldest exact match and returns it.
func (s *LedgerService) DeleteTransactionByDescription(ctx context.Context, ownerID int64, description string) (core.Transaction, error) {
	t, err := s.FindTransaction(ctx, ownerID, description)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", err)
	}
	if err := s.deleteTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (s *LedgerService) deleteTransaction(ctx context.Context, t core.Transaction) error {
	if err := s.repo.DeleteTransaction(ctx, t.OwnerID, t.ID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.NewFields().WithTransaction(t).WithOperation(log.OpDelete).ToSlice()...)
	s.publishTransaction(ctx, core.EventTransactionDeleted, t)
	return nil
}

// SearchTransactions returns the matches of f, newest first. No match is an
// empty slice, not an error.
func (s *LedgerService) SearchTransactions(ctx context.Context, ownerID int64, f core.Filter) ([]core.Transaction, error) {
	txs, err := s.repo.ListByOwnerFiltered(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("search transactions: %w", err)
	}
	s.logger.DebugContext(ctx, "Transactions searched",
		log.FieldOwnerID, ownerID, log.FieldCount, len(txs))
	return txs, nil
}

func (s *LedgerService) MonthlySummary(ctx context.Context, ownerID int64) (core.Summary, error) {
	txs, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	summary, err := core.Summarize(txs)
	if err != nil {
		s.logContractViolation(ctx, ownerID, err)
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	return summary, nil
}

func (s *LedgerService) DetailedReport(ctx context.Context, ownerID int64) (core.DetailedReport, error) {
	txs, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("detailed report: %w", err)
	}
	report, err := core.Detail(txs)
	if err != nil {
		s.logContractViolation(ctx, ownerID, err)
		return nil, fmt.Errorf("detailed report: %w", err)
	}
	return report, nil
}

// Balance totals every transaction the owner has.
func (s *LedgerService) Balance(ctx context.Context, ownerID int64) (core.Totals, error) {
	txs, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return core.Totals{}, fmt.Errorf("balance: %w", err)
	}
	totals, err := core.Balance(txs)
	if err != nil {
		s.logContractViolation(ctx, ownerID, err)
		return core.Totals{}, fmt.Errorf("balance: %w", err)
	}
	return totals, nil
}

// Stats counts categories and transactions per user, in user id order.
func (s *LedgerService) Stats(ctx context.Context) ([]UserStats, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	stats := make([]UserStats, 0, len(users))
	for _, u := range users {
		cats, err := s.repo.ListCategories(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("stats for user %d: %w", u.ID, err)
		}
		txs, err := s.repo.ListByOwner(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("stats for user %d: %w", u.ID, err)
		}
		stats = append(stats, UserStats{User: u, Categories: len(cats), Transactions: len(txs)})
	}
	return stats, nil
}

// Close closes the repository and, when it is closable, the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if closer, ok := s.publisher.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}

func (s *LedgerService) publishTransaction(ctx context.Context, typ core.EventType, t core.Transaction) {
	s.publish(ctx, core.LedgerEvent{
		Type:          typ,
		OwnerID:       t.OwnerID,
		TransactionID: t.ID,
		MonthKey:      core.MonthKey(t.CreatedAt),
	})
}

// publish never fails the write that triggered it.
func (s *LedgerService) publish(ctx context.Context, e core.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now()
	}
	if err := s.publisher.PublishLedgerEvent(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.NewFields().WithEvent(e).WithOperation(log.OpPublish).WithError(err).ToSlice()...)
	}
}

func (s *LedgerService) logContractViolation(ctx context.Context, ownerID int64, err error) {
	var cv *core.ContractViolation
	if errors.As(err, &cv) {
		s.logger.ErrorContext(ctx, "Stored transaction violates reporting contract",
			log.FieldOwnerID, ownerID,
			log.FieldTransactionID, cv.TransactionID,
			log.FieldError, cv.Err.Error())
	}
}
