package ports

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Ports for outbound adapters.
type (
	// TransactionReader is the only source of transactions for reports and
	// search. Both methods are scoped to a single owner.
	TransactionReader interface {
		// ListByOwner returns the owner's transactions in insertion order.
		ListByOwner(ctx context.Context, ownerID int64) ([]core.Transaction, error)
		// ListByOwnerFiltered applies f with core.Search semantics: newest
		// first, equal timestamps in insertion order.
		ListByOwnerFiltered(ctx context.Context, ownerID int64, f core.Filter) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, ownerID, id int64) error
		GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error)
		// FindTransactionByDescription returns the oldest exact match.
		FindTransactionByDescription(ctx context.Context, ownerID int64, description string) (core.Transaction, error)
	}

	AccountStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		TouchLogin(ctx context.Context, id int64, at time.Time) error
		// DeleteUser removes the user together with its categories and transactions.
		DeleteUser(ctx context.Context, id int64) error
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		// ListCategories returns the owner's categories ordered by name.
		ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error)
		GetCategoryByName(ctx context.Context, ownerID int64, name string) (core.Category, error)
		// DeleteCategory detaches the category from its transactions before removing it.
		DeleteCategory(ctx context.Context, ownerID int64, name string) error
	}

	// EventPublisher announces completed ledger writes.
	EventPublisher interface {
		PublishLedgerEvent(ctx context.Context, e core.LedgerEvent) error
	}

	AuditWriter interface {
		RecordEvent(ctx context.Context, e core.LedgerEvent) error
	}

	AuditStore interface {
		AuditWriter
		// ListEvents returns the owner's recorded events, oldest first.
		ListEvents(ctx context.Context, ownerID int64) ([]core.LedgerEvent, error)
	}

	Repository interface {
		TransactionReader
		TransactionWriter
		AccountStore
		CategoryStore
		Close() error
	}
)
