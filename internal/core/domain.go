package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const maxDescriptionLen = 200

type (
	// Kind classifies a transaction as money coming in or going out.
	Kind string

	User struct {
		ID        int64
		PublicID  string // UUID shown to the account holder
		Name      string
		Email     string
		CreatedAt time.Time
		LastLogin *time.Time
	}

	Category struct {
		ID        int64
		OwnerID   int64
		Name      string
		CreatedAt time.Time
	}

	Transaction struct {
		ID          int64
		OwnerID     int64
		CategoryID  *int64 // weak reference, nil when uncategorized
		Amount      decimal.Decimal
		Kind        Kind
		Description string
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingOwner     = errors.New("missing owner")
	ErrMissingTimestamp = errors.New("missing created timestamp")
	ErrTimestampRange   = errors.New("timestamp outside years 0000-9999 UTC")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidMonthKey  = errors.New("invalid month key")
)

// ContractViolation reports a transaction that reached the reporting core
// without a field the core relies on. It is never skipped silently.
type ContractViolation struct {
	TransactionID int64
	Err           error
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("transaction %d: %v", e.TransactionID, e.Err)
}

func (e *ContractViolation) Unwrap() error {
	return e.Err
}

// ParseKind accepts "income" or "expense" in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (k Kind) String() string {
	return string(k)
}

// Validate checks the rules enforced when a transaction is created or edited.
func (t Transaction) Validate() error {
	if t.OwnerID <= 0 {
		return ErrMissingOwner
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if !t.Amount.IsPositive() || t.Amount.GreaterThan(AmountLimit) {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > maxDescriptionLen {
		return fmt.Errorf("description too long (max %d characters)", maxDescriptionLen)
	}
	if t.CreatedAt.IsZero() {
		return ErrMissingTimestamp
	}
	if !InTimestampRange(t.CreatedAt) {
		return ErrTimestampRange
	}
	return nil
}

// InTimestampRange reports whether t falls in a four digit UTC year, the
// range storage can sort.
func InTimestampRange(t time.Time) bool {
	y := t.UTC().Year()
	return y >= 0 && y <= 9999
}

// checkReportable verifies the fields grouping and ordering depend on.
func (t Transaction) checkReportable() error {
	if t.CreatedAt.IsZero() {
		return &ContractViolation{TransactionID: t.ID, Err: ErrMissingTimestamp}
	}
	if !t.Kind.Valid() {
		return &ContractViolation{TransactionID: t.ID, Err: ErrInvalidKind}
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if !ValidEmail(u.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidEmail reports whether email has a local part, an "@" and a dotted domain.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}

func (c Category) Validate() error {
	if c.OwnerID <= 0 {
		return ErrMissingOwner
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
