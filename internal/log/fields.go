package log

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldOwnerID       = "owner_id"
	FieldTransactionID = "transaction_id"
	FieldMonthKey      = "month_key"
	FieldAmount        = "amount"
	FieldKind          = "kind"
	FieldCategory      = "category"
	FieldEventType     = "event_type"
	FieldCount         = "count"
	FieldRunID         = "run_id"
	FieldCommand       = "command"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
	ComponentSeed    = "seed"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSearch   = "search"
	OpReport   = "report"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpSeed     = "seed"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError is a no-op for a nil error.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithOwner(ownerID int64) LogFields {
	f[FieldOwnerID] = ownerID
	return f
}

// WithTransaction adds the id, kind, amount and month bucket of t.
func (f LogFields) WithTransaction(t core.Transaction) LogFields {
	f[FieldOwnerID] = t.OwnerID
	f[FieldTransactionID] = t.ID
	f[FieldKind] = t.Kind.String()
	f[FieldAmount] = core.FormatAmount(t.Amount)
	if !t.CreatedAt.IsZero() {
		f[FieldMonthKey] = core.MonthKey(t.CreatedAt)
	}
	return f
}

func (f LogFields) WithAmount(d decimal.Decimal) LogFields {
	f[FieldAmount] = core.FormatAmount(d)
	return f
}

func (f LogFields) WithEvent(e core.LedgerEvent) LogFields {
	f[FieldEventType] = string(e.Type)
	f[FieldOwnerID] = e.OwnerID
	if e.TransactionID != 0 {
		f[FieldTransactionID] = e.TransactionID
	}
	if e.MonthKey != "" {
		f[FieldMonthKey] = e.MonthKey
	}
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
