package core

import "time"

type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventCategoryDeleted    EventType = "category.deleted"
	EventAccountDeleted     EventType = "account.deleted"
)

// LedgerEvent describes a completed write against an owner's ledger.
type LedgerEvent struct {
	Type          EventType
	OwnerID       int64
	TransactionID int64  // zero for non-transaction events
	MonthKey      string // bucket touched, empty when not applicable
	OccurredAt    time.Time
}

func (t EventType) Valid() bool {
	switch t {
	case EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted,
		EventCategoryDeleted, EventAccountDeleted:
		return true
	}
	return false
}
