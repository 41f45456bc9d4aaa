package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// LedgerEventMessage is the wire form of core.LedgerEvent. It carries ids
// only; consumers read the ledger for anything else.
type LedgerEventMessage struct {
	Type          core.EventType `json:"type"`
	OwnerID       int64          `json:"owner_id"`
	TransactionID int64          `json:"transaction_id,omitempty"`
	MonthKey      string         `json:"month_key,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

func NewLedgerEventMessage(e core.LedgerEvent) *LedgerEventMessage {
	return &LedgerEventMessage{
		Type:          e.Type,
		OwnerID:       e.OwnerID,
		TransactionID: e.TransactionID,
		MonthKey:      e.MonthKey,
		Timestamp:     e.OccurredAt,
	}
}

func (m *LedgerEventMessage) Event() core.LedgerEvent {
	return core.LedgerEvent{
		Type:          m.Type,
		OwnerID:       m.OwnerID,
		TransactionID: m.TransactionID,
		MonthKey:      m.MonthKey,
		OccurredAt:    m.Timestamp,
	}
}

// Validate rejects messages a consumer cannot record.
func (m *LedgerEventMessage) Validate() error {
	if !m.Type.Valid() {
		return fmt.Errorf("unknown event type %q", m.Type)
	}
	if m.OwnerID <= 0 {
		return errors.New("missing owner id")
	}
	if m.Timestamp.IsZero() {
		return errors.New("missing timestamp")
	}
	switch m.Type {
	case core.EventTransactionCreated, core.EventTransactionUpdated, core.EventTransactionDeleted:
		if m.TransactionID <= 0 {
			return fmt.Errorf("%s event without transaction id", m.Type)
		}
	}
	if m.MonthKey != "" {
		if _, _, err := core.ParseMonthKey(m.MonthKey); err != nil {
			return fmt.Errorf("month key %q: %w", m.MonthKey, err)
		}
	}
	return nil
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes and validates a message body.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
