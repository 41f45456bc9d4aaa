package backend

import (
	"context"
	"time"

	"fintrack/internal/ports"
	"fintrack/internal/services"
)

// Store is what every data backend provides.
type Store interface {
	ports.Repository
	ports.AuditStore
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult bundles the opened store with the service built on it.
// Publisher is nil when AMQP is disabled or unreachable.
type BackendResult struct {
	Store     Store
	Publisher ports.EventPublisher
	Service   *services.LedgerService
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Event publishing, skipped when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	AMQPPrefetch int

	CategoryCacheSize int
	CategoryCacheTTL  time.Duration
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
