package backend

import (
	"context"

	"budget/internal/core"
	"budget/internal/ports"
)

// Store is everything a storage backend provides
type Store interface {
	ports.CategoryStore
	ports.SettingsStore
	ports.EventRecorder
	ListCategoryEvents(ctx context.Context, userID string, limit int) ([]core.CategoryEvent, error)
	HealthCheck(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// HealthChecker reports whether a dependency is usable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Store Store
	// Publisher is nil when no broker is configured or reachable
	Publisher ports.EventPublisher
	// Checks lists named dependencies for readiness probes
	Checks  map[string]HealthChecker
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific
	SeedFile string

	// AMQP, applies to every backend type
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
