package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Record is a stored session payload. Payload is the JSON encoding of Data.
type Record struct {
	Token     string
	Payload   []byte
	UpdatedAt time.Time
}

// Store persists session payloads keyed by token. Implementations must be safe
// for concurrent use across different tokens.
type Store interface {
	Get(ctx context.Context, token string) (Record, error)
	Put(ctx context.Context, token string, payload []byte, now time.Time) error
	Delete(ctx context.Context, token string) error
	// Prune deletes sessions last updated before cutoff.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
	List(ctx context.Context) ([]Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the store named by kind. dsn is ignored for the memory store.
func Open(ctx context.Context, kind, dsn string) (Store, error) {
	switch kind {
	case "", StoreMemory:
		return NewMemoryStore(), nil
	case StoreSQLite, StorePostgres:
		return OpenSQLStore(ctx, kind, dsn)
	default:
		return nil, errors.New("unsupported session store: " + kind)
	}
}
