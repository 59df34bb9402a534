// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrUnavailable, etc.)
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"

	"github.com/jsamuelsen/quotevault/internal/domain"
)

// KeyValue is the contract for the key-value collaborators: a durable
// store for the collection snapshot and the category filter, and a
// session-scoped store for the last shown quote. The application layer
// never cares which engine backs a key, only that Set overwrites the
// whole value atomically (last write wins).
type KeyValue interface {
	// Get retrieves the value for a key.
	// Returns domain.ErrNotFound if the key has never been set.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value, replacing any previous value for the key.
	Set(ctx context.Context, key string, value []byte) error
}

// RemoteSource is the contract for the network collaborator. Mapping an
// upstream wire shape into quote records belongs to the implementation,
// not to the reconciler.
type RemoteSource interface {
	// FetchQuotes retrieves the current remote snapshot.
	// Returns domain.ErrUnavailable for transport failures, timeouts,
	// and non-success statuses, and domain.ErrFormat when the body
	// cannot be decoded.
	FetchQuotes(ctx context.Context) ([]domain.Quote, error)

	// PushQuote sends one local record upstream. This is the
	// fire-and-forget write path: callers log failures and never
	// retry synchronously.
	PushQuote(ctx context.Context, q domain.Quote) error
}
