// Package vector defines the long-term memory port: a swappable vector
// index abstraction, plus concrete adapters.
package vector

import (
	"context"

	"sentinel/internal/core"
)

// Result is one hit from a similarity search. ID is always the caller's
// original MessageId, regardless of what identifier scheme the backing
// store requires internally — preserving id fidelity end-to-end is an
// invariant every adapter must uphold.
type Result struct {
	ID       core.MessageId
	Score    float32
	Metadata map[string]string
}

// Store is the abstract long-term memory port. Production implementations
// (Qdrant, or any other vector database) and test doubles are
// interchangeable behind this interface.
type Store interface {
	// Upsert inserts or replaces the embedding for id. Upserting an
	// existing id is idempotent: it replaces the prior vector and
	// metadata rather than creating a duplicate entry.
	Upsert(ctx context.Context, id core.MessageId, embedding []float32, metadata map[string]string) error
	// Search returns up to limit nearest neighbors to query, ranked by
	// similarity.
	Search(ctx context.Context, query []float32, limit int) ([]Result, error)
	// Delete removes id, if present. Deleting a missing id is a no-op.
	Delete(ctx context.Context, id core.MessageId) error
	// Dimension returns the vector dimensionality this store was
	// configured for.
	Dimension() int
}

// ErrDimensionMismatch is returned by Upsert/Search when the given vector
// does not match the store's configured dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return "vector dimension mismatch"
}
