package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"sentinel/internal/core"
)

// InMemory is a brute-force, cosine-similarity Store useful for tests and
// for deployments too small to warrant a dedicated vector database. It
// mirrors the Store contract exactly, including dimension-mismatch
// failures and id-fidelity preservation.
type InMemory struct {
	dimension int

	mu      sync.RWMutex
	vectors map[core.MessageId][]float32
	meta    map[core.MessageId]map[string]string
}

// NewInMemory constructs an InMemory store for the given dimensionality.
func NewInMemory(dimension int) *InMemory {
	return &InMemory{
		dimension: dimension,
		vectors:   make(map[core.MessageId][]float32),
		meta:      make(map[core.MessageId]map[string]string),
	}
}

// Upsert implements Store.
func (m *InMemory) Upsert(_ context.Context, id core.MessageId, embedding []float32, metadata map[string]string) error {
	if len(embedding) != m.dimension {
		return &ErrDimensionMismatch{Expected: m.dimension, Actual: len(embedding)}
	}
	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[id] = vec
	if metadata != nil {
		cp := make(map[string]string, len(metadata))
		for k, v := range metadata {
			cp[k] = v
		}
		m.meta[id] = cp
	} else {
		delete(m.meta, id)
	}
	return nil
}

// Delete implements Store.
func (m *InMemory) Delete(_ context.Context, id core.MessageId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, id)
	delete(m.meta, id)
	return nil
}

// Search implements Store.
func (m *InMemory) Search(_ context.Context, query []float32, limit int) ([]Result, error) {
	if len(query) != m.dimension {
		return nil, &ErrDimensionMismatch{Expected: m.dimension, Actual: len(query)}
	}
	if limit <= 0 {
		limit = 10
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Result, 0, len(m.vectors))
	for id, vec := range m.vectors {
		results = append(results, Result{
			ID:       id,
			Score:    cosineSimilarity(query, vec),
			Metadata: m.meta[id],
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Dimension implements Store.
func (m *InMemory) Dimension() int { return m.dimension }

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ Store = (*InMemory)(nil)
