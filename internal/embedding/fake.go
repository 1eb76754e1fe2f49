package embedding

import (
	"context"
	"hash/fnv"
)

// Deterministic is a dependency-free Embedder used by tests and by
// deployments with no configured embedding provider. It derives a
// reproducible pseudo-embedding from the input text's hash so the same
// text always embeds to the same vector, without calling out to any
// external service.
type Deterministic struct {
	dimension int
}

// NewDeterministic constructs a Deterministic embedder of the given
// dimension.
func NewDeterministic(dimension int) *Deterministic {
	return &Deterministic{dimension: dimension}
}

// Embed implements Embedder.
func (d *Deterministic) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	out := make([]float32, d.dimension)
	for i := range out {
		seed = seed*6364136223846793005 + 1442695040888963407
		out[i] = float32(seed%2000)/1000 - 1 // in [-1, 1)
	}
	return out, nil
}

// Dimension implements Embedder.
func (d *Deterministic) Dimension() int { return d.dimension }

var _ Embedder = (*Deterministic)(nil)
