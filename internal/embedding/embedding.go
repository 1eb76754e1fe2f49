// Package embedding defines the Embedder port the dreamer uses to promote
// medium-term summaries into the long-term vector index. The original
// reference implementation this system is based on left this capability
// unimplemented ("medium-to-long consolidation needs embedding
// generation"); this port closes that gap.
package embedding

import "context"

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
