package knowledge

import (
	"context"
)

// Embedder defines the interface for converting text to vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Summarizer defines the interface for generating natural-language analysis
// of extracted code.
type Summarizer interface {
	// SummarizeProject generates a high-level overview of the whole crate.
	SummarizeProject(ctx context.Context, chunks []Chunk) (string, error)
	// SummarizeElement provides a deep dive into one element, typically a
	// complexity hotspot, with its related elements as context.
	SummarizeElement(ctx context.Context, chunk Chunk, code string, related []Chunk) (string, error)
}

// VectorItem represents a chunk paired with its embedding.
type VectorItem struct {
	Chunk     Chunk
	Embedding []float32
}

// Indexer manages the storage and retrieval of VectorItems.
type Indexer interface {
	Add(ctx context.Context, items []VectorItem) error
	Search(ctx context.Context, queryVector []float32, topK int) ([]VectorItem, error)
}
