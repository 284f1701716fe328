package storage

import (
	"context"

	"rustex/internal/graph"
	"rustex/internal/knowledge"
	"rustex/internal/model"
)

// Store combines project and vector storage capabilities.
type Store interface {
	ProjectStore
	VectorStore
	Close() error
}

// ProjectStore defines operations for persisting analysis results.
type ProjectStore interface {
	// SaveProject replaces the stored snapshot with the given project.
	SaveProject(ctx context.Context, p *graph.Project) error

	// LoadProject restores the last saved snapshot.
	LoadProject(ctx context.Context) (*graph.Project, error)

	// GetElement retrieves one element by its id.
	GetElement(ctx context.Context, id string) (*model.CodeElement, error)

	// ElementsInFile retrieves the elements of one file in extraction order.
	ElementsInFile(ctx context.Context, path string) ([]*model.CodeElement, error)
}

// VectorStore defines operations for semantic search.
type VectorStore interface {
	// SaveEmbeddings stores chunks with their vector representations.
	SaveEmbeddings(ctx context.Context, items []knowledge.VectorItem) error

	// SearchSimilar finds chunks semantically similar to the query vector.
	SearchSimilar(ctx context.Context, vector []float32, topK int) ([]knowledge.Chunk, error)
}
