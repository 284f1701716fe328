package knowledge

import (
	"context"
	"fmt"

	"rustex/internal/graph"
	"rustex/internal/model"
)

// Engine prepares extracted elements for embedding and answers semantic
// queries over the indexed project.
type Engine struct {
	project  *graph.Project
	embedder Embedder
	index    Indexer
}

// NewEngine creates a knowledge engine. Embedder and indexer may be nil
// when the engine is only used to build chunks.
func NewEngine(p *graph.Project, em Embedder, idx Indexer) *Engine {
	return &Engine{
		project:  p,
		embedder: em,
		index:    idx,
	}
}

// Chunks converts every extracted element into a chunk, in extraction
// order.
func (e *Engine) Chunks() []Chunk {
	chunks := make([]Chunk, 0, len(e.project.Elements))
	for _, el := range e.project.Elements {
		chunks = append(chunks, e.ChunkFor(el))
	}
	return chunks
}

// ChunkFor builds a structured chunk from one element, pulling its
// resolved dependencies and dependents from the project.
func (e *Engine) ChunkFor(el *model.CodeElement) Chunk {
	chunk := Chunk{
		ID:            el.ID,
		Name:          el.Name,
		ElementType:   string(el.ElementType),
		ModulePath:    el.Hierarchy.ModulePath,
		QualifiedName: el.Hierarchy.QualifiedName,
		File:          el.Location.File,
		Signature:     el.Signature,
		Doc:           el.DocSummary(),
	}
	if el.Metrics != nil {
		chunk.Complexity = el.Metrics.OverallScore()
	} else if el.Complexity != nil {
		chunk.Complexity = *el.Complexity
	}

	for _, dep := range e.project.DependenciesOf(el.ID) {
		chunk.Dependencies = append(chunk.Dependencies, dep.Name)
	}
	for _, user := range e.project.Dependents(el.ID) {
		chunk.UsedBy = append(chunk.UsedBy, user.Name)
	}
	return chunk
}

// ChunkByID builds the chunk for a single element id.
func (e *Engine) ChunkByID(id string) (Chunk, bool) {
	el, ok := e.project.Element(id)
	if !ok {
		return Chunk{}, false
	}
	return e.ChunkFor(el), true
}

// IndexAll embeds every chunk and adds the vectors to the index. Returns
// the number of chunks indexed.
func (e *Engine) IndexAll(ctx context.Context) (int, error) {
	if e.embedder == nil || e.index == nil {
		return 0, fmt.Errorf("embedder or indexer not initialized")
	}

	chunks := e.Chunks()
	var texts []string
	for _, c := range chunks {
		texts = append(texts, c.ToEmbeddableText())
	}

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(vectors), len(chunks))
	}

	items := make([]VectorItem, 0, len(chunks))
	for i, chunk := range chunks {
		items = append(items, VectorItem{
			Chunk:     chunk,
			Embedding: vectors[i],
		})
	}

	if err := e.index.Add(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// SearchRelated finds semantically similar elements for a given chunk to
// provide better context.
func (e *Engine) SearchRelated(ctx context.Context, chunk Chunk, topK int) ([]Chunk, error) {
	return e.SearchByText(ctx, chunk.ToEmbeddableText(), topK+1, chunk.ID)
}

// SearchByText finds elements semantically similar to the provided query
// text.
func (e *Engine) SearchByText(ctx context.Context, query string, topK int, excludeID string) ([]Chunk, error) {
	if e.embedder == nil || e.index == nil {
		return nil, fmt.Errorf("embedder or indexer not initialized")
	}

	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	items, err := e.index.Search(ctx, vectors[0], topK)
	if err != nil {
		return nil, err
	}

	var results []Chunk
	for _, item := range items {
		if item.Chunk.ID == excludeID {
			continue
		}
		results = append(results, item.Chunk)
	}
	return results, nil
}
