package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	geminiEmbedBatchSize = 50
	geminiEmbedDelay     = 700 * time.Millisecond
	geminiRetryDelay     = 6 * time.Second
	geminiMaxRetries     = 5
)

// GeminiEmbedder implements Embedder using Google's Gemini API.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
}

func NewGeminiEmbedder(ctx context.Context, apiKey string, modelName string, dim int) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiEmbedder{
		client:    client,
		model:     modelName,
		dimension: dim,
	}, nil
}

func (g *GeminiEmbedder) Dimension() int {
	return g.dimension
}

func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var config *genai.EmbedContentConfig
	if g.dimension > 0 {
		dim := int32(g.dimension)
		config = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	var results [][]float32
	for i := 0; i < len(texts); i += geminiEmbedBatchSize {
		if i > 0 {
			if !waitOrCancel(ctx, geminiEmbedDelay) {
				return nil, ctx.Err()
			}
		}
		end := i + geminiEmbedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := g.embedBatch(ctx, texts[i:end], config)
		if err != nil {
			return nil, err
		}
		results = append(results, vecs...)
	}
	return results, nil
}

func (g *GeminiEmbedder) embedBatch(ctx context.Context, batch []string, config *genai.EmbedContentConfig) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(batch))
	for _, text := range batch {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	var res *genai.EmbedContentResponse
	var err error
	for attempt := 0; attempt <= geminiMaxRetries; attempt++ {
		res, err = g.client.Models.EmbedContent(ctx, g.model, contents, config)
		if err == nil {
			break
		}
		if !isRateLimitError(err) || attempt == geminiMaxRetries {
			return nil, fmt.Errorf("failed to embed text: %w", err)
		}
		if !waitOrCancel(ctx, geminiRetryDelay) {
			return nil, ctx.Err()
		}
	}

	if len(res.Embeddings) != len(batch) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(res.Embeddings), len(batch))
	}
	out := make([][]float32, 0, len(batch))
	for _, emb := range res.Embeddings {
		out = append(out, emb.Values)
	}
	return out, nil
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "429") || strings.Contains(s, "RESOURCE_EXHAUSTED") || strings.Contains(s, "quota")
}
