package knowledge

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiSummarizer implements Summarizer using Gemini text generation.
type GeminiSummarizer struct {
	client        *genai.Client
	model         string
	promptBuilder *PromptBuilder
}

func NewGeminiSummarizer(ctx context.Context, apiKey string, modelName string) (*GeminiSummarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiSummarizer{
		client:        client,
		model:         modelName,
		promptBuilder: &PromptBuilder{},
	}, nil
}

func (s *GeminiSummarizer) SummarizeProject(ctx context.Context, chunks []Chunk) (string, error) {
	return s.generate(ctx, s.promptBuilder.BuildProjectPrompt(chunks))
}

func (s *GeminiSummarizer) SummarizeElement(ctx context.Context, chunk Chunk, code string, related []Chunk) (string, error) {
	return s.generate(ctx, s.promptBuilder.BuildElementPrompt(chunk, code, related))
}

func (s *GeminiSummarizer) generate(ctx context.Context, prompt string) (string, error) {
	contents := genai.Text(prompt)
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "No analysis available.", nil
	}
	return cleanMarkdownOutput(text), nil
}
