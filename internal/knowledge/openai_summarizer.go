package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAISummarizer works against the OpenAI chat API or any compatible
// endpoint (including local servers exposing /v1/chat/completions).
type OpenAISummarizer struct {
	client        *http.Client
	apiKey        string
	model         string
	endpoint      string
	promptBuilder *PromptBuilder
}

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAISummarizer(apiKey, model, baseURL string) *OpenAISummarizer {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	} else {
		endpoint = strings.TrimRight(endpoint, "/")
		if !strings.HasSuffix(endpoint, "/chat/completions") {
			if strings.HasSuffix(endpoint, "/v1") {
				endpoint += "/chat/completions"
			} else {
				endpoint += "/v1/chat/completions"
			}
		}
	}
	return &OpenAISummarizer{
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		apiKey:        apiKey,
		model:         model,
		endpoint:      endpoint,
		promptBuilder: &PromptBuilder{},
	}
}

func (s *OpenAISummarizer) SummarizeProject(ctx context.Context, chunks []Chunk) (string, error) {
	return s.generate(ctx, s.promptBuilder.BuildProjectPrompt(chunks))
}

func (s *OpenAISummarizer) SummarizeElement(ctx context.Context, chunk Chunk, code string, related []Chunk) (string, error) {
	return s.generate(ctx, s.promptBuilder.BuildElementPrompt(chunk, code, related))
}

func (s *OpenAISummarizer) generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return "", fmt.Errorf("openai api key is required")
	}
	if strings.TrimSpace(s.model) == "" {
		return "", fmt.Errorf("openai model is required")
	}

	body, err := json.Marshal(openAIChatRequest{
		Model: s.model,
		Messages: []openAIChatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai chat request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "No analysis available.", nil
	}
	text := parsed.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "No analysis available.", nil
	}
	return cleanMarkdownOutput(text), nil
}
