package search

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultPerplexityURL   = "https://api.perplexity.ai"
	defaultPerplexityModel = "sonar-pro"
)

// PerplexityAdapter asks the Perplexity online model directly. Its API is
// OpenAI-compatible, so the answer comes back as a chat completion and needs
// no document extraction.
type PerplexityAdapter struct {
	client *openai.Client
	model  string
}

func NewPerplexityAdapter(apiKey, baseURL, model string) *PerplexityAdapter {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultPerplexityURL
	}
	cfg.BaseURL = strings.TrimRight(u, "/")

	m := strings.TrimSpace(model)
	if m == "" {
		m = defaultPerplexityModel
	}

	return &PerplexityAdapter{
		client: openai.NewClientWithConfig(cfg),
		model:  m,
	}
}

func (a *PerplexityAdapter) Name() string {
	return "perplexity"
}

func (a *PerplexityAdapter) Answer(ctx context.Context, query string) (*Result, error) {
	if a == nil || a.client == nil {
		return nil, errors.New("search: perplexity: nil adapter")
	}
	if ctx == nil {
		return nil, errors.New("search: perplexity: nil context")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search: perplexity: empty query")
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "Be precise and concise."},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("search: perplexity: empty choices")
	}

	return &Result{
		Answer: resp.Choices[0].Message.Content,
		Direct: true,
	}, nil
}
