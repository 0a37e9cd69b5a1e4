package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/simpleqa-bench/internal/config"
)

// NewGradingProvider builds the model provider used for grading and answer
// extraction from the grading section of the run config.
func NewGradingProvider(cfg *config.Config) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}

	g := cfg.Grading
	switch strings.ToLower(strings.TrimSpace(g.Provider)) {
	case "", "openai":
		return NewOpenAIProvider(g.APIKey, g.BaseURL, g.Model), nil
	case "claude", "anthropic":
		return NewClaudeProvider(g.APIKey, g.BaseURL, g.Model), nil
	default:
		return nil, fmt.Errorf("llm: unknown grading provider %q", g.Provider)
	}
}
