package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/simpleqa-bench/internal/llm"
	"github.com/stellarlinkco/simpleqa-bench/internal/search"
)

const llmResponsePrompt = `You are an advanced assistant operating in strict extraction mode.
Your mission is to extract only the direct, final answer to the user's query, based solely on the provided response.

Rules (non-negotiable):
- Do not explain, paraphrase, summarize, or add any context.
- Return only the final answer and nothing else.

Query:
%s

Response:
%s

Now return the single, most accurate answer to the query.`

const documentsPrompt = `You are an advanced assistant operating in strict extraction mode.
Your mission is to extract only the direct, final answer to the user's query, based solely on the provided list of documents. Each document includes a URL and Content.

Rules (non-negotiable):
- Do not explain, paraphrase, summarize, or add any context.
- Return only the final answer and nothing else.
- If multiple documents suggest different answers, choose the one from the most reliable URL (e.g., Wikipedia, .gov, .edu, official sources).

Query:
%s

Documents list:
%s

Now return the single, most accurate answer to the query.`

// Extractor reduces a provider's raw output to a terse final answer using an
// LLM, so the grader compares like with like across providers.
type Extractor struct {
	Provider llm.Provider
}

// Extract returns the final answer for the query. Direct provider answers
// and retrieved document lists use different extraction prompts.
func (e *Extractor) Extract(ctx context.Context, query string, res *search.Result) (string, error) {
	if e == nil || e.Provider == nil {
		return "", errors.New("extract: nil provider")
	}
	if ctx == nil {
		return "", errors.New("extract: nil context")
	}
	if res == nil {
		return "", errors.New("extract: nil search result")
	}

	var prompt string
	if res.Direct {
		if strings.TrimSpace(res.Answer) == "" {
			return "", nil
		}
		prompt = fmt.Sprintf(llmResponsePrompt, query, res.Answer)
	} else {
		if len(res.Documents) == 0 {
			return "", nil
		}
		prompt = fmt.Sprintf(documentsPrompt, query, search.FormatDocuments(res.Documents))
	}

	resp, err := e.Provider.Complete(ctx, &llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: 256,
	})
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}
	if resp == nil {
		return "", errors.New("extract: nil response")
	}
	return strings.TrimSpace(resp.Text), nil
}
