package search

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const defaultTavilyURL = "https://api.tavily.com"

// TavilyAdapter queries the Tavily search API. With the include_answer
// option set, Tavily returns a generated answer directly; otherwise the
// adapter returns the retrieved documents for extraction.
type TavilyAdapter struct {
	apiKey     string
	baseURL    string
	options    map[string]any
	httpClient *http.Client
}

func NewTavilyAdapter(apiKey, baseURL string, options map[string]any) *TavilyAdapter {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultTavilyURL
	}
	return &TavilyAdapter{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(url, "/"),
		options:    options,
		httpClient: newHTTPClient(),
	}
}

func (a *TavilyAdapter) Name() string {
	return "tavily"
}

func (a *TavilyAdapter) includeAnswer() bool {
	v, ok := a.options["include_answer"]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (a *TavilyAdapter) Answer(ctx context.Context, query string) (*Result, error) {
	if a == nil {
		return nil, errors.New("search: tavily: nil adapter")
	}
	if a.apiKey == "" {
		return nil, errors.New("search: tavily: missing api key")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search: tavily: empty query")
	}

	payload := map[string]any{
		"query":   query,
		"api_key": a.apiKey,
	}
	for k, v := range a.options {
		payload[k] = v
	}

	var resp tavilyResponse
	if err := postJSON(ctx, a.httpClient, a.baseURL+"/search", nil, payload, &resp); err != nil {
		return nil, err
	}

	out := &Result{Direct: a.includeAnswer()}
	if out.Direct {
		out.Answer = resp.Answer
		return out, nil
	}

	for _, r := range resp.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		out.Documents = append(out.Documents, Document{URL: r.URL, Content: r.Content})
	}
	return out, nil
}
