package search

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const defaultExaURL = "https://api.exa.ai"

// ExaAdapter queries the Exa search API and returns retrieved documents.
type ExaAdapter struct {
	apiKey     string
	baseURL    string
	options    map[string]any
	httpClient *http.Client
}

func NewExaAdapter(apiKey, baseURL string, options map[string]any) *ExaAdapter {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultExaURL
	}
	return &ExaAdapter{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(url, "/"),
		options:    options,
		httpClient: newHTTPClient(),
	}
}

func (a *ExaAdapter) Name() string {
	return "exa"
}

type exaResponse struct {
	Results []struct {
		URL  string `json:"url"`
		Text string `json:"text"`
	} `json:"results"`
}

func (a *ExaAdapter) Answer(ctx context.Context, query string) (*Result, error) {
	if a == nil {
		return nil, errors.New("search: exa: nil adapter")
	}
	if a.apiKey == "" {
		return nil, errors.New("search: exa: missing api key")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search: exa: empty query")
	}

	payload := map[string]any{"query": query}
	for k, v := range a.options {
		payload[k] = v
	}

	headers := map[string]string{"x-api-key": a.apiKey}

	var resp exaResponse
	if err := postJSON(ctx, a.httpClient, a.baseURL+"/search", headers, payload, &resp); err != nil {
		return nil, err
	}

	out := &Result{}
	for _, r := range resp.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		out.Documents = append(out.Documents, Document{URL: r.URL, Content: r.Text})
	}
	return out, nil
}
