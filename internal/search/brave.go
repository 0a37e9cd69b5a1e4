package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultBraveURL = "https://api.search.brave.com/res/v1"

// BraveAdapter queries the Brave Search API and returns web results as
// documents.
type BraveAdapter struct {
	apiKey     string
	baseURL    string
	options    map[string]any
	httpClient *http.Client
}

func NewBraveAdapter(apiKey, baseURL string, options map[string]any) *BraveAdapter {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultBraveURL
	}
	return &BraveAdapter{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(u, "/"),
		options:    options,
		httpClient: newHTTPClient(),
	}
}

func (a *BraveAdapter) Name() string {
	return "brave"
}

type braveResponse struct {
	Web struct {
		Results []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (a *BraveAdapter) Answer(ctx context.Context, query string) (*Result, error) {
	if a == nil {
		return nil, errors.New("search: brave: nil adapter")
	}
	if a.apiKey == "" {
		return nil, errors.New("search: brave: missing api key")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search: brave: empty query")
	}

	params := url.Values{}
	params.Set("q", query)
	for k, v := range a.options {
		params.Set(k, fmt.Sprintf("%v", v))
	}

	headers := map[string]string{
		"X-Subscription-Token": a.apiKey,
		"Accept":               "application/json",
	}

	var resp braveResponse
	if err := getJSON(ctx, a.httpClient, a.baseURL+"/web/search?"+params.Encode(), headers, &resp); err != nil {
		return nil, err
	}

	out := &Result{}
	for _, r := range resp.Web.Results {
		u := strings.TrimSpace(r.URL)
		content := joinTitleBody(r.Title, r.Description)
		if u == "" || content == "" {
			continue
		}
		out.Documents = append(out.Documents, Document{URL: u, Content: content})
	}
	return out, nil
}
