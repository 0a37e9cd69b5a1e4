package search

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const defaultSerperURL = "https://google.serper.dev"

// SerperAdapter queries the Serper Google-search API and returns organic
// results as documents.
type SerperAdapter struct {
	apiKey     string
	baseURL    string
	options    map[string]any
	httpClient *http.Client
}

func NewSerperAdapter(apiKey, baseURL string, options map[string]any) *SerperAdapter {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultSerperURL
	}
	return &SerperAdapter{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(url, "/"),
		options:    options,
		httpClient: newHTTPClient(),
	}
}

func (a *SerperAdapter) Name() string {
	return "serper"
}

type serperResponse struct {
	Organic []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (a *SerperAdapter) Answer(ctx context.Context, query string) (*Result, error) {
	if a == nil {
		return nil, errors.New("search: serper: nil adapter")
	}
	if a.apiKey == "" {
		return nil, errors.New("search: serper: missing api key")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search: serper: empty query")
	}

	payload := map[string]any{"q": query}
	for k, v := range a.options {
		payload[k] = v
	}

	headers := map[string]string{"X-API-KEY": a.apiKey}

	var resp serperResponse
	if err := postJSON(ctx, a.httpClient, a.baseURL+"/search", headers, payload, &resp); err != nil {
		return nil, err
	}

	out := &Result{}
	for _, r := range resp.Organic {
		url := strings.TrimSpace(r.Link)
		content := joinTitleBody(r.Title, r.Snippet)
		if url == "" || content == "" {
			continue
		}
		out.Documents = append(out.Documents, Document{URL: url, Content: content})
	}
	return out, nil
}

func joinTitleBody(title, body string) string {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	switch {
	case title != "" && body != "":
		return title + "\n" + body
	case title != "":
		return title
	default:
		return body
	}
}
