package search

import (
	"context"
	"fmt"
	"strings"
)

// Document is one retrieved source.
type Document struct {
	URL     string
	Content string
}

// Result is a provider's output for one query. Direct providers return a
// ready answer; document providers return sources that still need an
// extraction pass.
type Result struct {
	Answer    string
	Documents []Document
	Direct    bool
}

// Adapter answers a question through one search provider.
type Adapter interface {
	Name() string
	Answer(ctx context.Context, query string) (*Result, error)
}

// FormatDocuments renders retrieved documents into the prompt layout the
// answer extractor expects.
func FormatDocuments(docs []Document) string {
	var sb strings.Builder
	for i, d := range docs {
		sb.WriteString(fmt.Sprintf("\n**Document %d.** Source: %s\nContent: %s\n", i+1, d.URL, d.Content))
	}
	return sb.String()
}
