package web_search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/tools/web_search/brave"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_search/models"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_search/serper"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_search/tavily"
	"github.com/juhapellotsalo/agentic-content-scout/utils"
)

type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
	TavilyProvider Provider = "tavily"
)

const snippetLimit = 300

var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrMissingAPIKey       = errors.New("search API key is not configured")
)

func NewWebSearcher(provider Provider, apiKey string, timeout time.Duration) (WebSearcher, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	switch provider {
	case SerperProvider:
		return serper.Search{APIKey: apiKey, Client: client}, nil
	case BraveProvider:
		return brave.Search{APIKey: apiKey, Client: client}, nil
	case TavilyProvider:
		return tavily.Search{APIKey: apiKey, Client: client}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

// SearchAll runs every query in order and renders one text block for the
// model. A failing query becomes an inline note; URLs are reported once.
func SearchAll(ctx context.Context, s WebSearcher, queries []string, k int) string {
	if s == nil {
		return "Error: " + ErrMissingAPIKey.Error()
	}
	seen := make(map[string]struct{})
	var results []string
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		hits, err := s.Discover(ctx, q, k)
		if err != nil {
			results = append(results, fmt.Sprintf("Search failed for '%s': %v", q, err))
			continue
		}
		for _, h := range hits {
			if h.URL == "" {
				continue
			}
			if _, ok := seen[h.URL]; ok {
				continue
			}
			seen[h.URL] = struct{}{}
			title := h.Title
			if title == "" {
				title = "No title"
			}
			results = append(results, fmt.Sprintf("**%s**\nSource: %s\nURL: %s\n%s...",
				title, domain(h.URL), h.URL, utils.Truncate(h.Snippet, snippetLimit)))
		}
	}
	if len(results) == 0 {
		return "No results found."
	}
	return fmt.Sprintf("Found %d results:\n\n", len(results)) + strings.Join(results, "\n\n")
}

func domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
