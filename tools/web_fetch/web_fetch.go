package web_fetch

import (
	"context"
	"errors"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/tools/web_fetch/chromedp"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_fetch/httpfetch"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_fetch/models"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxChars = 20000
)

var ErrUnsupportedFetcher = errors.New("unsupported fetcher type")

// WebFetcher loads a page and returns its readable article text.
type WebFetcher interface {
	Exec(ctx context.Context, url string) (models.Result, error)
}

type FetcherType string

const (
	HTTPFetcherType     FetcherType = "http"
	ChromedpFetcherType FetcherType = "chromedp"
)

// NewWebFetcher builds a fetcher that extracts article text with readability.
// chromedp renders JavaScript in a headless browser; http does a plain GET.
func NewWebFetcher(fetcherType FetcherType, timeout time.Duration, maxChars int) (WebFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	switch fetcherType {
	case HTTPFetcherType, "":
		return httpfetch.New(timeout, maxChars), nil
	case ChromedpFetcherType:
		return chromedp.Fetch{Timeout: timeout, MaxChars: maxChars, Settle: 500 * time.Millisecond}, nil
	default:
		return nil, ErrUnsupportedFetcher
	}
}
