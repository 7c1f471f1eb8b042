// Package readable turns raw HTML into article text.
package readable

import (
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_fetch/models"
	"github.com/juhapellotsalo/agentic-content-scout/utils"
)

// Extract runs readability over html. Text is cut to maxChars runes.
func Extract(html, pageURL string, maxChars int) (models.Result, error) {
	article, err := readability.FromReader(strings.NewReader(html), parseURL(pageURL))
	if err != nil {
		return models.Result{URL: pageURL}, err
	}
	text := strings.TrimSpace(article.TextContent)
	if maxChars > 0 {
		text = utils.Truncate(text, maxChars)
	}
	return models.Result{
		URL:      pageURL,
		Title:    strings.TrimSpace(article.Title),
		Byline:   strings.TrimSpace(article.Byline),
		SiteName: strings.TrimSpace(article.SiteName),
		Text:     text,
	}, nil
}

func parseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
