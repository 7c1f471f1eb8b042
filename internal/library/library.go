// Package library searches the links saved across all topics.
package library

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve"
	"github.com/juhapellotsalo/agentic-content-scout/models"
)

// TopicReader is the subset of the topic store the library needs.
type TopicReader interface {
	ListTopics(ctx context.Context) ([]string, error)
	ReadLinks(ctx context.Context, slug string) ([]models.Link, error)
}

type Hit struct {
	Topic  string  `json:"topic"`
	Title  string  `json:"title"`
	URL    string  `json:"url"`
	Reason string  `json:"reason"`
	Date   string  `json:"date"`
	Score  float64 `json:"score"`
}

type document struct {
	Topic  string `json:"topic"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Library indexes saved links in memory. The index is rebuilt from the store
// on every search, so results always reflect the current link lists.
type Library struct {
	topics TopicReader
}

func New(topics TopicReader) *Library {
	return &Library{topics: topics}
}

func (l *Library) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 10
	}
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	defer index.Close()

	slugs, err := l.topics.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Hit)
	batch := index.NewBatch()
	for _, slug := range slugs {
		links, err := l.topics.ReadLinks(ctx, slug)
		if err != nil {
			return nil, err
		}
		for _, link := range links {
			id := slug + "|" + link.URL
			if err := batch.Index(id, document{Topic: slug, Title: link.Title, URL: link.URL, Reason: link.Reason}); err != nil {
				return nil, fmt.Errorf("failed to index link: %w", err)
			}
			byID[id] = Hit{Topic: slug, Title: link.Title, URL: link.URL, Reason: link.Reason, Date: link.Date}
		}
	}
	if len(byID) == 0 {
		return nil, nil
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to index links: %w", err)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), k, 0, false)
	res, err := index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	out := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit, ok := byID[h.ID]
		if !ok {
			continue
		}
		hit.Score = h.Score
		out = append(out, hit)
	}
	return out, nil
}
