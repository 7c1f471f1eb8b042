package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/juhapellotsalo/agentic-content-scout/tools/web_search/models"
)

var endpoint = "https://api.tavily.com/search"

type Search struct {
	APIKey string
	Client *http.Client
}

type request struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type response struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (s Search) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	// https://docs.tavily.com/documentation/api-reference/endpoint/search
	body, err := json.Marshal(request{Query: q, SearchDepth: "advanced", MaxResults: k})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, models.StatusError("tavily", resp)
	}
	var raw response
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	out := make([]models.Result, 0, len(raw.Results))
	for i, r := range raw.Results {
		if k > 0 && i >= k {
			break
		}
		out = append(out, models.Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return out, nil
}
