package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/juhapellotsalo/agentic-content-scout/tools/web_search/models"
)

var endpoint = "https://google.serper.dev/search"

type Search struct {
	APIKey string
	Client *http.Client
}

type request struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type response struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (s Search) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	// https://serper.dev/ docs
	body, err := json.Marshal(request{Q: q, Num: k})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")
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
		return nil, models.StatusError("serper", resp)
	}
	var raw response
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	out := make([]models.Result, 0, len(raw.Organic))
	for _, r := range raw.Organic {
		if k > 0 && len(out) == k {
			break
		}
		out = append(out, models.Result{Title: r.Title, URL: r.Link, Snippet: r.Snippet})
	}
	return out, nil
}
