package models

import (
	"fmt"
	"io"
	"net/http"
)

// Result is one search hit, normalized across providers.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// StatusError reports a non-200 response with a short excerpt of its body.
func StatusError(provider string, resp *http.Response) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("%s returned status %d: %s", provider, resp.StatusCode, string(excerpt))
}
