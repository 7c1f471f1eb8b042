package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/tools/web_fetch/models"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_fetch/readable"
)

const maxBody = 5 << 20

// Fetch downloads a page with a plain GET and extracts its article text.
type Fetch struct {
	Client   *http.Client
	MaxChars int
}

func New(timeout time.Duration, maxChars int) *Fetch {
	return &Fetch{Client: &http.Client{Timeout: timeout}, MaxChars: maxChars}
}

func (f *Fetch) Exec(ctx context.Context, url string) (models.Result, error) {
	if strings.TrimSpace(url) == "" {
		return models.Result{}, errors.New("invalid url")
	}
	t0 := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Result{URL: url}, err
	}
	req.Header.Set("User-Agent", "ContentScout/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.Client.Do(req)
	if err != nil {
		return models.Result{URL: url, Status: 599}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return models.Result{URL: url, Status: resp.StatusCode}, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return models.Result{URL: url, Status: resp.StatusCode}, err
	}

	res, err := readable.Extract(string(body), url, f.MaxChars)
	res.Status = resp.StatusCode
	res.RenderMS = int(time.Since(t0) / time.Millisecond)
	return res, err
}
