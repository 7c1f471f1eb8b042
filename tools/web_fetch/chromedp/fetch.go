// Package chromedp renders pages in headless Chrome before extraction, for
// sites that build their article body with JavaScript.
package chromedp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_fetch/models"
	"github.com/juhapellotsalo/agentic-content-scout/tools/web_fetch/readable"
)

const userAgent = "ContentScout/1.0 (+headless)"

type Fetch struct {
	Timeout  time.Duration
	MaxChars int
	// Settle is extra time given to client-side rendering after the body is ready.
	Settle time.Duration
}

func (f Fetch) Exec(ctx context.Context, pageURL string) (models.Result, error) {
	if strings.TrimSpace(pageURL) == "" {
		return models.Result{}, errors.New("invalid url")
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	start := time.Now()
	elapsed := func() int { return int(time.Since(start) / time.Millisecond) }

	html, err := f.render(ctx, pageURL)
	if err != nil {
		return models.Result{URL: pageURL, Status: 599, RenderMS: elapsed()}, fmt.Errorf("render %s: %w", pageURL, err)
	}
	res, err := readable.Extract(html, pageURL, f.MaxChars)
	res.Status = 200
	res.RenderMS = elapsed()
	return res, err
}

func (f Fetch) render(ctx context.Context, pageURL string) (string, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	actions := []chromedp.Action{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if f.Settle > 0 {
		actions = append(actions, chromedp.Sleep(f.Settle))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return "", err
	}
	return html, nil
}
