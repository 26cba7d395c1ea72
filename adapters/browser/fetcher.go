// Package browser fetches page text through a headless Chrome instance, so
// script-rendered pages yield the same text a reader sees.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"groundwork/pkg/pipeline"
)

// Fetcher implements pipeline.Fetcher over chromedp. The zero value is ready
// to use; Headless defaults to true via New.
type Fetcher struct {
	Headless bool
}

// New returns a headless Fetcher.
func New() *Fetcher {
	return &Fetcher{Headless: true}
}

// Fetch navigates to url and returns the rendered body text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var text string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Text("body", &text, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	return strings.TrimSpace(text), nil
}

var _ pipeline.Fetcher = (*Fetcher)(nil)
