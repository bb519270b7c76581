package render

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// Chrome renders pages in a headless Chrome instance driven by chromedp.
//
// A single browser is started lazily by chromedp on the first Render call
// made against the allocator context; each Render opens its own tab so
// concurrent fetches do not share page state.
type Chrome struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc

	// WaitSelector is the element that must be ready before capture.
	WaitSelector string
	// Settle is an extra delay after WaitSelector is ready, for late scripts.
	Settle time.Duration
	// Timeout bounds a single Render call. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// NewChrome creates a Chrome renderer with its own exec allocator. Extra
// allocator options are appended to chromedp's defaults.
func NewChrome(parent context.Context, opts ...chromedp.ExecAllocatorOption) *Chrome {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], opts...)
	allocCtx, cancel := chromedp.NewExecAllocator(parent, allocOpts...)
	return &Chrome{
		allocCtx:     allocCtx,
		cancelAlloc:  cancel,
		WaitSelector: "body",
		Settle:       time.Second,
	}
}

// Render navigates to url and returns the outer HTML of the document.
func (c *Chrome) Render(ctx context.Context, url string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(c.allocCtx)
	defer cancelTab()

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithTimeout(tabCtx, c.Timeout)
		defer cancel()
	}

	// The tab lives under the allocator, not the caller; propagate the
	// caller's cancellation by hand.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitReady(c.WaitSelector, chromedp.ByQuery),
	}
	if c.Settle > 0 {
		tasks = append(tasks, chromedp.Sleep(c.Settle))
	}
	tasks = append(tasks, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		return "", err
	}
	return html, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() {
	c.cancelAlloc()
}
