package fetch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultBlockedDomains are analytics and tracking hosts whose requests are dropped during capture.
var DefaultBlockedDomains = []string{
	"googletagmanager.com",
	"google-analytics.com",
	"g.doubleclick.net",
	"posthog.com",
	"i.posthog.com",
	"us.i.posthog.com",
	"segment.com",
	"fullstory.com",
	"hotjar.com",
	"intercom.io",
	"getkoala.com",
	"cdn.vector.co",
}

// BrowserOptions configures a headless browser session.
type BrowserOptions struct {
	// NavigationTimeout bounds a single navigation including the idle wait.
	NavigationTimeout time.Duration
	// IdleTimeout is how long to wait for network idle after load before proceeding anyway.
	IdleTimeout time.Duration
	// ActionTimeout bounds evaluation, screenshot and DOM reads.
	ActionTimeout time.Duration

	ViewportWidth  int64
	ViewportHeight int64
	DeviceScale    float64

	// BlockedDomains are matched as substrings of request URLs.
	BlockedDomains []string

	Headless bool
	Verbose  bool

	// HTTP configures resource fetches made on behalf of the page.
	HTTP *Options
}

// DefaultBrowserOptions returns a 1920x1080 viewport at device scale 2.
func DefaultBrowserOptions() *BrowserOptions {
	return &BrowserOptions{
		NavigationTimeout: 60 * time.Second,
		IdleTimeout:       15 * time.Second,
		ActionTimeout:     30 * time.Second,
		ViewportWidth:     1920,
		ViewportHeight:    1080,
		DeviceScale:       2,
		Headless:          true,
		HTTP:              DefaultOptions(),
	}
}

// Browser drives a single headless Chrome tab.
// Requires Chrome/Chromium to be installed on the system.
type Browser struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	opts        *BrowserOptions
	client      *Client
}

// NewBrowser starts a browser and prepares its tab: viewport, lifecycle events
// and URL blocking are configured before any navigation.
func NewBrowser(ctx context.Context, opts *BrowserOptions) (*Browser, error) {
	if opts == nil {
		opts = DefaultBrowserOptions()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	b := &Browser{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		opts:        opts,
		client:      NewClient(opts.HTTP),
	}

	setup := []chromedp.Action{
		network.Enable(),
		page.SetLifecycleEventsEnabled(true),
		chromedp.EmulateViewport(opts.ViewportWidth, opts.ViewportHeight, chromedp.EmulateScale(opts.DeviceScale)),
	}
	if patterns := BlockPatterns(opts.BlockedDomains); len(patterns) > 0 {
		setup = append(setup, network.SetBlockedURLs(patterns))
	}

	if err := chromedp.Run(tabCtx, setup...); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if opts.Verbose {
		log.Printf("[BROWSER] Started (viewport %dx%d@%gx, %d blocked domains)",
			opts.ViewportWidth, opts.ViewportHeight, opts.DeviceScale, len(opts.BlockedDomains))
	}
	return b, nil
}

// BlockPatterns turns domains into wildcard URL patterns.
func BlockPatterns(domains []string) []string {
	patterns := make([]string, 0, len(domains))
	for _, d := range domains {
		if d == "" {
			continue
		}
		patterns = append(patterns, "*"+d+"*")
	}
	return patterns
}

// Navigate loads rawURL and waits for the network to go idle. If the page never
// goes idle within IdleTimeout the wait is abandoned and the page is used as is.
func (b *Browser) Navigate(ctx context.Context, rawURL string) error {
	if b.opts.Verbose {
		log.Printf("[BROWSER] Navigating to %s", rawURL)
	}

	idle := make(chan struct{}, 1)
	listenCtx, stopListening := context.WithCancel(b.ctx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		switch e.Name {
		case "init":
			select {
			case <-idle:
			default:
			}
		case "networkIdle":
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	runCtx, cancel := b.bounded(ctx, b.opts.NavigationTimeout)
	defer cancel()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(rawURL))
	if err != nil {
		return &Error{URL: rawURL, Message: "navigation failed", Cause: err}
	}
	if resp != nil && resp.Status >= 400 && b.opts.Verbose {
		log.Printf("[BROWSER] %s answered HTTP %d", rawURL, resp.Status)
	}

	timer := time.NewTimer(b.opts.IdleTimeout)
	defer timer.Stop()
	select {
	case <-idle:
	case <-timer.C:
		if b.opts.Verbose {
			log.Printf("[BROWSER] Network not idle after %s, continuing", b.opts.IdleTimeout)
		}
	case <-runCtx.Done():
		return &Error{URL: rawURL, Message: "navigation interrupted", Cause: runCtx.Err()}
	}
	return nil
}

// Title returns the document title.
func (b *Browser) Title(ctx context.Context) (string, error) {
	var title string
	if err := b.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

// Location returns the current document URL after redirects.
func (b *Browser) Location(ctx context.Context) (string, error) {
	var loc string
	if err := b.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return loc, nil
}

// DocumentHTML returns the serialized live DOM.
func (b *Browser) DocumentHTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return html, nil
}

// Evaluate runs expression in the page. The expression must produce a string.
func (b *Browser) Evaluate(ctx context.Context, expression string) (string, error) {
	var out string
	if err := b.run(ctx, chromedp.Evaluate(expression, &out)); err != nil {
		return "", err
	}
	return out, nil
}

// Screenshot writes a full-page PNG to path.
func (b *Browser) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := b.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot %s: %w", path, err)
	}
	return nil
}

// Fetch retrieves a resource on behalf of the page.
func (b *Browser) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	return b.client.Fetch(ctx, rawURL)
}

// Close shuts down the tab and the browser process.
func (b *Browser) Close() {
	b.cancelTab()
	b.cancelAlloc()
}

func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := b.bounded(ctx, b.opts.ActionTimeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// bounded derives a context from the tab that also ends when ctx ends.
func (b *Browser) bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(b.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(b.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
