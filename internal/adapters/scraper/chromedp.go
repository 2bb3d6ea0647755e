package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"stream-resolver/internal/config"
	"stream-resolver/internal/domain"
	"stream-resolver/pkg/log"
)

// tabSlots bounds how many tabs may be open at once.
type tabSlots chan struct{}

func newTabSlots(n int) tabSlots {
	if n < 1 {
		n = 1
	}
	return make(tabSlots, n)
}

// acquire blocks until a slot is free or ctx is done.
func (s tabSlots) acquire(ctx context.Context) error {
	select {
	case s <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s tabSlots) release() { <-s }

// BrowserPool owns one Chrome process, local or remote, and hands out
// tabs one at a time.
type BrowserPool struct {
	newAllocator func() (context.Context, context.CancelFunc)

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc

	slots tabSlots
}

// BrowserOptions selects how Chrome is reached.
type BrowserOptions struct {
	// RemoteURL connects to an already running DevTools endpoint
	// (ws://host:9222/...). When empty a local headless Chrome is spawned.
	RemoteURL string
	// ExecPath overrides the local Chrome binary.
	ExecPath string
	// Tabs is the number of concurrent tabs; below one means one.
	Tabs int
}

// NewBrowserPool starts (or connects to) Chrome.
func NewBrowserPool(opts BrowserOptions) (*BrowserPool, error) {
	bp := &BrowserPool{slots: newTabSlots(opts.Tabs)}

	if opts.RemoteURL != "" {
		bp.newAllocator = func() (context.Context, context.CancelFunc) {
			return chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
		}
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("disable-background-networking", true),
			chromedp.Flag("disable-sync", true),
			chromedp.Flag("mute-audio", true),
			chromedp.Flag("no-first-run", true),
		)
		if opts.ExecPath != "" {
			log.GlobalInfo("browser pool using custom chrome path", "path", opts.ExecPath)
			execOpts = append(execOpts, chromedp.ExecPath(opts.ExecPath))
		}
		bp.newAllocator = func() (context.Context, context.CancelFunc) {
			return chromedp.NewExecAllocator(context.Background(), execOpts...)
		}
	}

	if err := bp.start(); err != nil {
		return nil, err
	}
	return bp, nil
}

// start launches Chrome, replacing any previous instance.
func (bp *BrowserPool) start() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.startLocked()
}

// restart relaunches Chrome unless another caller already replaced the
// browser that failed.
func (bp *BrowserPool) restart(failed context.Context) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.ctx != failed {
		return nil
	}
	log.GlobalWarn("browser pool restarting chrome")
	return bp.startLocked()
}

// startLocked expects bp.mu to be held.
func (bp *BrowserPool) startLocked() error {
	if bp.cancel != nil {
		bp.cancel()
	}

	allocCtx, allocCancel := bp.newAllocator()
	ctx, ctxCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		ctxCancel()
		allocCancel()
	}

	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return fmt.Errorf("start chrome: %w", err)
	}

	bp.ctx = ctx
	bp.cancel = cancel
	log.GlobalInfo("browser pool chrome started")
	return nil
}

// WithTab runs fn in a fresh tab. Waiting for a slot and the tab itself
// both honor ctx.
func (bp *BrowserPool) WithTab(ctx context.Context, fn func(tabCtx context.Context) error) error {
	if err := bp.slots.acquire(ctx); err != nil {
		return err
	}
	defer bp.slots.release()

	tabCtx, tabCancel, err := bp.openTab()
	if err != nil {
		return err
	}
	defer tabCancel()

	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	err = fn(tabCtx)
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, context.Canceled) {
		return ctxErr
	}
	return err
}

// openTab creates a tab; a dead browser is restarted once.
func (bp *BrowserPool) openTab() (context.Context, context.CancelFunc, error) {
	browserCtx := bp.current()
	tabCtx, tabCancel := chromedp.NewContext(browserCtx)

	err := chromedp.Run(tabCtx)
	if err == nil {
		return tabCtx, tabCancel, nil
	}
	tabCancel()
	log.GlobalWarn("browser pool tab failed", "error", err)

	if err := bp.restart(browserCtx); err != nil {
		return nil, nil, err
	}
	tabCtx, tabCancel = chromedp.NewContext(bp.current())
	return tabCtx, tabCancel, nil
}

func (bp *BrowserPool) current() context.Context {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.ctx
}

// Close shuts the browser down.
func (bp *BrowserPool) Close() {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.cancel != nil {
		bp.cancel()
		bp.cancel = nil
		log.GlobalInfo("browser pool chrome stopped")
	}
}

// BrowserListingFetcher loads the listing page in a real browser tab, for
// when the upstream serves its markup only to script-capable clients.
type BrowserListingFetcher struct {
	pool      *BrowserPool
	url       string
	userAgent string
	timeout   time.Duration
}

// NewBrowserListingFetcher creates the browser-backed listing fetcher.
func NewBrowserListingFetcher(pool *BrowserPool, upstream config.Upstream, listing config.Listing) *BrowserListingFetcher {
	return &BrowserListingFetcher{
		pool:      pool,
		url:       listing.URL,
		userAgent: upstream.UserAgent,
		timeout:   listing.Timeout,
	}
}

// URL returns the listing page address.
func (f *BrowserListingFetcher) URL() string { return f.url }

// Fetch navigates to the listing page and returns the rendered document.
// Errors are reported as *domain.UpstreamFetchError.
func (f *BrowserListingFetcher) Fetch(ctx context.Context, cookie domain.AuthToken) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	headers := network.Headers{
		"Accept-Language":           "en-IN,en-US;q=0.9,en;q=0.8",
		"Upgrade-Insecure-Requests": "1",
	}
	if !cookie.IsZero() {
		headers["Cookie"] = cookie.Value
	}

	var (
		html   string
		status int64
	)
	err := f.pool.WithTab(ctx, func(tabCtx context.Context) error {
		if err := chromedp.Run(tabCtx,
			network.Enable(),
			network.SetExtraHTTPHeaders(headers),
			emulateUserAgent(f.userAgent),
		); err != nil {
			return err
		}

		resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(f.url))
		if err != nil {
			return err
		}
		if resp != nil {
			status = resp.Status
		}
		if !isSuccessStatus(status) {
			return nil
		}
		return chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	})
	if err != nil {
		return "", &domain.UpstreamFetchError{URL: f.url, Err: err}
	}
	if !isSuccessStatus(status) {
		return "", &domain.UpstreamFetchError{URL: f.url, StatusCode: int(status)}
	}
	return html, nil
}

func emulateUserAgent(ua string) chromedp.Action {
	if ua == "" {
		return chromedp.ActionFunc(func(context.Context) error { return nil })
	}
	return emulation.SetUserAgentOverride(ua)
}

func isSuccessStatus(status int64) bool {
	return status >= 200 && status < 300
}
