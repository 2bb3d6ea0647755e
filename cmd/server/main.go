package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stream-resolver/internal/adapters/scraper"
	"stream-resolver/internal/adapters/upstream"
	"stream-resolver/internal/adapters/web"
	"stream-resolver/internal/config"
	"stream-resolver/internal/usecases"
	"stream-resolver/pkg/log"
	"stream-resolver/pkg/log/transporters"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger := transporters.Setup("info", "")
		logger.Fatal("failed to load config", "path", *configPath, "error", err)
		logger.Close()
		os.Exit(1)
	}

	logger := transporters.Setup(cfg.Log.Level, cfg.Log.File)
	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", "error", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

func run(cfg config.Config, logger *log.Logger) error {
	// Load selector configuration
	selectors, err := scraper.LoadSelectors(cfg.Listing.SelectorsPath)
	if err != nil {
		return fmt.Errorf("load selectors: %w", err)
	}
	defer selectors.Close()

	client := upstream.NewHTTPClient(cfg.Upstream.TokenTimeout + cfg.Listing.Timeout)

	// Listing fetcher: plain HTTP by default, a headless browser on demand
	var fetcher usecases.ListingFetcher
	switch cfg.Listing.Fetcher {
	case config.FetcherBrowser:
		pool, err := scraper.NewBrowserPool(scraper.BrowserOptions{
			RemoteURL: cfg.Listing.BrowserURL,
			ExecPath:  cfg.Listing.ChromePath,
			Tabs:      cfg.Listing.BrowserTabs,
		})
		if err != nil {
			return fmt.Errorf("initialize browser: %w", err)
		}
		defer pool.Close()
		fetcher = scraper.NewBrowserListingFetcher(pool, cfg.Upstream, cfg.Listing)
	default:
		fetcher = upstream.NewListingClient(client, cfg.Upstream, cfg.Listing)
	}

	// Use cases
	resolveUC := usecases.NewResolveLinkUseCase(
		usecases.NewServiceCatalog(cfg.Upstream),
		upstream.NewQueryTokenSource(client, cfg.Upstream),
		cfg.Upstream.ProxyBase,
	)
	topTenUC := usecases.NewGetTopTenUseCase(
		upstream.NewCookieSource(client, cfg.Upstream),
		fetcher,
		scraper.NewTopTenParser(selectors, cfg.Listing.URL),
	)

	rateLimiter := web.NewRateLimiter(cfg.Resolve.RateLimit, cfg.Resolve.RateWindow)
	defer rateLimiter.Close()

	app := web.NewApp(web.NewHandlers(resolveUC, topTenUC), rateLimiter)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "listing_fetcher", cfg.Listing.Fetcher)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}
