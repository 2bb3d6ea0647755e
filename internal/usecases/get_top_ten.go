package usecases

import (
	"context"
	"errors"

	"stream-resolver/internal/domain"
	"stream-resolver/pkg/log"
)

// ListingFetcher defines the interface for downloading the listing page.
type ListingFetcher interface {
	URL() string
	Fetch(ctx context.Context, cookie domain.AuthToken) (string, error)
}

// ListingParser defines the interface for extracting top 10 entries.
type ListingParser interface {
	Parse(html string) []domain.TopTenItem
}

// GetTopTenUseCase fetches the listing page and extracts its top 10 row.
type GetTopTenUseCase struct {
	cookies TokenSource
	fetcher ListingFetcher
	parser  ListingParser
}

// NewGetTopTenUseCase creates a new GetTopTenUseCase. cookies may be nil,
// in which case the page is always fetched unauthenticated.
func NewGetTopTenUseCase(cookies TokenSource, fetcher ListingFetcher, parser ListingParser) *GetTopTenUseCase {
	return &GetTopTenUseCase{
		cookies: cookies,
		fetcher: fetcher,
		parser:  parser,
	}
}

// Execute returns the parsed items, an empty slice when the row is absent.
// A cookie failure degrades to an unauthenticated fetch; a fetch failure
// is returned as *domain.UpstreamFetchError.
func (uc *GetTopTenUseCase) Execute(ctx context.Context) (items []domain.TopTenItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.GlobalErrorCtx(ctx, "top10 panicked", "panic", r)
			items, err = nil, domain.Recovered("top10", r)
		}
	}()

	var cookie domain.AuthToken
	if uc.cookies != nil {
		cookie, err = uc.cookies.Acquire(ctx)
		if err != nil {
			log.GlobalWarnCtx(ctx, "listing cookie unavailable, fetching unauthenticated",
				"source", uc.cookies.Name(), "error", err)
			cookie = domain.AuthToken{}
		}
	}

	html, err := uc.fetcher.Fetch(ctx, cookie)
	if err != nil {
		var upErr *domain.UpstreamFetchError
		if errors.As(err, &upErr) {
			return nil, upErr
		}
		return nil, &domain.UpstreamFetchError{URL: uc.fetcher.URL(), Err: err}
	}

	items = uc.parser.Parse(html)
	if items == nil {
		items = []domain.TopTenItem{}
	}

	log.GlobalDebugCtx(ctx, "top10 parsed", "count", len(items), "authenticated", !cookie.IsZero())
	return items, nil
}
