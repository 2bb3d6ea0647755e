package upstream

import (
	"context"
	"net/http"
	"time"

	"stream-resolver/internal/config"
	"stream-resolver/internal/domain"
)

// ListingClient fetches the raw listing page over plain HTTP.
type ListingClient struct {
	client    *http.Client
	url       string
	userAgent string
	timeout   time.Duration
}

// NewListingClient creates the HTTP listing fetcher.
func NewListingClient(client *http.Client, upstream config.Upstream, listing config.Listing) *ListingClient {
	return &ListingClient{
		client:    client,
		url:       listing.URL,
		userAgent: upstream.UserAgent,
		timeout:   listing.Timeout,
	}
}

// URL returns the listing page address.
func (c *ListingClient) URL() string { return c.url }

// Fetch returns the page HTML. A zero cookie sends the request
// unauthenticated. Transport failures and non-2xx answers are reported
// as *domain.UpstreamFetchError.
func (c *ListingClient) Fetch(ctx context.Context, cookie domain.AuthToken) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := newBrowserRequest(ctx, c.url, c.userAgent)
	if err != nil {
		return "", &domain.UpstreamFetchError{URL: c.url, Err: err}
	}
	if !cookie.IsZero() {
		req.Header.Set("Cookie", cookie.Value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &domain.UpstreamFetchError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", &domain.UpstreamFetchError{URL: c.url, StatusCode: resp.StatusCode}
	}

	html, err := readBody(resp)
	if err != nil {
		return "", &domain.UpstreamFetchError{URL: c.url, Err: err}
	}
	return html, nil
}
