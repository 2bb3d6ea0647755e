package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stream-resolver/internal/config"
	"stream-resolver/internal/domain"
)

func newTestListingClient(srv *httptest.Server) *ListingClient {
	listing := config.Default().Listing
	listing.URL = srv.URL + "/mobile/home?app=1"
	listing.Timeout = 2 * time.Second
	return NewListingClient(srv.Client(), config.Default().Upstream, listing)
}

func TestListingClient_Fetch_SendsBrowserHeadersAndCookie(t *testing.T) {
	// Arrange
	var got http.Header
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotQuery = r.URL.RawQuery
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()
	c := newTestListingClient(srv)

	// Act
	html, err := c.Fetch(context.Background(), domain.AuthToken{Kind: domain.CookieToken, Value: "t_hash_t=abc"})

	// Assert
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if html != "<html>ok</html>" {
		t.Errorf("html = %q", html)
	}
	if gotQuery != "app=1" {
		t.Errorf("query = %q, want app=1", gotQuery)
	}
	for _, h := range []string{"User-Agent", "Accept", "Accept-Language", "Upgrade-Insecure-Requests"} {
		if got.Get(h) == "" {
			t.Errorf("header %s missing", h)
		}
	}
	if got.Get("Cookie") != "t_hash_t=abc" {
		t.Errorf("Cookie = %q", got.Get("Cookie"))
	}
}

func TestListingClient_Fetch_ZeroCookie_NoCookieHeader(t *testing.T) {
	var cookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie = r.Header.Get("Cookie")
	}))
	defer srv.Close()

	if _, err := newTestListingClient(srv).Fetch(context.Background(), domain.AuthToken{}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if cookie != "" {
		t.Errorf("Cookie = %q, want none", cookie)
	}
}

func TestListingClient_Fetch_Non2xx_ReturnsUpstreamFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestListingClient(srv).Fetch(context.Background(), domain.AuthToken{})

	var fetchErr *domain.UpstreamFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *UpstreamFetchError", err)
	}
	if fetchErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", fetchErr.StatusCode)
	}
}

func TestListingClient_Fetch_TimeoutIsUpstreamFetchError(t *testing.T) {
	// Arrange
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)
	c := newTestListingClient(srv)
	c.timeout = 50 * time.Millisecond

	// Act
	_, err := c.Fetch(context.Background(), domain.AuthToken{})

	// Assert
	var fetchErr *domain.UpstreamFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *UpstreamFetchError, got %v", err)
	}
	if fetchErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for a timeout", fetchErr.StatusCode)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want it to wrap context.DeadlineExceeded", err)
	}
}
