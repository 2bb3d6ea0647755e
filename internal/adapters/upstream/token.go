package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"time"

	"stream-resolver/internal/config"
	"stream-resolver/internal/domain"
	"stream-resolver/pkg/log"
)

// CookieSource acquires the listing origin's hash cookie.
type CookieSource struct {
	client     *http.Client
	url        string
	cookieName string
	userAgent  string
	timeout    time.Duration
}

// NewCookieSource creates a cookie source from the upstream config.
func NewCookieSource(client *http.Client, cfg config.Upstream) *CookieSource {
	return &CookieSource{
		client:     client,
		url:        cfg.CookieURL,
		cookieName: cfg.CookieName,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.TokenTimeout,
	}
}

// Name identifies the source in logs and errors.
func (s *CookieSource) Name() string { return "cookie" }

// Acquire performs one request and returns the cookie as a ready Cookie
// header value. Every failure wraps domain.ErrTokenUnavailable.
func (s *CookieSource) Acquire(ctx context.Context) (domain.AuthToken, error) {
	if s.url == "" {
		return domain.AuthToken{}, fmt.Errorf("%w: no cookie url configured", domain.ErrTokenUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := newBrowserRequest(ctx, s.url, s.userAgent)
	if err != nil {
		return domain.AuthToken{}, fmt.Errorf("%w: %v", domain.ErrTokenUnavailable, err)
	}

	// A throwaway jar keeps cookies set on intermediate redirects.
	jar, _ := cookiejar.New(nil)
	client := *s.client
	client.Jar = jar

	resp, err := client.Do(req)
	if err != nil {
		return domain.AuthToken{}, fmt.Errorf("%w: %v", domain.ErrTokenUnavailable, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return domain.AuthToken{}, fmt.Errorf("%w: %s answered HTTP %d",
			domain.ErrTokenUnavailable, s.url, resp.StatusCode)
	}

	value := findCookie(resp.Cookies(), s.cookieName)
	if value == "" {
		value = findCookie(jar.Cookies(req.URL), s.cookieName)
	}
	if value == "" {
		return domain.AuthToken{}, fmt.Errorf("%w: cookie %q not set by %s",
			domain.ErrTokenUnavailable, s.cookieName, s.url)
	}

	log.GlobalDebugCtx(ctx, "cookie acquired", "source", s.Name())
	return domain.AuthToken{Kind: domain.CookieToken, Value: s.cookieName + "=" + value}, nil
}

func findCookie(cookies []*http.Cookie, name string) string {
	for _, c := range cookies {
		if c.Name == name && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// QueryTokenSource acquires the "in=..." token the stream proxy needs.
type QueryTokenSource struct {
	client    *http.Client
	url       string
	key       string
	userAgent string
	timeout   time.Duration
	pattern   *regexp.Regexp
}

// NewQueryTokenSource creates a query token source from the upstream config.
func NewQueryTokenSource(client *http.Client, cfg config.Upstream) *QueryTokenSource {
	key := cfg.QueryTokenKey
	if key == "" {
		key = "in"
	}
	return &QueryTokenSource{
		client:    client,
		url:       cfg.QueryTokenURL,
		key:       key,
		userAgent: cfg.UserAgent,
		timeout:   cfg.TokenTimeout,
		pattern:   queryFragmentPattern(key),
	}
}

// queryFragmentPattern matches key=value where key starts a query
// parameter, an attribute value or a token, so "main=" never matches "in=".
func queryFragmentPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[?&"'\s=:;,(])` + regexp.QuoteMeta(key) + `=([^&"'\s<>;,)]+)`)
}

// Name identifies the source in logs and errors.
func (s *QueryTokenSource) Name() string { return "prime" }

// Acquire performs one request and returns the first key=value fragment
// found in the body, else in the Location or Set-Cookie headers.
func (s *QueryTokenSource) Acquire(ctx context.Context) (domain.AuthToken, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := newBrowserRequest(ctx, s.url, s.userAgent)
	if err != nil {
		return domain.AuthToken{}, fmt.Errorf("%w: %v", domain.ErrTokenUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.AuthToken{}, fmt.Errorf("%w: %v", domain.ErrTokenUnavailable, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return domain.AuthToken{}, fmt.Errorf("%w: %s answered HTTP %d",
			domain.ErrTokenUnavailable, s.url, resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		return domain.AuthToken{}, fmt.Errorf("%w: %v", domain.ErrTokenUnavailable, err)
	}

	candidates := append([]string{body, resp.Header.Get("Location")}, resp.Header.Values("Set-Cookie")...)
	for _, text := range candidates {
		if value := s.extract(text); value != "" {
			log.GlobalDebugCtx(ctx, "query token acquired", "source", s.Name())
			return domain.AuthToken{Kind: domain.QueryToken, Value: s.key + "=" + value}, nil
		}
	}

	return domain.AuthToken{}, fmt.Errorf("%w: no %q fragment in response from %s",
		domain.ErrTokenUnavailable, s.key, s.url)
}

func (s *QueryTokenSource) extract(text string) string {
	if text == "" {
		return ""
	}
	m := s.pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
