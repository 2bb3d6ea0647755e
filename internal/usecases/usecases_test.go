package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"stream-resolver/internal/config"
	"stream-resolver/internal/domain"
	"stream-resolver/internal/usecases"
)

// MockTokenSource is a mock implementation of TokenSource.
type MockTokenSource struct {
	name   string
	tokens []string
	err    error
	panic  any
	calls  int
}

func (m *MockTokenSource) Name() string {
	if m.name == "" {
		return "prime"
	}
	return m.name
}

func (m *MockTokenSource) Acquire(ctx context.Context) (domain.AuthToken, error) {
	m.calls++
	if m.panic != nil {
		panic(m.panic)
	}
	if m.err != nil {
		return domain.AuthToken{}, m.err
	}
	value := m.tokens[(m.calls-1)%len(m.tokens)]
	return domain.AuthToken{Kind: domain.QueryToken, Value: value}, nil
}

// MockFetcher is a mock implementation of ListingFetcher.
type MockFetcher struct {
	html       string
	err        error
	gotCookies []domain.AuthToken
}

func (m *MockFetcher) URL() string { return "https://listing.example/home" }

func (m *MockFetcher) Fetch(ctx context.Context, cookie domain.AuthToken) (string, error) {
	m.gotCookies = append(m.gotCookies, cookie)
	if m.err != nil {
		return "", m.err
	}
	return m.html, nil
}

// MockParser is a mock implementation of ListingParser.
type MockParser struct {
	items []domain.TopTenItem
	got   string
	panic any
}

func (m *MockParser) Parse(html string) []domain.TopTenItem {
	m.got = html
	if m.panic != nil {
		panic(m.panic)
	}
	return m.items
}

func testUpstream() config.Upstream {
	return config.Upstream{
		UpstreamBase:   "https://up.example",
		NetflixBase:    "https://nf.example",
		ProxyBase:      "https://proxy.example/api/stream-proxy",
		DefaultReferer: "https://net51.cc",
	}
}

func newResolver(tokens usecases.TokenSource) *usecases.ResolveLinkUseCase {
	cfg := testUpstream()
	return usecases.NewResolveLinkUseCase(usecases.NewServiceCatalog(cfg), tokens, cfg.ProxyBase)
}

// ServiceCatalog tests

func TestServiceCatalog_Target_Templates(t *testing.T) {
	catalog := usecases.NewServiceCatalog(testUpstream())

	tests := []struct {
		service domain.Service
		want    string
	}{
		{domain.Netflix, "https://nf.example/hls/70270776.m3u8"},
		{domain.AmazonPrime, "https://up.example/pv/hls/0QSNQ.m3u8"},
		{domain.JioHotstar, "https://up.example/mobile/hs/hls/1260.m3u8"},
	}
	ids := map[domain.Service]string{domain.Netflix: "70270776", domain.AmazonPrime: "0QSNQ", domain.JioHotstar: "1260"}

	for _, tt := range tests {
		t.Run(string(tt.service), func(t *testing.T) {
			target, err := catalog.Target(tt.service, ids[tt.service])
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if target.URL != tt.want {
				t.Errorf("URL: got %s, want %s", target.URL, tt.want)
			}
			if target.DefaultReferer != "https://net51.cc" {
				t.Errorf("DefaultReferer: got %s", target.DefaultReferer)
			}
		})
	}
}

func TestServiceCatalog_Target_AliasesMatchCanonical(t *testing.T) {
	catalog := usecases.NewServiceCatalog(testUpstream())

	for alias, canonical := range map[string]string{"prime": "amazon-prime", "jio": "jio-hotstar"} {
		a, err := domain.ParseService(alias)
		if err != nil {
			t.Fatalf("ParseService(%s): %v", alias, err)
		}
		c, err := domain.ParseService(canonical)
		if err != nil {
			t.Fatalf("ParseService(%s): %v", canonical, err)
		}

		ta, _ := catalog.Target(a, "42")
		tc, _ := catalog.Target(c, "42")
		if ta != tc {
			t.Errorf("%s: got %+v, want %+v", alias, ta, tc)
		}
	}
}

func TestServiceCatalog_Target_TrailingSlashBase(t *testing.T) {
	cfg := testUpstream()
	cfg.NetflixBase = "https://nf.example/"
	catalog := usecases.NewServiceCatalog(cfg)

	target, _ := catalog.Target(domain.Netflix, "1")

	if target.URL != "https://nf.example/hls/1.m3u8" {
		t.Errorf("URL: got %s", target.URL)
	}
}

func TestServiceCatalog_Target_Unknown(t *testing.T) {
	catalog := usecases.NewServiceCatalog(testUpstream())

	_, err := catalog.Target(domain.Service("hulu"), "1")

	var unsupported *domain.UnsupportedServiceError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected *UnsupportedServiceError, got %v", err)
	}
}

// ComposeProxyURL tests

func TestComposeProxyURL_ExactFormat(t *testing.T) {
	// Act
	got, err := usecases.ComposeProxyURL(
		"https://proxy.example/api/stream-proxy",
		"https://nf.example/hls/70270776.m3u8",
		domain.AuthToken{Kind: domain.QueryToken, Value: "in=ABC123"},
		"https://net51.cc",
	)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://proxy.example/api/stream-proxy?url=https://nf.example/hls/70270776.m3u8?in=ABC123&referer=https%3A%2F%2Fnet51.cc"
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestComposeProxyURL_TargetWithQuery_UsesAmpersand(t *testing.T) {
	got, err := usecases.ComposeProxyURL(
		"https://proxy.example/p",
		"https://up.example/hls/1.m3u8?q=720",
		domain.AuthToken{Kind: domain.QueryToken, Value: "in=T"},
		"https://r.example",
	)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "1.m3u8?q=720&in=T&referer=") {
		t.Errorf("unexpected separator: %s", got)
	}
}

func TestComposeProxyURL_ZeroToken_ReturnsTokenError(t *testing.T) {
	_, err := usecases.ComposeProxyURL("https://p.example", "https://t.example/a.m3u8", domain.AuthToken{}, "")

	var tokenErr *domain.TokenAcquisitionError
	if !errors.As(err, &tokenErr) {
		t.Fatalf("expected *TokenAcquisitionError, got %v", err)
	}
	if !errors.Is(err, domain.ErrTokenUnavailable) {
		t.Error("expected error to wrap ErrTokenUnavailable")
	}
}

func TestComposeProxyURL_InvalidUTF8Referer_EscapedBytewise(t *testing.T) {
	referer := "https://r.example/\xff"

	got, err := usecases.ComposeProxyURL("https://p.example", "https://t.example/a.m3u8",
		domain.AuthToken{Value: "in=T"}, referer)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(got, "&referer=https://r.example/%FF") {
		t.Errorf("expected unencoded referer with the bad byte escaped, got %q", got)
	}
}

func TestComposeProxyURL_ControlCharactersInTarget_Escaped(t *testing.T) {
	got, err := usecases.ComposeProxyURL(
		"https://proxy.example/p",
		"https://nf.example/hls/a\r\nSet-Cookie: evil=1.m3u8",
		domain.AuthToken{Value: "in=T"},
		"https://net51.cc",
	)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://proxy.example/p?url=https://nf.example/hls/a%0D%0ASet-Cookie:%20evil=1.m3u8?in=T&referer=https%3A%2F%2Fnet51.cc"
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestEncodeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://a.example/p?x=1&y=%2F#f", "https://a.example/p?x=1&y=%2F#f"},
		{"a\r\nb", "a%0D%0Ab"},
		{"a\x00\tb\x7f", "a%00%09b%7F"},
		{"a b", "a%20b"},
		{"ü", "%C3%BC"},
		{`<">\^{}` + "`", "%3C%22%3E%5C%5E%7B%7D%60"},
		{"100%", "100%25"},
		{"%zz%4", "%25zz%254"},
		{"[::1]|~!", "[::1]|~!"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := usecases.EncodeURL(tt.in); got != tt.want {
			t.Errorf("EncodeURL(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodeURIComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://net51.cc", "https%3A%2F%2Fnet51.cc"},
		{"a b", "a%20b"},
		{"a+b", "a%2Bb"},
		{"!~*'()-_.", "!~*'()-_."},
		{"x?y=1&z=2#f", "x%3Fy%3D1%26z%3D2%23f"},
		{"ü", "%C3%BC"},
		{"", ""},
	}

	for _, tt := range tests {
		got, ok := usecases.EncodeURIComponent(tt.in)
		if !ok {
			t.Errorf("EncodeURIComponent(%q): reported invalid", tt.in)
		}
		if got != tt.want {
			t.Errorf("EncodeURIComponent(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ResolveLinkUseCase tests

func TestResolveLinkUseCase_Execute_Netflix(t *testing.T) {
	// Arrange
	tokens := &MockTokenSource{tokens: []string{"in=ABC123"}}
	uc := newResolver(tokens)

	// Act
	link, err := uc.Execute(context.Background(), domain.ResolutionRequest{Service: "netflix", ID: "70270776"})

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://proxy.example/api/stream-proxy?url=https://nf.example/hls/70270776.m3u8?in=ABC123&referer=https%3A%2F%2Fnet51.cc"
	if link != want {
		t.Errorf("link:\n got  %s\n want %s", link, want)
	}
	if tokens.calls != 1 {
		t.Errorf("token calls: got %d, want 1", tokens.calls)
	}
}

func TestResolveLinkUseCase_Execute_ExplicitReferer(t *testing.T) {
	uc := newResolver(&MockTokenSource{tokens: []string{"in=X"}})

	link, err := uc.Execute(context.Background(), domain.ResolutionRequest{
		Service: "jio", ID: "1260", Referer: "https://www.hotstar.com/in",
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(link, "&referer=https%3A%2F%2Fwww.hotstar.com%2Fin") {
		t.Errorf("referer not encoded once: %s", link)
	}
	if !strings.Contains(link, "url=https://up.example/mobile/hs/hls/1260.m3u8?in=X") {
		t.Errorf("unexpected target: %s", link)
	}
}

func TestResolveLinkUseCase_Execute_MissingParams_NoTokenCall(t *testing.T) {
	tests := []struct {
		name string
		req  domain.ResolutionRequest
	}{
		{"missing service", domain.ResolutionRequest{ID: "1"}},
		{"missing id", domain.ResolutionRequest{Service: "netflix"}},
		{"both missing", domain.ResolutionRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			tokens := &MockTokenSource{tokens: []string{"in=X"}}
			uc := newResolver(tokens)

			// Act
			_, err := uc.Execute(context.Background(), tt.req)

			// Assert
			var missing *domain.MissingParameterError
			if !errors.As(err, &missing) {
				t.Fatalf("expected *MissingParameterError, got %v", err)
			}
			if !strings.Contains(err.Error(), "Usage: /resolve?service=netflix&id=70270776") {
				t.Errorf("missing usage hint: %s", err)
			}
			if tokens.calls != 0 {
				t.Errorf("token calls: got %d, want 0", tokens.calls)
			}
		})
	}
}

func TestResolveLinkUseCase_Execute_WhitespaceID_PassedThrough(t *testing.T) {
	tokens := &MockTokenSource{tokens: []string{"in=X"}}
	uc := newResolver(tokens)

	link, err := uc.Execute(context.Background(), domain.ResolutionRequest{Service: "netflix", ID: " "})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(link, "url=https://nf.example/hls/%20.m3u8?in=X") {
		t.Errorf("unexpected target: %s", link)
	}
	if tokens.calls != 1 {
		t.Errorf("token calls: got %d, want 1", tokens.calls)
	}
}

func TestResolveLinkUseCase_Execute_ServiceMatchIsExact(t *testing.T) {
	tokens := &MockTokenSource{tokens: []string{"in=X"}}
	uc := newResolver(tokens)

	_, err := uc.Execute(context.Background(), domain.ResolutionRequest{Service: "NETFLIX", ID: "1"})

	var unsupported *domain.UnsupportedServiceError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected *UnsupportedServiceError, got %v", err)
	}
	if tokens.calls != 0 {
		t.Errorf("token calls: got %d, want 0", tokens.calls)
	}
}

func TestResolveLinkUseCase_Execute_Unsupported_ListsSupportedSet(t *testing.T) {
	// Arrange
	tokens := &MockTokenSource{tokens: []string{"in=X"}}
	uc := newResolver(tokens)

	// Act
	_, err := uc.Execute(context.Background(), domain.ResolutionRequest{Service: "hulu", ID: "1"})

	// Assert
	var unsupported *domain.UnsupportedServiceError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected *UnsupportedServiceError, got %v", err)
	}
	want := "Unsupported service: hulu. Currently supported: netflix, amazon-prime, prime, jio-hotstar, jio"
	if err.Error() != want {
		t.Errorf("message: got %q, want %q", err.Error(), want)
	}
	if tokens.calls != 0 {
		t.Errorf("token calls: got %d, want 0", tokens.calls)
	}
}

func TestResolveLinkUseCase_Execute_TokenFailure(t *testing.T) {
	// Arrange
	cause := errors.New("dial tcp: timeout")
	uc := newResolver(&MockTokenSource{err: cause})

	// Act
	_, err := uc.Execute(context.Background(), domain.ResolutionRequest{Service: "prime", ID: "1"})

	// Assert
	var tokenErr *domain.TokenAcquisitionError
	if !errors.As(err, &tokenErr) {
		t.Fatalf("expected *TokenAcquisitionError, got %v", err)
	}
	if err.Error() != "Failed to fetch prime token" {
		t.Errorf("message: got %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to be preserved")
	}
}

func TestResolveLinkUseCase_Execute_Panic_Recovered(t *testing.T) {
	uc := newResolver(&MockTokenSource{panic: "boom"})

	_, err := uc.Execute(context.Background(), domain.ResolutionRequest{Service: "netflix", ID: "1"})

	var internal *domain.InternalResolutionError
	if !errors.As(err, &internal) {
		t.Fatalf("expected *InternalResolutionError, got %v", err)
	}
}

func TestResolveLinkUseCase_Execute_Idempotent_ModuloToken(t *testing.T) {
	// Arrange
	tokens := &MockTokenSource{tokens: []string{"in=FIRST", "in=SECOND"}}
	uc := newResolver(tokens)
	req := domain.ResolutionRequest{Service: "amazon-prime", ID: "0QSNQ"}

	// Act
	first, err1 := uc.Execute(context.Background(), req)
	second, err2 := uc.Execute(context.Background(), req)

	// Assert
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if tokens.calls != 2 {
		t.Errorf("token calls: got %d, want 2 (no caching)", tokens.calls)
	}
	a := strings.Replace(first, "in=FIRST", "in=TOKEN", 1)
	b := strings.Replace(second, "in=SECOND", "in=TOKEN", 1)
	if a != b {
		t.Errorf("links differ beyond the token:\n %s\n %s", first, second)
	}
}

func TestBuildResolveLink(t *testing.T) {
	tests := []struct {
		base, service, id string
		want              string
	}{
		{"https://fetch.example/api/proxy", "netflix", "70270776", "https://fetch.example/api/proxy?service=netflix&id=70270776"},
		{"https://fetch.example/resolve", "jio hotstar", "a&b", "https://fetch.example/resolve?service=jio+hotstar&id=a%26b"},
		{"https://fetch.example/r?v=2", "prime", "1", "https://fetch.example/r?v=2&service=prime&id=1"},
	}

	for _, tt := range tests {
		if got := usecases.BuildResolveLink(tt.base, tt.service, tt.id); got != tt.want {
			t.Errorf("BuildResolveLink(%q, %q, %q): got %s, want %s", tt.base, tt.service, tt.id, got, tt.want)
		}
	}
}

// GetTopTenUseCase tests

func TestGetTopTenUseCase_Execute_WithCookie(t *testing.T) {
	// Arrange
	cookies := &MockTokenSource{name: "cookie", tokens: []string{"t_hash_t=abc"}}
	fetcher := &MockFetcher{html: "<html></html>"}
	parser := &MockParser{items: []domain.TopTenItem{{ID: "1", Poster: "https://p/1.jpg"}}}
	uc := usecases.NewGetTopTenUseCase(cookies, fetcher, parser)

	// Act
	items, err := uc.Execute(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "1" {
		t.Errorf("items: got %v", items)
	}
	if fetcher.gotCookies[0].Value != "t_hash_t=abc" {
		t.Errorf("cookie: got %q, want t_hash_t=abc", fetcher.gotCookies[0].Value)
	}
	if parser.got != "<html></html>" {
		t.Errorf("parser received %q", parser.got)
	}
}

func TestGetTopTenUseCase_Execute_CookieFailure_FetchesUnauthenticated(t *testing.T) {
	// Arrange
	cookies := &MockTokenSource{name: "cookie", err: domain.ErrTokenUnavailable}
	fetcher := &MockFetcher{html: "<html></html>"}
	uc := usecases.NewGetTopTenUseCase(cookies, fetcher, &MockParser{})

	// Act
	items, err := uc.Execute(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fetcher.gotCookies) != 1 || !fetcher.gotCookies[0].IsZero() {
		t.Errorf("expected one unauthenticated fetch, got %v", fetcher.gotCookies)
	}
	if items == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestGetTopTenUseCase_Execute_NilCookieSource(t *testing.T) {
	fetcher := &MockFetcher{html: "x"}
	uc := usecases.NewGetTopTenUseCase(nil, fetcher, &MockParser{})

	if _, err := uc.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fetcher.gotCookies[0].IsZero() {
		t.Error("expected unauthenticated fetch")
	}
}

func TestGetTopTenUseCase_Execute_UpstreamError_PassedThrough(t *testing.T) {
	// Arrange
	upErr := &domain.UpstreamFetchError{URL: "https://listing.example/home", StatusCode: 503}
	uc := usecases.NewGetTopTenUseCase(nil, &MockFetcher{err: upErr}, &MockParser{})

	// Act
	_, err := uc.Execute(context.Background())

	// Assert
	var got *domain.UpstreamFetchError
	if !errors.As(err, &got) {
		t.Fatalf("expected *UpstreamFetchError, got %v", err)
	}
	if got.StatusCode != 503 {
		t.Errorf("StatusCode: got %d, want 503", got.StatusCode)
	}
}

func TestGetTopTenUseCase_Execute_PlainError_WrappedAsUpstream(t *testing.T) {
	cause := errors.New("connection reset")
	uc := usecases.NewGetTopTenUseCase(nil, &MockFetcher{err: cause}, &MockParser{})

	_, err := uc.Execute(context.Background())

	var got *domain.UpstreamFetchError
	if !errors.As(err, &got) {
		t.Fatalf("expected *UpstreamFetchError, got %v", err)
	}
	if got.URL != "https://listing.example/home" || !errors.Is(err, cause) {
		t.Errorf("unexpected error: %+v", got)
	}
}

func TestGetTopTenUseCase_Execute_ParserPanic_Recovered(t *testing.T) {
	uc := usecases.NewGetTopTenUseCase(nil, &MockFetcher{html: "x"}, &MockParser{panic: "bad markup"})

	_, err := uc.Execute(context.Background())

	var internal *domain.InternalResolutionError
	if !errors.As(err, &internal) {
		t.Fatalf("expected *InternalResolutionError, got %v", err)
	}
}
