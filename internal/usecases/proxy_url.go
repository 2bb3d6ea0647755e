package usecases

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"stream-resolver/internal/domain"
	"stream-resolver/pkg/log"
)

// ComposeProxyURL wraps targetURL and its token in the stream proxy URL:
//
//	{proxyBase}?url={targetURL}?{token}&referer={referer}
//
// The target is embedded as-is; only the referer is percent-encoded. When
// the target already has a query string the token is joined with '&'. The
// result goes through EncodeURL, so it is always safe for a Location header.
func ComposeProxyURL(proxyBase, targetURL string, token domain.AuthToken, referer string) (string, error) {
	if token.IsZero() {
		return "", &domain.TokenAcquisitionError{Err: domain.ErrTokenUnavailable}
	}

	encoded, ok := EncodeURIComponent(referer)
	if !ok {
		log.GlobalWarn("referer is not valid UTF-8, passing it unencoded", "referer", referer)
	}

	var b strings.Builder
	b.Grow(len(proxyBase) + len(targetURL) + len(token.Value) + len(encoded) + 16)
	b.WriteString(proxyBase)
	b.WriteString(querySeparator(proxyBase))
	b.WriteString("url=")
	b.WriteString(targetURL)
	b.WriteString(querySeparator(targetURL))
	b.WriteString(token.Value)
	b.WriteString("&referer=")
	b.WriteString(encoded)
	return EncodeURL(b.String()), nil
}

const upperHex = "0123456789ABCDEF"

// EncodeURL percent-encodes every byte of s that cannot appear in a URL
// (controls, space, non-ASCII, "<>\^`{} and a stray '%'). Reserved
// characters and existing %XX escapes are left alone.
func EncodeURL(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%':
			if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
				b.WriteByte(c)
			} else {
				b.WriteString("%25")
			}
		case isURLByte(c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0F])
		}
	}
	return b.String()
}

func isURLByte(c byte) bool {
	switch {
	case c == '!', c == '=', c == '|', c == '~':
		return true
	case c >= '#' && c <= ';':
		return true
	case c >= '?' && c <= '_' && c != '\\' && c != '^':
		return true
	case c >= 'a' && c <= 'z':
		return true
	}
	return false
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func querySeparator(u string) string {
	if strings.Contains(u, "?") {
		return "&"
	}
	return "?"
}

var uriComponentFixups = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent escapes s like the browser function of the same
// name: everything but A-Z a-z 0-9 - _ . ! ~ * ' ( ) is percent-encoded.
// It reports false, and returns s untouched, when s is not valid UTF-8.
func EncodeURIComponent(s string) (string, bool) {
	if !utf8.ValidString(s) {
		return s, false
	}
	return uriComponentFixups.Replace(url.QueryEscape(s)), true
}
