package domain

// TokenKind tells how a credential is attached to an outbound request.
type TokenKind string

const (
	// CookieToken is a ready-to-send Cookie header value.
	CookieToken TokenKind = "cookie"
	// QueryToken is a query fragment already in key=value form.
	QueryToken TokenKind = "query"
)

// AuthToken is a short-lived upstream credential. It is acquired, used
// once and discarded; nothing tracks its expiry.
type AuthToken struct {
	Kind  TokenKind
	Value string
}

// IsZero reports whether the token carries no credential.
func (t AuthToken) IsZero() bool {
	return t.Value == ""
}

// String returns the raw credential.
func (t AuthToken) String() string {
	return t.Value
}

// TopTenItem is one entry of the upstream top 10 row.
type TopTenItem struct {
	ID     string `json:"id"`
	Poster string `json:"poster"`
}
