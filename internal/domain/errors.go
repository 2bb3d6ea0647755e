package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTokenUnavailable is returned by a token source that could not
	// produce a credential (transport failure, non-2xx, missing value).
	ErrTokenUnavailable = errors.New("auth token unavailable")

	// ErrRateLimited is returned when a client exceeds the resolve rate limit.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// MissingParameterError is returned when a required request parameter is empty.
type MissingParameterError struct {
	Params []string
	Usage  string
}

func (e *MissingParameterError) Error() string {
	msg := "Missing " + strings.Join(e.Params, " or ") + " parameter"
	if e.Usage != "" {
		msg += ". Usage: " + e.Usage
	}
	return msg
}

// UnsupportedServiceError names a service value outside the supported set.
type UnsupportedServiceError struct {
	Value     string
	Supported []string
}

func (e *UnsupportedServiceError) Error() string {
	return fmt.Sprintf("Unsupported service: %s. Currently supported: %s",
		e.Value, strings.Join(e.Supported, ", "))
}

// TokenAcquisitionError means the proxy path could not obtain its token.
// The proxy has no unauthenticated fallback, so this is fatal for resolution.
type TokenAcquisitionError struct {
	Source string
	Err    error
}

func (e *TokenAcquisitionError) Error() string {
	if e.Source == "" {
		return "Failed to fetch prime token"
	}
	return fmt.Sprintf("Failed to fetch %s token", e.Source)
}

func (e *TokenAcquisitionError) Unwrap() error { return e.Err }

// UpstreamFetchError is returned when the listing origin answers non-2xx
// or cannot be reached at all (StatusCode is 0 in that case).
type UpstreamFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s answered HTTP %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream %s unreachable: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("upstream %s fetch failed", e.URL)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// InternalResolutionError wraps any unexpected fault caught at a
// component boundary.
type InternalResolutionError struct {
	Op  string
	Err error
}

func (e *InternalResolutionError) Error() string {
	if e.Err == nil {
		return e.Op + ": internal error"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalResolutionError) Unwrap() error { return e.Err }

// Recovered converts a recovered panic value into an InternalResolutionError.
func Recovered(op string, r any) *InternalResolutionError {
	if err, ok := r.(error); ok {
		return &InternalResolutionError{Op: op, Err: err}
	}
	return &InternalResolutionError{Op: op, Err: fmt.Errorf("panic: %v", r)}
}
