package errs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	// ErrNoData indicates that the search page carried no ytInitialData blob.
	ErrNoData = errors.New("no data found")
	// ErrParse indicates that the ytInitialData blob could not be decoded.
	ErrParse = errors.New("malformed initial data")
	// ErrNoResults indicates a successful search with zero video renderers.
	ErrNoResults = errors.New("no results found")
	// ErrNoLink indicates a download-link response without any usable link.
	ErrNoLink = errors.New("no media link in response")
	// ErrInvalidMessageLink indicates a relay link without a numeric message id.
	ErrInvalidMessageLink = errors.New("invalid relay message link")
	// ErrRelayUnavailable indicates a relay link with no Relay configured.
	ErrRelayUnavailable = errors.New("relay not configured")
	// ErrMissingAPIKey indicates a link request without an API key.
	ErrMissingAPIKey = errors.New("api key is required")
)

// StatusError is returned when a remote endpoint answers outside 2xx.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected status %s from %s", e.Status, e.URL)
	}
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Kind groups errors the way lookups report them.
type Kind int

const (
	KindNone Kind = iota
	KindTransport
	KindParse
	KindEmpty
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	case KindEmpty:
		return "empty"
	default:
		return "other"
	}
}

// KindOf classifies err. Wrapped errors are unwrapped with errors.Is/As.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	switch {
	case errors.Is(err, ErrNoResults):
		return KindEmpty
	case errors.Is(err, ErrNoData), errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindTransport
	}

	var statusErr *StatusError
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &statusErr) || errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return KindTransport
	}
	return KindOther
}
