package search

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// ErrUnavailable is returned when no session is established. A background
// reconnect has been scheduled by the time the caller sees it.
var ErrUnavailable = errors.New("search engine unavailable")

// ErrInvalidSort is returned by Search for sort expressions on attributes
// that are not configured as sortable.
var ErrInvalidSort = errors.New("invalid sort attribute")

// IsReconnectable reports whether err indicates a broken or stalled
// connection that a fresh session may cure.
func IsReconnectable(err error) bool {
	if err == nil {
		return false
	}
	if isMeiliTransportError(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
