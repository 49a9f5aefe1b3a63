package source

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrUnknownKind indicates no resource path is configured for a kind.
	ErrUnknownKind = errors.New("unknown record kind")
	// ErrUnexpectedStatus indicates the remote answered with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrDecode indicates the remote body could not be parsed.
	ErrDecode = errors.New("decode response")
)

// MapHTTPStatus maps source errors to HTTP status codes for proxied responses.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnknownKind) {
		return http.StatusNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
