package tables

import (
	"errors"
	"net/http"
)

// ErrNoSession indicates a workspace was requested without a session id.
var ErrNoSession = errors.New("no session")

// MapHTTPStatus maps registry errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNoSession) {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
