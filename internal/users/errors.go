package users

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/console/pkg/table"
)

var (
	// ErrNotFound indicates no user matches the lookup.
	ErrNotFound = errors.New("user not found")
)

// MapHTTPStatus maps user domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, table.ErrPersistFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
