package session

import (
	"errors"
	"net/http"
)

var (
	// ErrUserNotFound indicates no user has the submitted email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPassword indicates the password did not match.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrUnavailable indicates the user directory could not be consulted.
	ErrUnavailable = errors.New("user directory unavailable")
	// ErrUnauthenticated indicates the request carries no valid session.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidToken indicates the user cookie failed verification.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrOAuthState indicates the OIDC callback state did not match.
	ErrOAuthState = errors.New("invalid oauth state")
)

// Message returns the text shown on the login form for err.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "User not found."
	case errors.Is(err, ErrInvalidPassword):
		return "Invalid password."
	}
	return "An error occurred. Please try again."
}

// MapHTTPStatus maps session errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrOAuthState):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
