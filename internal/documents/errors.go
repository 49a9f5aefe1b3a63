package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/console/pkg/storage"
	"github.com/JaimeStill/console/pkg/table"
)

// Domain errors for document operations.
var (
	ErrNotFound     = errors.New("document not found")
	ErrNoAttachment = errors.New("document has no attachment")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrInvalidFile  = errors.New("invalid file")
	ErrFileRejected = errors.New("only .pdf, .doc and .docx files are accepted")
)

// MapHTTPStatus maps document domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoAttachment), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrFileRejected):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrInvalidFile):
		return http.StatusBadRequest
	case errors.Is(err, table.ErrPersistFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// FileMessage returns the form text for an attachment error.
func FileMessage(err error) string {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return "The file is too large."
	case errors.Is(err, ErrFileRejected):
		return "Only .pdf, .doc and .docx files are accepted."
	}
	return "The file could not be read."
}
