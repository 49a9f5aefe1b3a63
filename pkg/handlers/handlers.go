// Package handlers provides JSON response helpers shared by HTTP handlers.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/console/pkg/middleware"
)

// RespondJSON writes data as a JSON body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes {"error": err} with the given status code.
// Server errors are logged with the request id; client errors are not.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("handler error",
			"request", w.Header().Get(middleware.RequestIDHeader),
			"status", status,
			"error", err,
		)
	}
	RespondJSON(w, status, map[string]string{"error": err.Error()})
}

// ServeDownload streams body as a file attachment named filename.
func ServeDownload(w http.ResponseWriter, body io.Reader, contentType string, length int64, filename string) {
	w.Header().Set("Content-Type", contentType)
	if length > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}
