package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/console/internal/documents"
	"github.com/JaimeStill/console/internal/tables"
	"github.com/JaimeStill/console/pkg/handlers"
)

type attachmentHandler struct {
	logger *slog.Logger
}

func (h *attachmentHandler) download(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	att, err := tables.FromContext(r.Context()).Attachment(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, documents.MapHTTPStatus(err), err)
		return
	}
	defer att.Blob.Body.Close()

	handlers.ServeDownload(w, att.Blob.Body, att.Blob.ContentType, att.Blob.ContentLength, att.Meta.Filename)
}
