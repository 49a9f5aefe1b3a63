package documents

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// AcceptedExtensions lists the attachment types the form accepts.
var AcceptedExtensions = []string{".pdf", ".doc", ".docx"}

// Upload is a received attachment file.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReadUpload reads the named multipart file field. It returns nil, nil when
// the field is absent or empty. maxSize bounds the file in bytes.
func ReadUpload(r *http.Request, field string, maxSize int64) (*Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	defer file.Close()

	if header.Filename == "" || header.Size == 0 {
		return nil, nil
	}
	return readPart(file, header, maxSize)
}

func readPart(file multipart.File, header *multipart.FileHeader, maxSize int64) (*Upload, error) {
	if maxSize > 0 && header.Size > maxSize {
		return nil, ErrFileTooLarge
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	return &Upload{
		Filename:    header.Filename,
		ContentType: detectContentType(header.Header.Get("Content-Type"), data),
		Data:        data,
	}, nil
}

// Check rejects files whose extension is not accepted.
func (u *Upload) Check() error {
	ext := strings.ToLower(filepath.Ext(u.Filename))
	if !slices.Contains(AcceptedExtensions, ext) {
		return fmt.Errorf("%w: %s", ErrFileRejected, u.Filename)
	}
	return nil
}

func (u *Upload) describe(logger *slog.Logger) *Attachment {
	key := buildStorageKey(uuid.New(), sanitizeFilename(u.Filename))
	return &Attachment{
		Filename:    u.Filename,
		ContentType: u.ContentType,
		SizeBytes:   int64(len(u.Data)),
		PageCount:   extractPDFPageCount(logger, u.Data, u.ContentType),
		StorageKey:  key,
	}
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}
	return &count
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("documents/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" || name == string(filepath.Separator) {
		name = "document"
	}
	return url.PathEscape(name)
}
