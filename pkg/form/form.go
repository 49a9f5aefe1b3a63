// Package form decodes submitted forms into drafts and collects per-field
// validation messages.
package form

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/mail"
	"slices"
	"strings"

	"github.com/gorilla/schema"
)

// ErrValidation is matched by every Errors value.
var ErrValidation = errors.New("validation failed")

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.SetAliasTag("form")
	return d
}

// Errors maps a field name to the message shown beside it.
type Errors map[string]string

// Add records msg for field, keeping the first message per field.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Get returns the message for field, or "".
func (e Errors) Get(field string) string {
	return e[field]
}

// Err returns e as an error, or nil when no field failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := slices.Sorted(maps.Keys(e))
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e Errors) Unwrap() error {
	return ErrValidation
}

// Required records a message when value is blank.
func (e Errors) Required(field, value, msg string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, msg)
	}
}

// Email records a message when value is not a bare email address.
func (e Errors) Email(field, value, msg string) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		e.Add(field, msg)
	}
}

// OneOf records a message when value is not among allowed.
func (e Errors) OneOf(field, value string, allowed []string, msg string) {
	if !slices.Contains(allowed, value) {
		e.Add(field, msg)
	}
}

// Decode parses the request form (urlencoded or multipart) into dst using
// `form` struct tags. maxMemory bounds multipart parsing.
func Decode(r *http.Request, dst any, maxMemory int64) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return fmt.Errorf("parse multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}

	if err := decoder.Decode(dst, r.PostForm); err != nil {
		return fmt.Errorf("decode form: %w", err)
	}
	return nil
}

// EditingID reads the optional hidden id field. Blank or malformed values mean
// the submission creates a record.
func EditingID(r *http.Request) *int {
	var v struct {
		ID int `form:"editing_id"`
	}
	if err := decoder.Decode(&v, r.PostForm); err != nil || v.ID < 1 {
		return nil
	}
	return &v.ID
}
