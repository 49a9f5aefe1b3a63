package form_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/console/pkg/form"
)

type draft struct {
	Name  string `form:"name"`
	Email string `form:"email"`
	Role  string `form:"role"`
}

func TestErrors(t *testing.T) {
	errs := form.Errors{}
	if errs.Err() != nil {
		t.Fatal("empty Errors should yield nil error")
	}

	errs.Required("name", "  ", "Name is required.")
	errs.Required("name", "", "second message")
	errs.Email("email", "not-an-email", "Enter a valid email.")
	errs.OneOf("role", "root", []string{"user", "admin"}, "Choose a role.")

	want := form.Errors{
		"name":  "Name is required.",
		"email": "Enter a valid email.",
		"role":  "Choose a role.",
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}

	err := errs.Err()
	if !errors.Is(err, form.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
	var fe form.Errors
	if !errors.As(err, &fe) || fe.Get("role") != "Choose a role." {
		t.Errorf("errors.As failed for %v", err)
	}
	if !strings.HasPrefix(err.Error(), "validation failed: email:") {
		t.Errorf("message = %q, want sorted fields", err.Error())
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"", true},
		{"Sincere@april.biz", true},
		{"Shanna@melissa.tv", true},
		{"Ann <ann@example.com>", false},
		{"ann@", false},
		{"plain", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			errs := form.Errors{}
			errs.Email("email", tt.value, "invalid")
			if got := errs.Err() == nil; got != tt.valid {
				t.Errorf("valid = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestDecodeURLEncoded(t *testing.T) {
	body := url.Values{
		"name":               {"Ann"},
		"email":              {"ann@example.com"},
		"role":               {"admin"},
		"gorilla.csrf.Token": {"ignored"},
		"editing_id":         {"4"},
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var d draft
	if err := form.Decode(req, &d, 1<<20); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if diff := cmp.Diff(draft{"Ann", "ann@example.com", "admin"}, d); diff != "" {
		t.Errorf("draft mismatch (-want +got):\n%s", diff)
	}

	id := form.EditingID(req)
	if id == nil || *id != 4 {
		t.Errorf("EditingID = %v, want 4", id)
	}
}

func TestDecodeMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("name", "Bob")
	part, _ := mw.CreateFormFile("file", "a.pdf")
	part.Write([]byte("%PDF-1.4"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var d draft
	if err := form.Decode(req, &d, 1<<20); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Name != "Bob" {
		t.Errorf("name = %q, want Bob", d.Name)
	}
	if form.EditingID(req) != nil {
		t.Error("EditingID should be nil when absent")
	}
}

func TestEditingIDIgnoresInvalid(t *testing.T) {
	for _, v := range []string{"", "0", "-3", "abc"} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("editing_id="+v))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.ParseForm()

		if id := form.EditingID(req); id != nil {
			t.Errorf("EditingID(%q) = %d, want nil", v, *id)
		}
	}
}
