package source_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/console/pkg/source"
)

var testEnv = &source.Env{
	BaseURL:      "TEST_SOURCE_BASE_URL",
	Timeout:      "TEST_SOURCE_TIMEOUT",
	WriteThrough: "TEST_SOURCE_WRITE_THROUGH",
}

func TestConfigDefaults(t *testing.T) {
	cfg := &source.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if cfg.BaseURL != "https://jsonplaceholder.typicode.com" {
		t.Errorf("base_url = %s", cfg.BaseURL)
	}
	if cfg.TimeoutDuration() != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.TimeoutDuration())
	}
	if cfg.Paths["users"] != "/users" || cfg.Paths["documents"] != "/posts" {
		t.Errorf("paths = %v", cfg.Paths)
	}
	if cfg.WriteThrough {
		t.Error("write_through should default to false")
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("TEST_SOURCE_BASE_URL", "http://localhost:3000")
	t.Setenv("TEST_SOURCE_TIMEOUT", "3s")
	t.Setenv("TEST_SOURCE_WRITE_THROUGH", "true")

	cfg := &source.Config{}
	if err := cfg.Finalize(testEnv); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if cfg.BaseURL != "http://localhost:3000" {
		t.Errorf("base_url = %s", cfg.BaseURL)
	}
	if cfg.TimeoutDuration() != 3*time.Second {
		t.Errorf("timeout = %v", cfg.TimeoutDuration())
	}
	if !cfg.WriteThrough {
		t.Error("write_through should be true")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  source.Config
	}{
		{"relative base url", source.Config{BaseURL: "/api"}},
		{"bad timeout", source.Config{Timeout: "soon"}},
		{"zero timeout", source.Config{Timeout: "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := &source.Config{
		BaseURL: "https://a.example",
		Paths:   map[string]string{"users": "/users"},
	}
	base.Merge(&source.Config{
		Timeout: "5s",
		Paths:   map[string]string{"documents": "/docs"},
	})

	if base.BaseURL != "https://a.example" {
		t.Errorf("base_url = %s", base.BaseURL)
	}
	if base.Timeout != "5s" {
		t.Errorf("timeout = %s", base.Timeout)
	}
	if base.Paths["users"] != "/users" || base.Paths["documents"] != "/docs" {
		t.Errorf("paths = %v", base.Paths)
	}
}
