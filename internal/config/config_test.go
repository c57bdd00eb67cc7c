package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads so tests see pure defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT",
		"IDLE_TIMEOUT", "MAX_HEADER_BYTES", "GIN_MODE", "LOG_LEVEL",
		"LOG_PRETTY", "SWAGGER_ENABLED", "API_BASE_PATH", "DB_PATH",
		"INTEGRATION_BASE_URL", "INTEGRATION_ADD_PATH", "INTEGRATION_INQUIRY_PATH",
		"INTEGRATION_API_KEY", "INTEGRATION_TIMEOUT", "INTEGRATION_MAX_RETRIES",
		"RATE_RPS", "RATE_BURST", "CORS_ALLOWED_ORIGINS", "ENABLE_HSTS",
		"HSTS_MAX_AGE", "IDEMPOTENCY_TTL", "OTEL_ENABLED",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_SERVICE_NAME", "OTEL_TRACES_SAMPLER_ARG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q; want 8080", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q; want release", cfg.GinMode)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Errorf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.Integration.BaseURL != "http://localhost:9090" {
		t.Errorf("Integration.BaseURL = %q", cfg.Integration.BaseURL)
	}
	if cfg.Integration.Timeout != 30*time.Second {
		t.Errorf("Integration.Timeout = %v", cfg.Integration.Timeout)
	}
	if cfg.Integration.MaxRetries != 3 {
		t.Errorf("Integration.MaxRetries = %d", cfg.Integration.MaxRetries)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Errorf("IdempotencyTTL = %v", cfg.IdempotencyTTL)
	}
}

func TestLoad_IntegrationNormalization(t *testing.T) {
	clearEnv(t)
	t.Setenv("INTEGRATION_BASE_URL", "https://partner.example.com/")
	t.Setenv("INTEGRATION_ADD_PATH", "v2/requests")
	t.Setenv("INTEGRATION_INQUIRY_PATH", "v2/requests/inquiry")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Integration.BaseURL != "https://partner.example.com" {
		t.Errorf("BaseURL trailing slash kept: %q", cfg.Integration.BaseURL)
	}
	if !strings.HasPrefix(cfg.Integration.AddRequestPath, "/") {
		t.Errorf("AddRequestPath not rooted: %q", cfg.Integration.AddRequestPath)
	}
	if !strings.HasPrefix(cfg.Integration.InquiryPath, "/") {
		t.Errorf("InquiryPath not rooted: %q", cfg.Integration.InquiryPath)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad base url", "INTEGRATION_BASE_URL", "partner.example.com"},
		{"negative timeout", "INTEGRATION_TIMEOUT", "-5s"},
		{"zero burst", "RATE_BURST", "0"},
		{"negative rps", "RATE_RPS", "-1"},
		{"zero idempotency ttl", "IDEMPOTENCY_TTL", "-1h"},
		{"bad sample ratio", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", tc.key, tc.val)
			}
		})
	}
}

func TestLoad_WarnAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "warning")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q; want warn", cfg.LogLevel)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":         "/",
		"/":        "/",
		"api/v1":   "/api/v1",
		"/api/v1/": "/api/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}
