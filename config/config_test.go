package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "HOST", "ENVIRONMENT", "JWT_SECRET", "JWT_EXPIRATION",
		"REFRESH_TOKEN_EXPIRATION", "LOCAL_STORE_DIR", "ALLOWED_ORIGINS",
		"RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Server.Port != "8080" {
		t.Errorf("Port: got %s, want 8080", cfg.Server.Port)
	}
	if cfg.JWT.Expiration != 30*time.Minute {
		t.Errorf("JWT expiration: got %v, want 30m", cfg.JWT.Expiration)
	}
	if cfg.JWT.RefreshTokenExpiration != 7*24*time.Hour {
		t.Errorf("Refresh expiration: got %v, want 168h", cfg.JWT.RefreshTokenExpiration)
	}
	if cfg.Local.Dir != "./data/sessions" {
		t.Errorf("Local store dir: got %s", cfg.Local.Dir)
	}
	if diff := cmp.Diff(cfg.CORS.AllowedOrigins, []string{"http://localhost:19006"}); diff != "" {
		t.Errorf("Allowed origins; diff (-got +want)\n%s", diff)
	}
	if cfg.RateLimit.Requests != 100 || cfg.RateLimit.Window != 60*time.Second {
		t.Errorf("Rate limit: got %d per %v", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Errorf("Default environment is not development")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_EXPIRATION", "15m")
	t.Setenv("LOCAL_STORE_DIR", "/var/lib/maintdesk/sessions")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com,https://admin.example.com")
	t.Setenv("RATE_LIMIT_WINDOW", "120")

	cfg := Load()
	if cfg.Server.Port != "9090" {
		t.Errorf("Port: got %s, want 9090", cfg.Server.Port)
	}
	if !cfg.IsProduction() {
		t.Errorf("Environment override not applied")
	}
	if cfg.JWT.Expiration != 15*time.Minute {
		t.Errorf("JWT expiration: got %v, want 15m", cfg.JWT.Expiration)
	}
	if cfg.Local.Dir != "/var/lib/maintdesk/sessions" {
		t.Errorf("Local store dir: got %s", cfg.Local.Dir)
	}
	want := []string{"https://app.example.com", "https://admin.example.com"}
	if diff := cmp.Diff(cfg.CORS.AllowedOrigins, want); diff != "" {
		t.Errorf("Allowed origins; diff (-got +want)\n%s", diff)
	}
	// Bare numbers in duration settings are read as seconds.
	if cfg.RateLimit.Window != 120*time.Second {
		t.Errorf("Rate limit window: got %v, want 2m", cfg.RateLimit.Window)
	}
}

func TestParseStringSlice(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"a", []string{"a"}},
		{"a,b,c", []string{"a", "b", "c"}},
		{"a,,b", []string{"a", "b"}},
		{",a,", []string{"a"}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(parseStringSlice(tc.in), tc.want); diff != "" {
			t.Errorf("parseStringSlice(%q); diff (-got +want)\n%s", tc.in, diff)
		}
	}
}
