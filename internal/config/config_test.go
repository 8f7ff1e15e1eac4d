package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
app:
  name: sysora-frontdesk
  environment: production
  port: 9090
  timezone: UTC
  shutdown_timeout: 10s
backend:
  base_url: http://localhost:5000
  timeout: 3s
dashboard:
  auto_refresh: true
  refresh_interval: 90s
  live_simulation: true
  stale_after: 2m
pricing:
  currency: usd
ratelimit:
  refresh_cooldown: 15s
  trust_proxy: true
features:
  enable_metrics: true
`

func TestParse_FullConfig(t *testing.T) {
	t.Setenv("HOTEL_API_TOKEN", " secret ")
	t.Setenv("HOTEL_API_BASE_URL", "")

	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.App.Port != 9090 || cfg.App.ShutdownTimeout != 10*time.Second {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Backend.Token != "secret" {
		t.Errorf("Token = %q, want trimmed env value", cfg.Backend.Token)
	}
	if cfg.Backend.Timeout != 3*time.Second {
		t.Errorf("Backend.Timeout = %v", cfg.Backend.Timeout)
	}
	if !cfg.Dashboard.AutoRefresh || !cfg.Dashboard.LiveSimulation {
		t.Errorf("dashboard flags = %+v", cfg.Dashboard)
	}
	if cfg.Dashboard.RefreshInterval != 90*time.Second || cfg.Dashboard.StaleAfter != 2*time.Minute {
		t.Errorf("dashboard durations = %+v", cfg.Dashboard)
	}
	if cfg.Pricing.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", cfg.Pricing.Currency)
	}
	if cfg.RateLimit.RefreshCooldown != 15*time.Second || !cfg.RateLimit.TrustProxy {
		t.Errorf("ratelimit = %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.MaxRefreshesPerHour() != defaultRefreshPerHour {
		t.Errorf("MaxRefreshesPerHour = %d, want default", cfg.RateLimit.MaxRefreshesPerHour())
	}
	if cfg.IsDevelopment() {
		t.Error("production config reported development")
	}
}

func TestParse_Defaults(t *testing.T) {
	t.Setenv("HOTEL_API_TOKEN", "")
	t.Setenv("HOTEL_API_BASE_URL", "")

	cfg, err := Parse([]byte("app:\n  name: frontdesk\nbackend:\n  base_url: https://api.example.com\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.App.Port != defaultPort || cfg.App.Environment != defaultEnvironment {
		t.Errorf("app defaults = %+v", cfg.App)
	}
	if cfg.Dashboard.RefreshInterval != 60*time.Second || cfg.Dashboard.StaleAfter != 5*time.Minute {
		t.Errorf("dashboard defaults = %+v", cfg.Dashboard)
	}
	if cfg.Backend.Timeout != 5*time.Second {
		t.Errorf("Backend.Timeout = %v", cfg.Backend.Timeout)
	}
	if cfg.Pricing.Currency != "DZD" {
		t.Errorf("Currency = %q, want DZD", cfg.Pricing.Currency)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != defaultTimezone {
		t.Errorf("Location = %v, %v", loc, err)
	}
	if !cfg.IsDevelopment() {
		t.Error("default environment should be development")
	}
}

func TestParse_EnvBaseURLOverride(t *testing.T) {
	t.Setenv("HOTEL_API_BASE_URL", "http://backend:5000")

	cfg, err := Parse([]byte("app:\n  name: frontdesk\nbackend:\n  base_url: http://localhost:5000\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Backend.BaseURL != "http://backend:5000" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv("HOTEL_API_BASE_URL", "")

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "missing name", yaml: "backend:\n  base_url: http://x\n", want: "app name is required"},
		{name: "bad port", yaml: "app:\n  name: a\n  port: 70000\nbackend:\n  base_url: http://x\n", want: "app port"},
		{name: "bad timezone", yaml: "app:\n  name: a\n  timezone: Mars/Olympus\nbackend:\n  base_url: http://x\n", want: "app timezone"},
		{name: "missing backend", yaml: "app:\n  name: a\n", want: "backend base url is required"},
		{name: "relative backend", yaml: "app:\n  name: a\nbackend:\n  base_url: /api\n", want: "absolute URL"},
		{name: "tiny refresh", yaml: "app:\n  name: a\nbackend:\n  base_url: http://x\ndashboard:\n  refresh_interval: 10ms\n", want: "refresh interval"},
		{name: "unknown currency", yaml: "app:\n  name: a\nbackend:\n  base_url: http://x\npricing:\n  currency: XYZ\n", want: "unsupported pricing currency"},
		{name: "email without sender", yaml: "app:\n  name: a\nbackend:\n  base_url: http://x\nemail:\n  enabled: true\n  region: eu-west-1\n", want: "email sender is required"},
		{name: "bad duration", yaml: "app:\n  name: a\n  shutdown_timeout: soon\n", want: "error parsing config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoad_ReadsEnvFileNextToConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(sampleConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("HOTEL_API_TOKEN=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOTEL_API_BASE_URL", "")
	// godotenv does not override variables that are already set.
	t.Setenv("HOTEL_API_TOKEN", "")
	os.Unsetenv("HOTEL_API_TOKEN")

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.Token != "from-dotenv" {
		t.Errorf("Token = %q, want value from .env", cfg.Backend.Token)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load succeeded for a missing file")
	}
}

func TestParse_EmailFromEnvironment(t *testing.T) {
	t.Setenv("HOTEL_API_BASE_URL", "")
	t.Setenv("SES_ACCESS_KEY_ID", "AKIATEST")
	t.Setenv("SES_SECRET_ACCESS_KEY", "secret")

	cfg, err := Parse([]byte("app:\n  name: Hotel Sahara\nbackend:\n  base_url: http://x\nemail:\n  enabled: true\n  region: eu-west-1\n  sender: desk@example.com\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Email.AccessKeyID != "AKIATEST" || cfg.Email.SecretAccessKey != "secret" {
		t.Errorf("credentials not loaded: %+v", cfg.Email)
	}
	if cfg.Email.HotelName != "Hotel Sahara" {
		t.Errorf("HotelName = %q, want app name", cfg.Email.HotelName)
	}
}

func TestParse_RefreshPerHour(t *testing.T) {
	t.Setenv("HOTEL_API_TOKEN", "")
	t.Setenv("HOTEL_API_BASE_URL", "")

	base := "app:\n  name: frontdesk\nbackend:\n  base_url: https://api.example.com\n"
	tests := []struct {
		name string
		yaml string
		want int
	}{
		{name: "absent uses default", yaml: base, want: defaultRefreshPerHour},
		{name: "zero disables", yaml: base + "ratelimit:\n  refresh_per_hour: 0\n", want: 0},
		{name: "explicit", yaml: base + "ratelimit:\n  refresh_per_hour: 5\n", want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := cfg.RateLimit.MaxRefreshesPerHour(); got != tt.want {
				t.Errorf("MaxRefreshesPerHour = %d, want %d", got, tt.want)
			}
		})
	}

	if _, err := Parse([]byte(base + "ratelimit:\n  refresh_per_hour: -1\n")); err == nil {
		t.Error("negative refresh_per_hour should fail validation")
	}
}
