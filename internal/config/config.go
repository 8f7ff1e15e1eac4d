// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sysora/frontdesk/internal/currency"
)

const (
	defaultPort            = 8080
	defaultShutdownTimeout = 30 * time.Second
	defaultBackendTimeout  = 5 * time.Second
	defaultRefreshInterval = 60 * time.Second
	defaultStaleAfter      = 5 * time.Minute
	defaultRefreshCooldown = 10 * time.Second
	defaultRefreshPerHour  = 60
	defaultTimezone        = "Africa/Algiers"
	defaultEnvironment     = "development"
	minimumRefreshInterval = time.Second
	minimumBackendTimeout  = 100 * time.Millisecond
)

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Token   string        `yaml:"-"` // Loaded from environment
}

type DashboardConfig struct {
	AutoRefresh     bool          `yaml:"auto_refresh"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	LiveSimulation  bool          `yaml:"live_simulation"`
	StaleAfter      time.Duration `yaml:"stale_after"`
}

type RateLimitConfig struct {
	RefreshCooldown time.Duration `yaml:"refresh_cooldown"`
	// RefreshPerHour is nil when the key is absent; an explicit 0 disables
	// the hourly cap.
	RefreshPerHour  *int          `yaml:"refresh_per_hour"`
	TrustProxy      bool          `yaml:"trust_proxy"`
}

// MaxRefreshesPerHour is the hourly refresh cap, 0 meaning unlimited.
func (c RateLimitConfig) MaxRefreshesPerHour() int {
	if c.RefreshPerHour == nil {
		return defaultRefreshPerHour
	}
	return *c.RefreshPerHour
}

type EmailConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Sender    string `yaml:"sender"`
	HotelName string `yaml:"hotel_name"`

	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type Config struct {
	App struct {
		Name            string        `yaml:"name"`
		Environment     string        `yaml:"environment"`
		Port            int           `yaml:"port"`
		Timezone        string        `yaml:"timezone"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"app"`

	Backend BackendConfig `yaml:"backend"`

	Dashboard DashboardConfig `yaml:"dashboard"`

	Pricing struct {
		Currency string `yaml:"currency"`
	} `yaml:"pricing"`

	RateLimit RateLimitConfig `yaml:"ratelimit"`

	Email EmailConfig `yaml:"email"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
		EnableDebug   bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads YAML configuration, applies environment overrides and
// defaults, then validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.Backend.Token = strings.TrimSpace(os.Getenv("HOTEL_API_TOKEN"))
	if baseURL := strings.TrimSpace(os.Getenv("HOTEL_API_BASE_URL")); baseURL != "" {
		cfg.Backend.BaseURL = baseURL
	}
	cfg.Email.AccessKeyID = strings.TrimSpace(os.Getenv("SES_ACCESS_KEY_ID"))
	cfg.Email.SecretAccessKey = strings.TrimSpace(os.Getenv("SES_SECRET_ACCESS_KEY"))

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = defaultEnvironment
	}
	if c.App.Port == 0 {
		c.App.Port = defaultPort
	}
	if c.App.Timezone == "" {
		c.App.Timezone = defaultTimezone
	}
	if c.App.ShutdownTimeout == 0 {
		c.App.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = defaultBackendTimeout
	}
	if c.Dashboard.RefreshInterval == 0 {
		c.Dashboard.RefreshInterval = defaultRefreshInterval
	}
	if c.Dashboard.StaleAfter == 0 {
		c.Dashboard.StaleAfter = defaultStaleAfter
	}
	if c.Pricing.Currency == "" {
		c.Pricing.Currency = currency.DefaultCode
	}
	c.Pricing.Currency = strings.ToUpper(c.Pricing.Currency)
	if c.RateLimit.RefreshCooldown == 0 {
		c.RateLimit.RefreshCooldown = defaultRefreshCooldown
	}
	if c.RateLimit.RefreshPerHour == nil {
		perHour := defaultRefreshPerHour
		c.RateLimit.RefreshPerHour = &perHour
	}
	if c.Email.HotelName == "" {
		c.Email.HotelName = c.App.Name
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app port must be between 1 and 65535")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("app timezone %q: %w", c.App.Timezone, err)
	}
	if c.App.ShutdownTimeout < 0 {
		return fmt.Errorf("app shutdown timeout must not be negative")
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base url is required")
	}
	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("backend base url must be an absolute URL")
	}
	if c.Backend.Timeout < minimumBackendTimeout {
		return fmt.Errorf("backend timeout must be at least %s", minimumBackendTimeout)
	}

	if c.Dashboard.RefreshInterval < minimumRefreshInterval {
		return fmt.Errorf("dashboard refresh interval must be at least %s", minimumRefreshInterval)
	}
	if c.Dashboard.StaleAfter < 0 {
		return fmt.Errorf("dashboard stale_after must not be negative")
	}

	if _, ok := currency.Lookup(c.Pricing.Currency); !ok {
		return fmt.Errorf("unsupported pricing currency: %s", c.Pricing.Currency)
	}

	if c.RateLimit.RefreshCooldown < 0 {
		return fmt.Errorf("ratelimit refresh cooldown must not be negative")
	}
	if c.RateLimit.MaxRefreshesPerHour() < 0 {
		return fmt.Errorf("ratelimit refresh_per_hour must not be negative")
	}

	if c.Email.Enabled {
		if c.Email.Region == "" {
			return fmt.Errorf("email region is required when email is enabled")
		}
		if c.Email.Sender == "" {
			return fmt.Errorf("email sender is required when email is enabled")
		}
	}
	return nil
}

// Location is the hotel's time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.App.Timezone)
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == defaultEnvironment
}
