// Package config loads and validates share-preview configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend providers accepted by backend.provider.
const (
	ProviderSupabase = "supabase"
	ProviderPostgres = "postgres"
	ProviderMemory   = "memory"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Site      SiteConfig      `mapstructure:"site"`
	Preview   PreviewConfig   `mapstructure:"preview"`
	Backend   BackendConfig   `mapstructure:"backend"`
	DB        DBConfig        `mapstructure:"db"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// SiteConfig describes the public site the previews point at.
type SiteConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	Name          string `mapstructure:"name"`
	Description   string `mapstructure:"description"`
	DefaultImage  string `mapstructure:"default_image"`
	TwitterHandle string `mapstructure:"twitter_handle"`
}

// PreviewConfig tunes crawler classification.
type PreviewConfig struct {
	ExtraBotSignatures []string `mapstructure:"extra_bot_signatures"`
}

// BackendConfig selects and configures the content store.
type BackendConfig struct {
	Provider       string  `mapstructure:"provider"`
	URL            string  `mapstructure:"url"`
	Key            string  `mapstructure:"key"`
	Table          string  `mapstructure:"table"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	SeedFile       string  `mapstructure:"seed_file"`
	MaxRPS         float64 `mapstructure:"max_rps"`
	Burst          int     `mapstructure:"burst"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	MaxConnLifetime string `mapstructure:"max_conn_lifetime"`
}

// CacheConfig enables the optional Redis read-through cache. An empty
// RedisAddr disables it.
type CacheConfig struct {
	RedisAddr  string `mapstructure:"redis_addr"`
	Prefix     string `mapstructure:"prefix"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// Enabled reports whether a Redis address is configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// TTL converts cache.ttl_seconds into a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// TelemetryConfig controls tracing setup.
type TelemetryConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
}

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHAREPREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 30)
	v.SetDefault("site.base_url", "https://www.example.com")
	v.SetDefault("site.name", "Example Studio")
	v.SetDefault("site.description", "Strategy, design and technology for brands that want to grow.")
	v.SetDefault("site.default_image", "/og-image.jpg")
	v.SetDefault("preview.extra_bot_signatures", []string{})
	v.SetDefault("backend.provider", ProviderSupabase)
	v.SetDefault("backend.table", "posts")
	v.SetDefault("backend.timeout_seconds", 5)
	v.SetDefault("backend.max_rps", 0)
	v.SetDefault("backend.burst", 10)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("cache.prefix", "sharepreview:post:")
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("logging.development", false)
	v.SetDefault("telemetry.service_name", "share-preview")
	v.SetDefault("telemetry.tracing_enabled", false)
}

// bindEnv lets the hosted backend credentials come from their conventional names.
func bindEnv(v *viper.Viper) error {
	if err := v.BindEnv("backend.url", "SHAREPREVIEW_BACKEND_URL", "SUPABASE_URL"); err != nil {
		return fmt.Errorf("bind backend.url: %w", err)
	}
	if err := v.BindEnv("backend.key", "SHAREPREVIEW_BACKEND_KEY", "SUPABASE_ANON_KEY"); err != nil {
		return fmt.Errorf("bind backend.key: %w", err)
	}
	if err := v.BindEnv("server.port", "SHAREPREVIEW_SERVER_PORT", "PORT"); err != nil {
		return fmt.Errorf("bind server.port: %w", err)
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if !strings.HasPrefix(c.Site.BaseURL, "http://") && !strings.HasPrefix(c.Site.BaseURL, "https://") {
		return fmt.Errorf("site.base_url must be an absolute http(s) URL")
	}
	if _, err := c.DB.ConnLifetime(); err != nil {
		return err
	}
	if c.Cache.Enabled() && c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be > 0 when cache.redis_addr is set")
	}
	if c.Backend.MaxRPS < 0 {
		return fmt.Errorf("backend.max_rps must be >= 0")
	}
	return c.Backend.Validate(c.DB)
}

// Validate reports a ConfigurationError when the selected provider lacks its settings.
func (b BackendConfig) Validate(db DBConfig) error {
	switch b.Provider {
	case ProviderSupabase:
		if b.URL == "" {
			return &ConfigurationError{Field: "backend.url", Reason: "is required for the supabase provider"}
		}
		if b.Key == "" {
			return &ConfigurationError{Field: "backend.key", Reason: "is required for the supabase provider"}
		}
	case ProviderPostgres:
		if db.DSN == "" {
			return &ConfigurationError{Field: "db.dsn", Reason: "is required for the postgres provider"}
		}
	case ProviderMemory:
	default:
		return &ConfigurationError{Field: "backend.provider", Reason: fmt.Sprintf("has unknown value %q", b.Provider)}
	}
	return nil
}

// Timeout converts backend.timeout_seconds into a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// ConnLifetime parses db.max_conn_lifetime; empty means the pool default.
func (d DBConfig) ConnLifetime() (time.Duration, error) {
	if d.MaxConnLifetime == "" {
		return 0, nil
	}
	lifetime, err := time.ParseDuration(d.MaxConnLifetime)
	if err != nil {
		return 0, fmt.Errorf("db.max_conn_lifetime: %w", err)
	}
	return lifetime, nil
}

// RequestTimeout converts server.request_timeout_seconds into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}
