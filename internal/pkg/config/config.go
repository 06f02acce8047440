package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	Search    SearchConfig    `mapstructure:"search"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`
	WriteTimeout int      `mapstructure:"write_timeout"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// UpstreamConfig configures the food-waste offer API.
type UpstreamConfig struct {
	BaseURL   string  `mapstructure:"base_url"`
	APIKey    string  `mapstructure:"api_key"`
	Timeout   int     `mapstructure:"timeout"` // seconds
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type GeocoderConfig struct {
	BaseURL   string  `mapstructure:"base_url"`
	UserAgent string  `mapstructure:"user_agent"`
	Country   string  `mapstructure:"country"`
	Timeout   int     `mapstructure:"timeout"` // seconds
	RateLimit float64 `mapstructure:"rate_limit"`
	CacheTTL  int     `mapstructure:"cache_ttl"` // hours
}

type SearchConfig struct {
	Timeout int `mapstructure:"timeout"` // seconds, per HTTP search request
}

type SessionsConfig struct {
	IdleTTL       int `mapstructure:"idle_ttl"` // minutes
	Max           int `mapstructure:"max"`
	SweepInterval int `mapstructure:"sweep_interval"` // seconds
}

// NATSConfig enables session event fan-out when URL is set.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ValkeyConfig enables the geocode cache when Addr is set.
type ValkeyConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (u UpstreamConfig) TimeoutDuration() time.Duration {
	return time.Duration(u.Timeout) * time.Second
}

func (g GeocoderConfig) TimeoutDuration() time.Duration {
	return time.Duration(g.Timeout) * time.Second
}

func (g GeocoderConfig) CacheTTLDuration() time.Duration {
	return time.Duration(g.CacheTTL) * time.Hour
}

func (s SearchConfig) TimeoutDuration() time.Duration { return time.Duration(s.Timeout) * time.Second }

func (s SessionsConfig) IdleTTLDuration() time.Duration {
	return time.Duration(s.IdleTTL) * time.Minute
}

func (s SessionsConfig) SweepIntervalDuration() time.Duration {
	return time.Duration(s.SweepInterval) * time.Second
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("upstream.base_url", "https://api.sallinggroup.com")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.timeout", 15)
	v.SetDefault("upstream.rate_limit", 5)
	v.SetDefault("upstream.rate_burst", 5)
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", service+"/1.0")
	v.SetDefault("geocoder.country", "Denmark")
	v.SetDefault("geocoder.timeout", 10)
	v.SetDefault("geocoder.rate_limit", 1)
	v.SetDefault("geocoder.cache_ttl", 24)
	v.SetDefault("search.timeout", 20)
	v.SetDefault("sessions.idle_ttl", 30)
	v.SetDefault("sessions.max", 10000)
	v.SetDefault("sessions.sweep_interval", 60)
	v.SetDefault("nats.url", "")
	v.SetDefault("valkey.addr", "")
	v.SetDefault("valkey.prefix", service+":")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MADSPILD_UPSTREAM_API_KEY → upstream.api_key
	v.SetEnvPrefix("MADSPILD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The credential is also accepted under the name the upstream documents.
	_ = v.BindEnv("upstream.api_key", "MADSPILD_UPSTREAM_API_KEY", "SALLING_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
// A missing upstream API key is allowed; readiness reports it.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if err := validURL(c.Upstream.BaseURL); err != nil {
		errs = append(errs, "upstream.base_url "+err.Error())
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, "upstream.timeout must be positive")
	}
	if c.Upstream.RateLimit <= 0 || c.Upstream.RateBurst <= 0 {
		errs = append(errs, "upstream.rate_limit and upstream.rate_burst must be positive")
	}
	if err := validURL(c.Geocoder.BaseURL); err != nil {
		errs = append(errs, "geocoder.base_url "+err.Error())
	}
	if c.Geocoder.UserAgent == "" {
		errs = append(errs, "geocoder.user_agent is required")
	}
	if c.Geocoder.Timeout <= 0 {
		errs = append(errs, "geocoder.timeout must be positive")
	}
	if c.Search.Timeout <= c.Upstream.Timeout {
		errs = append(errs, fmt.Sprintf("search.timeout (%d) must exceed upstream.timeout (%d)", c.Search.Timeout, c.Upstream.Timeout))
	}
	if c.Sessions.IdleTTL <= 0 {
		errs = append(errs, "sessions.idle_ttl must be positive")
	}
	if c.Sessions.Max <= 0 {
		errs = append(errs, "sessions.max must be positive")
	}
	if c.Sessions.SweepInterval <= 0 {
		errs = append(errs, "sessions.sweep_interval must be positive")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry.otlp_endpoint is required when telemetry is enabled")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL, got %q", raw)
	}
	return nil
}
