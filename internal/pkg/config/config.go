package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Demand    DemandConfig    `mapstructure:"demand"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Locator   LocatorConfig   `mapstructure:"locator"`
	Session   SessionConfig   `mapstructure:"session"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// RoutingConfig points at the external journey-planning engine.
type RoutingConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	MaxItineraries  int    `mapstructure:"max_itineraries"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
}

// DemandConfig selects the demand-ledger storage backend.
type DemandConfig struct {
	Backend   string `mapstructure:"backend"` // "file" or "valkey"
	Dir       string `mapstructure:"dir"`     // file backend only
	Key       string `mapstructure:"key"`
	AllowSeed bool   `mapstructure:"allow_seed"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// LocatorConfig points at the IP geolocation service.
type LocatorConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Enabled bool   `mapstructure:"enabled"`
}

type SessionConfig struct {
	IdleMinutes int `mapstructure:"idle_minutes"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("routing.base_url", "http://localhost:8090/otp/routers/default")
	v.SetDefault("routing.max_itineraries", 5)
	v.SetDefault("routing.timeout_seconds", 30)
	v.SetDefault("routing.cache_ttl_seconds", 120)
	v.SetDefault("demand.backend", "file")
	v.SetDefault("demand.dir", "./data")
	v.SetDefault("demand.key", "villago:demand")
	v.SetDefault("demand.allow_seed", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("locator.base_url", "http://ip-api.com")
	v.SetDefault("locator.enabled", true)
	v.SetDefault("session.idle_minutes", 30)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: VILLAGO_ROUTING_BASE_URL → routing.base_url
	v.SetEnvPrefix("VILLAGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
	if c.Routing.BaseURL == "" {
		errs = append(errs, "routing.base_url is required")
	}
	if c.Routing.MaxItineraries <= 0 || c.Routing.MaxItineraries > 20 {
		errs = append(errs, fmt.Sprintf("routing.max_itineraries must be 1-20, got %d", c.Routing.MaxItineraries))
	}
	if c.Routing.TimeoutSeconds <= 0 {
		errs = append(errs, "routing.timeout_seconds must be positive")
	}

	switch c.Demand.Backend {
	case "file":
		if c.Demand.Dir == "" {
			errs = append(errs, "demand.dir is required for the file backend")
		}
	case "valkey":
		if c.Valkey.Addr == "" {
			errs = append(errs, "valkey.addr is required for the valkey backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("demand.backend must be file or valkey, got %q", c.Demand.Backend))
	}
	if c.Demand.Key == "" {
		errs = append(errs, "demand.key is required")
	}

	if c.Locator.Enabled && c.Locator.BaseURL == "" {
		errs = append(errs, "locator.base_url is required when the locator is enabled")
	}
	if c.Session.IdleMinutes <= 0 {
		errs = append(errs, "session.idle_minutes must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
