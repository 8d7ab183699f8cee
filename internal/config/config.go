// Package config loads the bot configuration from an optional YAML
// file with environment variable overrides. Configuration is read once
// at startup and never re-read.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultCommerceURL = "https://api.moltin.com"
	DefaultRedisAddr   = "localhost:6379"
	DefaultMetricsAddr = ":9090"
	DefaultSessionTTL  = Duration(48 * time.Hour)
	DefaultLogLevel    = "info"
)

// Config is the full bot configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Commerce CommerceConfig `yaml:"commerce"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
}

type CommerceConfig struct {
	BaseURL      string `yaml:"base_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Duration is a time.Duration that unmarshals from YAML strings such
// as "48h" or "30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type SessionConfig struct {
	TTL Duration `yaml:"ttl"`

	// DistributedLock serializes session access through Redis as well,
	// for deployments running more than one bot replica.
	DistributedLock bool `yaml:"distributed_lock"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML file at path (skipped when the file does not
// exist), applies environment overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Environment-only configuration is fine.
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv keeps the variable names of the original deployment so an
// existing .env keeps working.
func (c *Config) applyEnv() {
	setString(&c.Telegram.Token, "TG_TOKEN")
	setString(&c.Commerce.BaseURL, "MOLTIN_API_URL")
	setString(&c.Commerce.ClientID, "CLIENT_ID")
	setString(&c.Commerce.ClientSecret, "CLIENT_SECRET")
	setString(&c.Redis.Password, "DB_PASSWORD")

	host, hostSet := os.LookupEnv("DB_HOST")
	port, portSet := os.LookupEnv("DB_PORT")
	if hostSet || portSet {
		if host == "" {
			host = "localhost"
		}
		if port == "" {
			port = "6379"
		}
		c.Redis.Addr = host + ":" + port
	}
	if v, ok := os.LookupEnv("DB_NUMBER"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	setString(&c.Metrics.Addr, "METRICS_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Commerce.BaseURL == "" {
		c.Commerce.BaseURL = DefaultCommerceURL
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = DefaultRedisAddr
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func (c *Config) validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram token is required (telegram.token or TG_TOKEN)")
	}
	if c.Commerce.ClientID == "" || c.Commerce.ClientSecret == "" {
		return errors.New("commerce credentials are required (commerce.client_id/client_secret or CLIENT_ID/CLIENT_SECRET)")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
