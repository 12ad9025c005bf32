// Package config loads the application settings from defaults, an optional
// YAML file, .env files, REGIONS_* environment variables and, last, CLI flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces the environment variables read by Load.
const EnvPrefix = "REGIONS_"

type API struct {
	BaseURL       string        `mapstructure:"base_url"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type Server struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// SessionDir keeps sessions as JSON files when Redis is not configured.
	SessionDir string `mapstructure:"session_dir"`
}

// Redis enables the shared session store when URL is set.
type Redis struct {
	URL    string        `mapstructure:"url"`
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full application configuration.
type Config struct {
	API    API    `mapstructure:"api"`
	Server Server `mapstructure:"server"`
	Redis  Redis  `mapstructure:"redis"`
	Log    Log    `mapstructure:"log"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		API: API{
			BaseURL:       "https://restcountries.com/v2",
			RatePerSecond: 5,
			Burst:         5,
			Timeout:       10 * time.Second,
		},
		Server: Server{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Redis: Redis{
			Prefix: "regions:session:",
			TTL:    24 * time.Hour,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// envKeys maps environment variables (without prefix) to config paths.
var envKeys = map[string]string{
	"API_URL":      "api.base_url",
	"API_RATE":     "api.rate_per_second",
	"API_BURST":    "api.burst",
	"API_TIMEOUT":  "api.timeout",
	"ADDR":         "server.addr",
	"CORS_ORIGINS": "server.cors_origins",
	"SESSION_DIR":  "server.session_dir",
	"REDIS_URL":    "redis.url",
	"REDIS_PREFIX": "redis.prefix",
	"REDIS_TTL":    "redis.ttl",
	"LOG_LEVEL":    "log.level",
	"LOG_FORMAT":   "log.format",
}

// Load builds the configuration. path is an optional YAML file; envFiles are
// optional .env files (missing ones are skipped). Variables already set in the
// process environment win over .env values.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	// 1. YAML file
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if err := decode(raw, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	// 2. .env files
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	// 3. Environment
	if err := decode(fromEnv(os.LookupEnv), cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	return cfg, nil
}

// fromEnv collects the REGIONS_* variables into a nested map shaped like Config.
func fromEnv(lookup func(string) (string, bool)) map[string]any {
	out := make(map[string]any)
	for name, path := range envKeys {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		section, key, _ := strings.Cut(path, ".")
		m, _ := out[section].(map[string]any)
		if m == nil {
			m = make(map[string]any)
			out[section] = m
		}
		m[key] = v
	}
	return out
}

func decode(input map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL))
	}
	if c.API.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("api.rate_per_second must not be negative"))
	}
	if c.API.Burst < 0 {
		errs = append(errs, fmt.Errorf("api.burst must not be negative"))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, fmt.Errorf("api.timeout must not be negative"))
	}

	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.addr: %w", err))
	}

	if c.Redis.URL != "" {
		ru, err := url.Parse(c.Redis.URL)
		if err != nil || (ru.Scheme != "redis" && ru.Scheme != "rediss") {
			errs = append(errs, fmt.Errorf("redis.url must be a redis:// or rediss:// URL"))
		}
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, fmt.Errorf("redis.ttl must not be negative"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
