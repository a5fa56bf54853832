package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/de-tools/realty-atlas/pkg/services/fetcher"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "ATLAS"
	DefaultProfile = "DEFAULT"

	EngineMemory = "memory"
	EngineDuckDB = "duckdb"
)

type Config struct {
	RegionsFile string        `mapstructure:"regions_file"`
	ProfileFile string        `mapstructure:"profile_file"`
	Profile     string        `mapstructure:"profile"`
	ServiceKey  string        `mapstructure:"service_key"`
	Endpoint    string        `mapstructure:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	Concurrency int           `mapstructure:"concurrency"`
	PageSize    int           `mapstructure:"page_size"`
	Engine      string        `mapstructure:"engine"`
	DBPath      string        `mapstructure:"db_path"`
	Cache       bool          `mapstructure:"cache"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
	ServerAddr  string        `mapstructure:"server_addr"`
}

// SetDefaults registers every key so ATLAS_* variables reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("regions_file", "")
	v.SetDefault("profile_file", defaultProfileFile())
	v.SetDefault("profile", DefaultProfile)
	v.SetDefault("service_key", "")
	v.SetDefault("endpoint", fetcher.DefaultEndpoint)
	v.SetDefault("timeout", fetcher.DefaultTimeout)
	v.SetDefault("rate_limit", 5.0)
	v.SetDefault("concurrency", 1)
	v.SetDefault("page_size", fetcher.DefaultPageSize)
	v.SetDefault("engine", EngineMemory)
	v.SetDefault("db_path", "")
	v.SetDefault("cache", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("server_addr", "localhost:8080")
}

// Load reads an optional config file, then ATLAS_* environment variables and
// any flags already bound to v.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.RegionsFile != "" {
		if _, err := os.Stat(c.RegionsFile); err != nil {
			errs = append(errs, fmt.Sprintf("regions file %q: %v", c.RegionsFile, err))
		}
	}
	if u, err := url.Parse(c.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("invalid endpoint %q: must be an http(s) URL", c.Endpoint))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid timeout %s: must be positive", c.Timeout))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %v: must not be negative", c.RateLimit))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Sprintf("invalid concurrency %d: must be at least 1", c.Concurrency))
	}
	if c.PageSize < 1 || c.PageSize > 10000 {
		errs = append(errs, fmt.Sprintf("invalid page size %d: must be between 1 and 10000", c.PageSize))
	}
	if c.Engine != EngineMemory && c.Engine != EngineDuckDB {
		errs = append(errs, fmt.Sprintf("invalid engine %q: must be %q or %q", c.Engine, EngineMemory, EngineDuckDB))
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level %q", c.LogLevel))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format %q: must be console or json", c.LogFormat))
	}
	if _, _, err := net.SplitHostPort(c.ServerAddr); err != nil {
		errs = append(errs, fmt.Sprintf("invalid server address %q: %v", c.ServerAddr, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ClientConfig builds the fetcher settings; the service key comes from profile
// when the config does not carry one.
func (c *Config) ClientConfig(profile *Profile) fetcher.ClientConfig {
	cc := fetcher.ClientConfig{
		Endpoint:          c.Endpoint,
		ServiceKey:        c.ServiceKey,
		PageSize:          c.PageSize,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.RateLimit,
	}
	if profile != nil {
		if cc.ServiceKey == "" {
			cc.ServiceKey = profile.ServiceKey
		}
		if profile.Endpoint != "" && c.Endpoint == fetcher.DefaultEndpoint {
			cc.Endpoint = profile.Endpoint
		}
	}
	return cc
}

func defaultProfileFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".atlascfg"
	}
	return filepath.Join(home, ".atlascfg")
}
