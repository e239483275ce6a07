package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the polyseek API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Auth       AuthConfig       `yaml:"auth"`
	Search     SearchConfig     `yaml:"search"`
	Suspension SuspensionConfig `yaml:"suspension"`
	Services   []ServiceConfig  `yaml:"services"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the result-cache backend connection settings.
// Optional: with no addrs the engine runs without a result cache.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds result-cache behavior settings.
type CacheConfig struct {
	TTLSec    int    `yaml:"ttl_sec"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SearchConfig bounds one search request.
type SearchConfig struct {
	GlobalTimeoutSec int  `yaml:"global_timeout_sec"`
	MaxConcurrent    int  `yaml:"max_concurrent"`
	TimeoutThreshold int  `yaml:"timeout_threshold"`
	Strict           bool `yaml:"strict"` // zero eligible services becomes an error
}

// SuspensionConfig holds per-failure-class base suspension durations.
// Escalation multiplies the base by the consecutive failure count, capped
// at max_sec.
type SuspensionConfig struct {
	AccessDeniedSec int `yaml:"access_denied_sec"`
	CaptchaSec      int `yaml:"captcha_sec"`
	RateLimitedSec  int `yaml:"rate_limited_sec"`
	GenericSec      int `yaml:"generic_sec"`
	MaxSec          int `yaml:"max_sec"`
}

// ServiceConfig declares one upstream service.
type ServiceConfig struct {
	Name       string            `yaml:"name"`
	Alias      string            `yaml:"alias"`
	Protocol   string            `yaml:"protocol"` // direct, dictionary, currency, urlpattern, offline
	URL        string            `yaml:"url"`      // request template
	Method     string            `yaml:"method"`
	Headers    map[string]string `yaml:"headers"`
	Categories []string          `yaml:"categories"`
	Weight     float64           `yaml:"weight"`
	TimeoutSec int               `yaml:"timeout_sec"`

	Capabilities CapabilitiesConfig `yaml:"capabilities"`
	Network      NetworkConfig      `yaml:"network"`
	Parser       ParserConfig       `yaml:"parser"`
	Entries      []OfflineEntry     `yaml:"entries"` // offline protocol only
}

// CapabilitiesConfig mirrors the optional query features an upstream
// understands.
type CapabilitiesConfig struct {
	Paging     bool `yaml:"paging"`
	Language   bool `yaml:"language"`
	SafeSearch bool `yaml:"safe_search"`
	TimeRange  bool `yaml:"time_range"`
}

// NetworkConfig holds per-service egress settings.
type NetworkConfig struct {
	Proxies       []string `yaml:"proxies"`
	Retries       int      `yaml:"retries"`
	RetryStatuses []int    `yaml:"retry_statuses"`
	MaxPerSecond  float64  `yaml:"max_per_second"`
}

// ParserConfig selects and configures the response parser for direct and
// urlpattern services. JSON fields are dot-separated paths, HTML fields are
// CSS selectors.
type ParserConfig struct {
	Type        string `yaml:"type"` // json, html
	Results     string `yaml:"results"`
	URL         string `yaml:"url"`
	Title       string `yaml:"title"`
	Content     string `yaml:"content"`
	Suggestions string `yaml:"suggestions"`
}

// OfflineEntry is one bundled record served by an offline service.
type OfflineEntry struct {
	URL     string `yaml:"url"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "polyseek:"
	}
	if c.Search.GlobalTimeoutSec <= 0 {
		c.Search.GlobalTimeoutSec = 10
	}
	if c.Search.MaxConcurrent <= 0 {
		c.Search.MaxConcurrent = 32
	}
	if c.Search.TimeoutThreshold <= 0 {
		c.Search.TimeoutThreshold = 3
	}
	if c.Suspension.AccessDeniedSec <= 0 {
		c.Suspension.AccessDeniedSec = 86400
	}
	if c.Suspension.CaptchaSec <= 0 {
		c.Suspension.CaptchaSec = 86400
	}
	if c.Suspension.RateLimitedSec <= 0 {
		c.Suspension.RateLimitedSec = 3600
	}
	if c.Suspension.GenericSec <= 0 {
		c.Suspension.GenericSec = 600
	}
	if c.Suspension.MaxSec <= 0 {
		c.Suspension.MaxSec = 86400
	}
	for i := range c.Services {
		if c.Services[i].Method == "" {
			c.Services[i].Method = "GET"
		}
		if c.Services[i].Weight <= 0 {
			c.Services[i].Weight = 1
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Services) == 0 {
		return fmt.Errorf("at least one service is required")
	}

	seen := make(map[string]bool, len(c.Services))
	for i, s := range c.Services {
		if s.Name == "" {
			return fmt.Errorf("services[%d].name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate service name %q", s.Name)
		}
		seen[s.Name] = true

		switch s.Protocol {
		case "direct", "urlpattern":
			if s.URL == "" {
				return fmt.Errorf("services.%s.url is required for %s protocol", s.Name, s.Protocol)
			}
			if s.Parser.Type != "json" && s.Parser.Type != "html" {
				return fmt.Errorf("services.%s.parser.type must be \"json\" or \"html\", got %q",
					s.Name, s.Parser.Type)
			}
		case "dictionary", "currency":
			if s.URL == "" {
				return fmt.Errorf("services.%s.url is required for %s protocol", s.Name, s.Protocol)
			}
		case "offline":
			if len(s.Entries) == 0 {
				return fmt.Errorf("services.%s.entries is required for offline protocol", s.Name)
			}
		default:
			return fmt.Errorf("services.%s.protocol must be one of direct, dictionary, currency, urlpattern, offline; got %q",
				s.Name, s.Protocol)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
