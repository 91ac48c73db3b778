package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ProviderName enumerates the closed set of upstream catalog providers this
// module knows how to speak to.
type ProviderName string

const (
	ProviderCommunityRadio   ProviderName = "community-radio"
	ProviderShoutcastStyle   ProviderName = "shoutcast-style"
	ProviderKeywordDirectory ProviderName = "keyword-directory"
	ProviderAppleITunes      ProviderName = "apple-itunes"
	ProviderIndexHMAC        ProviderName = "index-hmac"
	ProviderGraphQLDirectory ProviderName = "taddy-graphql"
)

// AllProviders lists every provider name known to the registry, in a fixed
// order used only for iterating configuration — merge/priority order comes
// from ProviderConfig.Priority, not this slice.
var AllProviders = []ProviderName{
	ProviderCommunityRadio,
	ProviderShoutcastStyle,
	ProviderKeywordDirectory,
	ProviderAppleITunes,
	ProviderIndexHMAC,
	ProviderGraphQLDirectory,
}

// ProviderConfig is built once at startup from environment variables and is
// immutable for the process lifetime.
type ProviderConfig struct {
	Name              ProviderName
	Enabled           bool
	Priority          int
	TimeoutMillis     int
	CacheTTLMillis    int
	RateLimitQuota    int // 0 means unlimited
	RatePeriodSeconds int
	APIKey            string
	APISecret         string
	Bearer            string
	BaseURL           string
}

// HasQuota reports whether this provider is subject to a rate limit.
func (p ProviderConfig) HasQuota() bool {
	return p.RateLimitQuota > 0 && p.RatePeriodSeconds > 0
}

// Config is the module's top-level configuration, loaded from environment
// variables the same way the teacher's core.Config is: a small set of
// getEnv helpers and a Validate pass, no external config library.
type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	Providers map[ProviderName]ProviderConfig
}

// ServerConfig configures the operational status surface (internal/statusweb).
type ServerConfig struct {
	Host string
	Port int
}

// CacheConfig selects and configures the backing store for Cache and
// RateLimiter (§4.6, §4.7 call this "pluggable storage").
type CacheConfig struct {
	// Backend is "memory" (default, single instance) or "sqlite" (shared,
	// horizontally-scaled deployments).
	Backend string
	Path    string
}

// LoadConfig loads configuration from environment variables. Unknown
// environment variables are ignored; booleans accept "true"/"1" as true,
// anything else false.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnvOrDefault("MEDIASEARCH_HOST", "0.0.0.0"),
			Port: getEnvAsInt("MEDIASEARCH_PORT", 4100),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(getEnvOrDefault("MEDIASEARCH_CACHE_BACKEND", "memory")),
			Path:    getEnvOrDefault("MEDIASEARCH_CACHE_PATH", "./mediasearch.db"),
		},
		Providers: make(map[ProviderName]ProviderConfig),
	}

	for _, name := range AllProviders {
		cfg.Providers[name] = loadProviderConfig(name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadProviderConfig(name ProviderName) ProviderConfig {
	prefix := "MEDIASEARCH_" + envSafe(string(name)) + "_"
	return ProviderConfig{
		Name:              name,
		Enabled:           getEnvAsBool(prefix+"ENABLED", defaultEnabled(name)),
		Priority:          getEnvAsInt(prefix+"PRIORITY", defaultPriority(name)),
		TimeoutMillis:     getEnvAsInt(prefix+"TIMEOUT_MS", 4000),
		CacheTTLMillis:    getEnvAsInt(prefix+"CACHE_TTL_MS", 0),
		RateLimitQuota:    getEnvAsInt(prefix+"RATE_LIMIT", 0),
		RatePeriodSeconds: getEnvAsInt(prefix+"RATE_PERIOD_SECONDS", 0),
		APIKey:            getEnvOrDefault(prefix+"API_KEY", ""),
		APISecret:         getEnvOrDefault(prefix+"API_SECRET", ""),
		Bearer:            getEnvOrDefault(prefix+"BEARER", ""),
		BaseURL:           getEnvOrDefault(prefix+"BASE_URL", ""),
	}
}

func defaultEnabled(name ProviderName) bool {
	switch name {
	case ProviderIndexHMAC, ProviderGraphQLDirectory:
		// require credentials before they're worth enabling by default
		return false
	default:
		return true
	}
}

func defaultPriority(name ProviderName) int {
	switch name {
	case ProviderCommunityRadio:
		return 0
	case ProviderAppleITunes:
		return 1
	case ProviderKeywordDirectory:
		return 2
	case ProviderIndexHMAC:
		return 3
	case ProviderGraphQLDirectory:
		return 4
	case ProviderShoutcastStyle:
		return 5
	default:
		return 100
	}
}

func envSafe(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Cache.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("invalid cache backend %q: must be memory or sqlite", c.Cache.Backend)
	}
	if c.Cache.Backend == "sqlite" && c.Cache.Path == "" {
		return fmt.Errorf("cache path is required for the sqlite backend")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1":
			return true
		default:
			return false
		}
	}
	return defaultValue
}
