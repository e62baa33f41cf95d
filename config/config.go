// Package config loads poster configuration from a YAML file and optionally
// watches it for changes, so API keys can be rotated without a restart.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// Config mirrors the Poster's construction-time options. Interval is a Go
// duration string ("30m", "1h30m"); empty means the library default.
type Config struct {
	ClientID   string            `yaml:"client_id"`
	Sharding   *bool             `yaml:"sharding"`
	ShardID    *int              `yaml:"shard_id"`
	ShardCount *int              `yaml:"shard_count"`
	Interval   string            `yaml:"interval"`
	Proxy      ProxyConfig       `yaml:"proxy"`
	APIKeys    map[string]string `yaml:"api_keys"`

	interval time.Duration
}

// ProxyConfig routes stat posts through an HTTP proxy.
type ProxyConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ShardingEnabled reports the sharding toggle, defaulting to on.
func (c *Config) ShardingEnabled() bool {
	return c.Sharding == nil || *c.Sharding
}

// PostInterval reports the parsed posting interval; zero means "use the
// library default". Only meaningful after Validate.
func (c *Config) PostInterval() time.Duration { return c.interval }

// Load reads and validates a config file. Unknown keys are rejected, so a
// typo in a credential key fails loudly instead of silently not posting.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates raw YAML config bytes.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.ShardID != nil && *c.ShardID < 0 {
		return fmt.Errorf("config: shard_id must not be negative")
	}
	if c.ShardCount != nil && *c.ShardCount <= 0 {
		return fmt.Errorf("config: shard_count must be positive")
	}
	if (c.ShardID == nil) != (c.ShardCount == nil) {
		return fmt.Errorf("config: shard_id and shard_count must be set together")
	}
	if raw := strings.TrimSpace(c.Interval); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("config: invalid interval %q: %w", c.Interval, err)
		}
		if d < 0 {
			return fmt.Errorf("config: interval must not be negative")
		}
		c.interval = d
	}
	for service, key := range c.APIKeys {
		if strings.TrimSpace(service) == "" {
			return fmt.Errorf("config: api_keys contains an empty service key")
		}
		if key == "" {
			return fmt.Errorf("config: api_keys[%s] is empty", service)
		}
	}
	return nil
}
