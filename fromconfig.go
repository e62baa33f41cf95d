package dbots

import (
	"github.com/dbots-pkg/dbots.go/config"
)

// NewFromConfig builds a Poster from a loaded config file. Extra options
// are applied after the config-derived ones, so callers can still override
// anything (or attach a logger, registry, or custom-post handler).
//
// Pair with config.Watch and Poster.SetKeys to rotate credentials without a
// restart:
//
//	go config.Watch(ctx, path, log, func(c *config.Config) { p.SetKeys(c.APIKeys) })
func NewFromConfig(cfg *config.Config, provider StatsProvider, opts ...Option) (*Poster, error) {
	base := []Option{
		WithSharding(cfg.ShardingEnabled()),
		WithAPIKeys(cfg.APIKeys),
	}
	if cfg.ShardID != nil {
		base = append(base, WithShardID(*cfg.ShardID))
	}
	if cfg.ShardCount != nil {
		base = append(base, WithShardCount(*cfg.ShardCount))
	}
	if cfg.Proxy.URL != "" {
		base = append(base, WithProxy(cfg.Proxy.URL, cfg.Proxy.Username, cfg.Proxy.Password))
	}
	return New(cfg.ClientID, provider, append(base, opts...)...)
}
