package dbots

import "context"

// Stats is one metrics snapshot. Optional counts are pointers so that
// service payload builders can omit a field instead of sending a sentinel.
type Stats struct {
	ServerCount      int
	UserCount        *int
	VoiceConnections *int
}

// Identity is the posting bot's identity context. ShardID and ShardCount are
// only meaningful together; payload builders include shard fields only when
// both are present.
type Identity struct {
	ClientID   string
	ShardID    *int
	ShardCount *int
}

// Count is a convenience for filling optional Stats/Identity fields.
func Count(n int) *int { return &n }

// StatsProvider supplies live counts for a post. UserCount and
// VoiceConnections may report (nil, nil) when the metric is unavailable.
type StatsProvider interface {
	ServerCount(ctx context.Context) (int, error)
	UserCount(ctx context.Context) (*int, error)
	VoiceConnections(ctx context.Context) (*int, error)
}

// CallbackProvider adapts caller-supplied functions into a StatsProvider.
// ServerCountFunc is required; the other two may be nil, in which case the
// corresponding metric is reported as absent.
type CallbackProvider struct {
	ServerCountFunc      func(ctx context.Context) (int, error)
	UserCountFunc        func(ctx context.Context) (int, error)
	VoiceConnectionsFunc func(ctx context.Context) (int, error)
}

func (p CallbackProvider) ServerCount(ctx context.Context) (int, error) {
	if p.ServerCountFunc == nil {
		return 0, nil
	}
	return p.ServerCountFunc(ctx)
}

func (p CallbackProvider) UserCount(ctx context.Context) (*int, error) {
	return optionalCount(ctx, p.UserCountFunc)
}

func (p CallbackProvider) VoiceConnections(ctx context.Context) (*int, error) {
	return optionalCount(ctx, p.VoiceConnectionsFunc)
}

func optionalCount(ctx context.Context, fn func(ctx context.Context) (int, error)) (*int, error) {
	if fn == nil {
		return nil, nil
	}
	n, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// gather pulls one snapshot out of a provider.
func gather(ctx context.Context, p StatsProvider) (Stats, error) {
	servers, err := p.ServerCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	users, err := p.UserCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	voice, err := p.VoiceConnections(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{ServerCount: servers, UserCount: users, VoiceConnections: voice}, nil
}
