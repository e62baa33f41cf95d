package dbots

import (
	"context"

	"github.com/dbots-pkg/dbots.go/filler"
)

// adapterIdentity defers identity to a client adapter. Explicitly configured
// shard values win over the adapter's; the sharding gate hides both.
type adapterIdentity struct {
	adapter    filler.Adapter
	sharding   bool
	shardID    *int
	shardCount *int
}

func (a adapterIdentity) Identity() Identity {
	id := Identity{ClientID: a.adapter.ClientID()}
	if !a.sharding {
		return id
	}
	id.ShardID = a.shardID
	if id.ShardID == nil {
		if v, ok := a.adapter.ShardID(); ok {
			id.ShardID = &v
		}
	}
	id.ShardCount = a.shardCount
	if id.ShardCount == nil {
		if v, ok := a.adapter.ShardCount(); ok {
			id.ShardCount = &v
		}
	}
	return id
}

// adapterProvider reads live counts off a client adapter. Adapter counts
// are always available, so every metric reports as present.
type adapterProvider struct {
	adapter filler.Adapter
}

func (p adapterProvider) ServerCount(ctx context.Context) (int, error) {
	return p.adapter.ServerCount(), nil
}

func (p adapterProvider) UserCount(ctx context.Context) (*int, error) {
	n := p.adapter.UserCount()
	return &n, nil
}

func (p adapterProvider) VoiceConnections(ctx context.Context) (*int, error) {
	n := p.adapter.VoiceConnections()
	return &n, nil
}

// ClientPoster is a Poster that draws counts and identity from a supported
// bot library's client object instead of caller-supplied callbacks.
type ClientPoster struct {
	*Poster
	adapter filler.Adapter
	library string
}

// NewClientPoster wraps client, identified by its library name (resolved
// through the filler registry), in a posting pipeline. Construction options
// behave as in New; shard options act as overrides on top of the adapter's
// own shard context.
func NewClientPoster(client any, library string, opts ...Option) (*ClientPoster, error) {
	adapter, err := filler.New(library, client)
	if err != nil {
		return nil, err
	}

	p, err := New("", adapterProvider{adapter: adapter}, opts...)
	if err != nil {
		return nil, err
	}

	// Recover the sharding configuration the options encoded into the
	// static identity, then swap in the adapter-backed one.
	static := p.identity.(staticIdentity)
	p.identity = adapterIdentity{
		adapter:    adapter,
		sharding:   static.sharding,
		shardID:    static.shardID,
		shardCount: static.shardCount,
	}

	return &ClientPoster{Poster: p, adapter: adapter, library: library}, nil
}

// Library reports the client library name this poster was built for.
func (c *ClientPoster) Library() string { return c.library }

// Adapter exposes the underlying client adapter.
func (c *ClientPoster) Adapter() filler.Adapter { return c.adapter }
