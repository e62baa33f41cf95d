package dbots

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// CustomPostFunc handles posts addressed to the special "custom" service.
// It receives the same stats snapshot a registry service would and bypasses
// the registry and the API-key store entirely.
type CustomPostFunc func(ctx context.Context, stats Stats) error

// Result is the outcome of one per-service post inside a ManualPost call.
// Exactly one of Response and Err is set, except for custom posts, which
// never carry a response.
type Result struct {
	Service  string
	Response *HTTPResponse
	Err      error
}

// Results maps service keys to per-service outcomes.
type Results map[string]Result

// identitySource yields the identity context for a post. The plain Poster
// serves fixed construction-time values; ClientPoster defers to its adapter.
type identitySource interface {
	Identity() Identity
}

type staticIdentity struct {
	clientID   string
	sharding   bool
	shardID    *int
	shardCount *int
}

func (s staticIdentity) Identity() Identity {
	id := Identity{ClientID: s.clientID}
	if s.sharding {
		id.ShardID = s.shardID
		id.ShardCount = s.shardCount
	}
	return id
}

// Poster owns the API-key store, the shard/identity context, the posting
// loop, and the fan-out algorithm. Construct with New; all methods are safe
// for concurrent use.
type Poster struct {
	mu       sync.Mutex
	keys     map[string]string
	keyOrder []string

	identity identitySource
	provider StatsProvider
	registry *Registry
	http     *HTTPClient
	events   *Emitter
	custom   CustomPostFunc
	log      zerolog.Logger

	loopMu sync.Mutex
	loop   *autoLoop
}

type posterConfig struct {
	sharding   bool
	shardID    *int
	shardCount *int
	apiKeys    map[string]string
	registry   *Registry
	http       *HTTPClient
	httpOpts   []HTTPOption
	custom     CustomPostFunc
	log        zerolog.Logger
}

// Option configures a Poster at construction time.
type Option func(*posterConfig)

// WithSharding toggles shard fields. When disabled, the identity context
// reports no shard id or count regardless of configured values.
func WithSharding(enabled bool) Option {
	return func(c *posterConfig) { c.sharding = enabled }
}

// WithShardID sets the shard index this poster reports for.
func WithShardID(id int) Option {
	return func(c *posterConfig) { c.shardID = &id }
}

// WithShardCount sets the total shard count this poster reports.
func WithShardCount(count int) Option {
	return func(c *posterConfig) { c.shardCount = &count }
}

// WithAPIKeys seeds the key store. Keys are normalized case-insensitively
// and iterated in sorted order during a fan-out.
func WithAPIKeys(keys map[string]string) Option {
	return func(c *posterConfig) { c.apiKeys = keys }
}

// WithRegistry replaces the default service registry.
func WithRegistry(r *Registry) Option {
	return func(c *posterConfig) { c.registry = r }
}

// WithHTTPClient replaces the posting transport.
func WithHTTPClient(client *HTTPClient) Option {
	return func(c *posterConfig) { c.http = client }
}

// WithProxy routes stat posts through proxyURL, optionally with proxy basic
// authorization.
func WithProxy(proxyURL, username, password string) Option {
	return func(c *posterConfig) {
		c.httpOpts = append(c.httpOpts, WithTransportProxy(proxyURL, username, password))
	}
}

// WithCustomPost installs the handler behind the "custom" service key. The
// key is appended to every fan-out.
func WithCustomPost(fn CustomPostFunc) Option {
	return func(c *posterConfig) { c.custom = fn }
}

// WithLogger sets the poster's logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *posterConfig) { c.log = log }
}

// New builds a Poster for clientID drawing live counts from provider.
func New(clientID string, provider StatsProvider, opts ...Option) (*Poster, error) {
	cfg := posterConfig{sharding: true, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.http == nil {
		httpOpts := append([]HTTPOption{WithHTTPLogger(cfg.log)}, cfg.httpOpts...)
		client, err := NewHTTPClient(httpOpts...)
		if err != nil {
			return nil, err
		}
		cfg.http = client
	}
	if cfg.registry == nil {
		cfg.registry = DefaultRegistry()
	}

	p := &Poster{
		keys: make(map[string]string),
		identity: staticIdentity{
			clientID:   clientID,
			sharding:   cfg.sharding,
			shardID:    cfg.shardID,
			shardCount: cfg.shardCount,
		},
		provider: provider,
		registry: cfg.registry,
		http:     cfg.http,
		events:   NewEmitter(cfg.log),
		custom:   cfg.custom,
		log:      cfg.log,
	}
	p.SetKeys(cfg.apiKeys)
	return p, nil
}

// Events exposes the poster's dispatcher, e.g. to bind reserved hooks.
func (p *Poster) Events() *Emitter { return p.events }

// On registers an event handler; see Emitter.On.
func (p *Poster) On(event string, h Handler) (Handler, error) {
	return p.events.On(event, h)
}

// Registry returns the service registry this poster resolves against.
func (p *Poster) Registry() *Registry { return p.registry }

// ClientID reports the identity the poster posts for.
func (p *Poster) ClientID() string { return p.identity.Identity().ClientID }

// ShardID reports the configured shard index, if any.
func (p *Poster) ShardID() (int, bool) {
	id := p.identity.Identity()
	if id.ShardID == nil {
		return 0, false
	}
	return *id.ShardID, true
}

// ShardCount reports the configured shard total, if any.
func (p *Poster) ShardCount() (int, bool) {
	id := p.identity.Identity()
	if id.ShardCount == nil {
		return 0, false
	}
	return *id.ShardCount, true
}

// SetKey stores an API key for a service. A repeated set overwrites the
// credential but keeps the service's position in the fan-out order.
func (p *Poster) SetKey(service, key string) {
	service = normalizeKey(service)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.keys[service]; !exists {
		p.keyOrder = append(p.keyOrder, service)
	}
	p.keys[service] = key
}

// GetKey returns the API key stored for a service. An empty store fails
// with ErrNoAPIKeys; a non-empty store without this service (or with an
// empty credential for it) fails with MissingKeyError.
func (p *Poster) GetKey(service string) (string, error) {
	service = normalizeKey(service)
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return "", ErrNoAPIKeys
	}
	key, ok := p.keys[service]
	if !ok || key == "" {
		return "", &MissingKeyError{Service: service}
	}
	return key, nil
}

// RemoveKey deletes and returns a service's API key, with GetKey's error
// semantics.
func (p *Poster) RemoveKey(service string) (string, error) {
	service = normalizeKey(service)
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return "", ErrNoAPIKeys
	}
	key, ok := p.keys[service]
	if !ok {
		return "", &MissingKeyError{Service: service}
	}
	delete(p.keys, service)
	for i, s := range p.keyOrder {
		if s == service {
			p.keyOrder = append(p.keyOrder[:i], p.keyOrder[i+1:]...)
			break
		}
	}
	return key, nil
}

// SetKeys replaces the whole key store, e.g. from a reloaded config file.
// Fan-out order becomes the sorted key order.
func (p *Poster) SetKeys(keys map[string]string) {
	normalized := make(map[string]string, len(keys))
	order := make([]string, 0, len(keys))
	for service, key := range keys {
		service = normalizeKey(service)
		if _, dup := normalized[service]; !dup {
			order = append(order, service)
		}
		normalized[service] = key
	}
	sort.Strings(order)
	p.mu.Lock()
	p.keys = normalized
	p.keyOrder = order
	p.mu.Unlock()
}

// Keys lists the configured service keys in fan-out order.
func (p *Poster) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.keyOrder))
	copy(out, p.keyOrder)
	return out
}

// Post gathers live counts from the stats provider and delegates to
// ManualPost. An empty service posts to every configured service.
func (p *Poster) Post(ctx context.Context, service string) (Results, error) {
	stats, err := gather(ctx, p.provider)
	if err != nil {
		return nil, err
	}
	return p.ManualPost(ctx, stats, service)
}

// ManualPost posts a caller-supplied stats snapshot.
//
// The "custom" service invokes the custom-post handler directly, bypassing
// the registry and the key store. An empty service fans out to every
// configured key (in fan-out order, "custom" last when a handler exists),
// isolating per-service failures: the Results map carries every outcome and
// the returned error is non-nil only when no service succeeded. A named
// service returns its single outcome and error directly.
func (p *Poster) ManualPost(ctx context.Context, stats Stats, service string) (Results, error) {
	service = normalizeKey(service)

	if service == "custom" && p.custom != nil {
		err := p.custom(ctx, stats)
		return Results{"custom": {Service: "custom", Err: err}}, err
	}

	p.mu.Lock()
	empty := len(p.keys) == 0
	p.mu.Unlock()
	if empty {
		return nil, ErrNoAPIKeys
	}

	if service == "" {
		return p.fanOut(ctx, stats)
	}

	resp, err := p.postOne(ctx, stats, service)
	return Results{service: {Service: service, Response: resp, Err: err}}, err
}

// fanOut posts to every configured service sequentially. One slow or
// failing service delays, but never aborts, the rest.
func (p *Poster) fanOut(ctx context.Context, stats Stats) (Results, error) {
	targets := p.Keys()
	if p.custom != nil {
		targets = append(targets, "custom")
	}

	results := make(Results, len(targets))
	var failures []error
	for _, target := range targets {
		var res Result
		if target == "custom" {
			res = Result{Service: "custom", Err: p.custom(ctx, stats)}
		} else {
			resp, err := p.postOne(ctx, stats, target)
			res = Result{Service: target, Response: resp, Err: err}
		}
		results[target] = res
		if res.Err != nil {
			failures = append(failures, res.Err)
		}
	}

	if len(failures) == len(targets) {
		return results, errors.Join(failures...)
	}
	return results, nil
}

// postOne resolves and posts to a single registry service, announcing the
// outcome on the "post" / "post_fail" events. Resolution and credential
// errors surface to the caller without an event, matching the distinction
// between a misaddressed post and a failed one.
func (p *Poster) postOne(ctx context.Context, stats Stats, service string) (*HTTPResponse, error) {
	svc, err := p.registry.Resolve(service)
	if err != nil {
		return nil, err
	}
	key, err := p.GetKey(service)
	if err != nil {
		// The store may hold the credential under the canonical key while
		// the caller addressed an alias.
		if canonical := normalizeKey(svc.Key()); canonical != service {
			if k, cerr := p.GetKey(canonical); cerr == nil {
				key, err = k, nil
			}
		}
		if err != nil {
			return nil, err
		}
	}

	resp, err := svc.Post(ctx, p.http, p.identity.Identity(), key, stats)
	if err != nil {
		p.log.Debug().Str("service", svc.Key()).Err(err).Msg("stats post failed")
		p.events.Dispatch(ctx, EventPostFail, err)
		return nil, err
	}
	p.log.Debug().Str("service", svc.Key()).Str("url", resp.URL).Msg("stats posted")
	p.events.Dispatch(ctx, EventPost, resp)
	return resp, nil
}
