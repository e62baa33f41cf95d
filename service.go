package dbots

import (
	"context"
	"net/url"
	"strings"
)

// Service describes one bot listing website: how to address it and how to
// shape a stats post for it. Read-only endpoints live on the concrete
// service types, since each site exposes a different catalog.
type Service interface {
	// Key is the canonical service key, also used in the API-key store.
	Key() string
	// Aliases lists every key the registry resolves to this service,
	// including Key itself.
	Aliases() []string
	// BaseURL is the root of the service's public API.
	BaseURL() string
	// Post submits one stats snapshot. Services that only expose read
	// endpoints return PostingUnsupportedError regardless of the stats.
	Post(ctx context.Context, client *HTTPClient, id Identity, token string, stats Stats) (*HTTPResponse, error)
}

// readClient carries the per-instance state shared by every concrete
// service's read API: an optional token and the transport.
type readClient struct {
	base  string
	token string
	http  *HTTPClient
}

// ServiceOption configures a concrete service instance.
type ServiceOption func(*readClient)

// WithServiceHTTP swaps the transport used by a service's read API, e.g. to
// route it through a proxy-configured HTTPClient.
func WithServiceHTTP(client *HTTPClient) ServiceOption {
	return func(r *readClient) {
		if client != nil {
			r.http = client
		}
	}
}

// WithServiceBaseURL overrides the service's API root.
func WithServiceBaseURL(base string) ServiceOption {
	return func(r *readClient) {
		r.base = strings.TrimRight(base, "/")
	}
}

func newReadClient(base, token string, opts []ServiceOption) readClient {
	rc := readClient{base: base, token: token, http: newDefaultHTTPClient()}
	for _, opt := range opts {
		opt(&rc)
	}
	return rc
}

// HasToken reports whether this instance can call token-gated endpoints.
func (r readClient) HasToken() bool { return r.token != "" }

// get performs a read call. Endpoints flagged requiresToken fail with
// ErrTokenRequired on an instance built without a token.
func (r readClient) get(ctx context.Context, path string, query url.Values, requiresToken bool) (*HTTPResponse, error) {
	if requiresToken && r.token == "" {
		return nil, ErrTokenRequired
	}
	headers := map[string]string{}
	if r.token != "" {
		headers["Authorization"] = r.token
	}
	return r.http.Request(ctx, RequestOptions{
		Method:  "GET",
		Path:    r.base + path,
		Headers: headers,
		Query:   query,
	})
}

// shardFields reports the shard pair when both halves are present.
func shardFields(id Identity) (shardID, shardCount int, ok bool) {
	if id.ShardID == nil || id.ShardCount == nil {
		return 0, 0, false
	}
	return *id.ShardID, *id.ShardCount, true
}
