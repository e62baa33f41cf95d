package dbots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticProvider(servers int) StatsProvider {
	return CallbackProvider{
		ServerCountFunc: func(ctx context.Context) (int, error) { return servers, nil },
	}
}

// testPoster builds a poster whose registry points topgg and dbots at the
// given recording server.
func testPoster(t *testing.T, rs *recordingServer, opts ...Option) *Poster {
	t.Helper()
	registry := NewRegistry(
		NewTopGG("", WithServiceBaseURL(rs.url())),
		NewDiscordBotsGG("", WithServiceBaseURL(rs.url())),
	)
	opts = append([]Option{WithRegistry(registry)}, opts...)
	p, err := New("123456", staticProvider(42), opts...)
	require.NoError(t, err)
	return p
}

func TestManualPostEmptyKeyStoreDoesNoIO(t *testing.T) {
	rs := newRecordingServer(t)
	p := testPoster(t, rs)

	_, err := p.ManualPost(context.Background(), Stats{ServerCount: 42}, "")
	require.ErrorIs(t, err, ErrNoAPIKeys)

	_, err = p.ManualPost(context.Background(), Stats{ServerCount: 42}, "topgg")
	require.ErrorIs(t, err, ErrNoAPIKeys)

	assert.Empty(t, rs.requests())
}

func TestManualPostFanOutPostsToEveryConfiguredService(t *testing.T) {
	rs := newRecordingServer(t)
	p := testPoster(t, rs, WithAPIKeys(map[string]string{"topgg": "T1", "dbots": "T2"}))

	results, err := p.ManualPost(context.Background(), Stats{ServerCount: 42}, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NoError(t, results["topgg"].Err)
	require.NoError(t, results["dbots"].Err)

	reqs := rs.requests()
	require.Len(t, reqs, 2, "exactly one request per configured key")

	// Fan-out order is the key-store order: "dbots" sorts before "topgg".
	assert.Equal(t, "/bots/123456/stats", reqs[0].Path)
	assert.Equal(t, "T2", reqs[0].Auth)
	assert.Equal(t, float64(42), reqs[0].Body["guildCount"])

	assert.Equal(t, "/bots/123456/stats", reqs[1].Path)
	assert.Equal(t, "T1", reqs[1].Auth)
	assert.Equal(t, float64(42), reqs[1].Body["server_count"])
}

func TestManualPostSingleService(t *testing.T) {
	rs := newRecordingServer(t)
	p := testPoster(t, rs, WithAPIKeys(map[string]string{"topgg": "T1", "dbots": "T2"}))

	results, err := p.ManualPost(context.Background(), Stats{ServerCount: 7}, "Top.gg")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results["top.gg"].Response)

	reqs := rs.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "T1", reqs[0].Auth)
}

func TestManualPostUnknownService(t *testing.T) {
	rs := newRecordingServer(t)
	p := testPoster(t, rs, WithAPIKeys(map[string]string{"topgg": "T1"}))

	_, err := p.ManualPost(context.Background(), Stats{ServerCount: 1}, "nosuchlist")
	var unknown *UnknownServiceError
	require.ErrorAs(t, err, &unknown)
	assert.Empty(t, rs.requests())
}

func TestManualPostServiceWithoutKey(t *testing.T) {
	rs := newRecordingServer(t)
	p := testPoster(t, rs, WithAPIKeys(map[string]string{"topgg": "T1"}))

	_, err := p.ManualPost(context.Background(), Stats{ServerCount: 1}, "dbots")
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "dbots", missing.Service)
	assert.Empty(t, rs.requests())
}

func TestManualPostCustomBypassesRegistry(t *testing.T) {
	rs := newRecordingServer(t)

	var got Stats
	called := 0
	// A registry service claiming the "custom" alias must lose to the handler.
	registry := NewRegistry(&stubService{key: "custom", aliases: []string{"custom"}})
	p, err := New("123", staticProvider(0),
		WithRegistry(registry),
		WithCustomPost(func(ctx context.Context, stats Stats) error {
			called++
			got = stats
			return nil
		}))
	require.NoError(t, err)

	// No API keys at all: the custom path skips that check too.
	results, err := p.ManualPost(context.Background(), Stats{ServerCount: 9, UserCount: Count(80)}, "custom")
	require.NoError(t, err)
	assert.Equal(t, 1, called)
	assert.Equal(t, 9, got.ServerCount)
	require.NotNil(t, got.UserCount)
	assert.Equal(t, 80, *got.UserCount)
	require.Contains(t, results, "custom")
	assert.Empty(t, rs.requests())
}

func TestManualPostFanOutIncludesCustomLast(t *testing.T) {
	rs := newRecordingServer(t)

	order := make([]string, 0, 2)
	p := testPoster(t, rs,
		WithAPIKeys(map[string]string{"topgg": "T1"}),
		WithCustomPost(func(ctx context.Context, stats Stats) error {
			order = append(order, "custom")
			return nil
		}))
	_, err := p.On(EventPost, func(ctx context.Context, payload any) error { return nil })
	require.NoError(t, err)

	results, err := p.ManualPost(context.Background(), Stats{ServerCount: 3}, "")
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Contains(t, results, "custom")

	require.Len(t, rs.requests(), 1)
	require.Len(t, order, 1, "custom handler runs exactly once per fan-out")
}

func TestManualPostFanOutIsolatesFailures(t *testing.T) {
	rs := newRecordingServer(t)

	failing := &stubFailingService{key: "broken"}
	registry := NewRegistry(
		failing,
		NewTopGG("", WithServiceBaseURL(rs.url())),
	)
	p, err := New("123", staticProvider(5),
		WithRegistry(registry),
		WithAPIKeys(map[string]string{"broken": "B", "topgg": "T"}))
	require.NoError(t, err)

	results, err := p.ManualPost(context.Background(), Stats{ServerCount: 5}, "")
	require.NoError(t, err, "a partial failure must not surface as a call error")
	require.Len(t, results, 2)
	assert.Error(t, results["broken"].Err)
	assert.NoError(t, results["topgg"].Err)

	// The failing service ran first (sorted order) and did not abort the rest.
	require.Len(t, rs.requests(), 1)
}

func TestManualPostFanOutAllFailuresReturnsJoinedError(t *testing.T) {
	broken1 := &stubFailingService{key: "broken1"}
	broken2 := &stubFailingService{key: "broken2"}
	p, err := New("123", staticProvider(5),
		WithRegistry(NewRegistry(broken1, broken2)),
		WithAPIKeys(map[string]string{"broken1": "a", "broken2": "b"}))
	require.NoError(t, err)

	results, err := p.ManualPost(context.Background(), Stats{ServerCount: 5}, "")
	require.Error(t, err)
	assert.Len(t, results, 2)
	assert.ErrorIs(t, err, errBroken)
}

func TestManualPostDispatchesPostEvents(t *testing.T) {
	rs := newRecordingServer(t)
	p := testPoster(t, rs, WithAPIKeys(map[string]string{"topgg": "T1"}))

	posted := make(chan any, 1)
	_, err := p.On(EventPost, func(ctx context.Context, payload any) error {
		posted <- payload
		return nil
	})
	require.NoError(t, err)

	_, err = p.ManualPost(context.Background(), Stats{ServerCount: 2}, "topgg")
	require.NoError(t, err)

	select {
	case payload := <-posted:
		resp, ok := payload.(*HTTPResponse)
		require.True(t, ok, "post payload must be the response")
		assert.Equal(t, 200, resp.Status)
	case <-time.After(eventWait):
		t.Fatal("post event never dispatched")
	}
}

func TestManualPostDispatchesPostFailAndReturnsError(t *testing.T) {
	p, err := New("123", staticProvider(1),
		WithRegistry(NewRegistry(&stubFailingService{key: "broken"})),
		WithAPIKeys(map[string]string{"broken": "B"}))
	require.NoError(t, err)

	failed := make(chan any, 1)
	_, err = p.On(EventPostFail, func(ctx context.Context, payload any) error {
		failed <- payload
		return nil
	})
	require.NoError(t, err)

	_, err = p.ManualPost(context.Background(), Stats{ServerCount: 1}, "broken")
	require.ErrorIs(t, err, errBroken)

	select {
	case payload := <-failed:
		gotErr, ok := payload.(error)
		require.True(t, ok)
		assert.ErrorIs(t, gotErr, errBroken)
	case <-time.After(eventWait):
		t.Fatal("post_fail event never dispatched")
	}
}

func TestPostGathersStatsFromProvider(t *testing.T) {
	rs := newRecordingServer(t)
	p := testPoster(t, rs, WithAPIKeys(map[string]string{"topgg": "T1"}))

	_, err := p.Post(context.Background(), "topgg")
	require.NoError(t, err)

	reqs := rs.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, float64(42), reqs[0].Body["server_count"])
}

func TestPostSurfacesProviderError(t *testing.T) {
	rs := newRecordingServer(t)
	boom := errors.New("gateway not ready")
	p := testPoster(t, rs, WithAPIKeys(map[string]string{"topgg": "T1"}))
	p.provider = CallbackProvider{
		ServerCountFunc: func(ctx context.Context) (int, error) { return 0, boom },
	}

	_, err := p.Post(context.Background(), "")
	require.ErrorIs(t, err, boom)
	assert.Empty(t, rs.requests())
}

func TestShardFieldsFollowShardingToggle(t *testing.T) {
	rs := newRecordingServer(t)
	p := testPoster(t, rs,
		WithAPIKeys(map[string]string{"topgg": "T1"}),
		WithShardID(3), WithShardCount(8))

	_, err := p.ManualPost(context.Background(), Stats{ServerCount: 1}, "topgg")
	require.NoError(t, err)

	rs2 := newRecordingServer(t)
	disabled := testPoster(t, rs2,
		WithAPIKeys(map[string]string{"topgg": "T1"}),
		WithShardID(3), WithShardCount(8),
		WithSharding(false))

	_, err = disabled.ManualPost(context.Background(), Stats{ServerCount: 1}, "topgg")
	require.NoError(t, err)

	withShards := rs.requests()
	require.Len(t, withShards, 1)
	assert.Equal(t, float64(3), withShards[0].Body["shard_id"])
	assert.Equal(t, float64(8), withShards[0].Body["shard_count"])

	noShards := rs2.requests()
	require.Len(t, noShards, 1)
	assert.NotContains(t, noShards[0].Body, "shard_id")
	assert.NotContains(t, noShards[0].Body, "shard_count")

	id, ok := disabled.ShardID()
	assert.False(t, ok)
	assert.Zero(t, id)
}

func TestKeyStoreOperations(t *testing.T) {
	p, err := New("123", staticProvider(0))
	require.NoError(t, err)

	// Empty store: distinguishable from a missing key.
	_, err = p.GetKey("unconfigured")
	require.ErrorIs(t, err, ErrNoAPIKeys)

	p.SetKey("TopGG", "T1")
	p.SetKey("dbots", "T2")

	key, err := p.GetKey("topgg")
	require.NoError(t, err)
	assert.Equal(t, "T1", key)

	// Non-empty store, unrelated service: MissingKeyError, not ErrNoAPIKeys.
	_, err = p.GetKey("unconfigured")
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.NotErrorIs(t, err, ErrNoAPIKeys)

	assert.Equal(t, []string{"topgg", "dbots"}, p.Keys(), "insertion order is fan-out order")

	removed, err := p.RemoveKey("topgg")
	require.NoError(t, err)
	assert.Equal(t, "T1", removed)
	assert.Equal(t, []string{"dbots"}, p.Keys())

	_, err = p.RemoveKey("topgg")
	require.ErrorAs(t, err, &missing)

	p.SetKeys(map[string]string{"zlist": "Z", "alist": "A"})
	assert.Equal(t, []string{"alist", "zlist"}, p.Keys(), "replaced stores iterate sorted")
}

func TestPosterIdentityAccessors(t *testing.T) {
	p, err := New("9000", staticProvider(0), WithShardID(2), WithShardCount(4))
	require.NoError(t, err)

	assert.Equal(t, "9000", p.ClientID())
	id, ok := p.ShardID()
	require.True(t, ok)
	assert.Equal(t, 2, id)
	count, ok := p.ShardCount()
	require.True(t, ok)
	assert.Equal(t, 4, count)
}

// errBroken is what stubFailingService always returns.
var errBroken = errors.New("service rejected the post")

type stubFailingService struct {
	key string
}

func (s *stubFailingService) Key() string       { return s.key }
func (s *stubFailingService) Aliases() []string { return []string{s.key} }
func (s *stubFailingService) BaseURL() string   { return "https://example.invalid" }

func (s *stubFailingService) Post(ctx context.Context, client *HTTPClient, id Identity, token string, stats Stats) (*HTTPResponse, error) {
	return nil, errBroken
}
