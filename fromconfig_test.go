package dbots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbots-pkg/dbots.go/config"
)

func TestNewFromConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(`
client_id: "555"
shard_id: 1
shard_count: 2
api_keys:
  topgg: T1
  dbots: T2
`))
	require.NoError(t, err)

	p, err := NewFromConfig(cfg, staticProvider(1))
	require.NoError(t, err)

	assert.Equal(t, "555", p.ClientID())
	assert.Equal(t, []string{"dbots", "topgg"}, p.Keys())

	id, ok := p.ShardID()
	require.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestNewFromConfigShardingDisabled(t *testing.T) {
	cfg, err := config.Parse([]byte(`
client_id: "555"
sharding: false
shard_id: 1
shard_count: 2
api_keys:
  topgg: T1
`))
	require.NoError(t, err)

	p, err := NewFromConfig(cfg, staticProvider(1))
	require.NoError(t, err)

	_, ok := p.ShardID()
	assert.False(t, ok)
	_, ok = p.ShardCount()
	assert.False(t, ok)
}

func TestNewFromConfigOptionsOverride(t *testing.T) {
	cfg, err := config.Parse([]byte("client_id: \"555\"\napi_keys:\n  topgg: T1\n"))
	require.NoError(t, err)

	p, err := NewFromConfig(cfg, staticProvider(1), WithAPIKeys(map[string]string{"dbots": "T9"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"dbots"}, p.Keys(), "explicit options win over the config file")
}
