package dbots

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryAliasesResolveToSameService(t *testing.T) {
	r := DefaultRegistry()

	for _, svc := range r.Services() {
		canonical, err := r.Resolve(svc.Key())
		require.NoError(t, err)
		for _, alias := range svc.Aliases() {
			got, err := r.Resolve(alias)
			require.NoError(t, err, "alias %q", alias)
			assert.Same(t, canonical, got, "alias %q must resolve to the %q descriptor", alias, svc.Key())
		}
	}
}

func TestRegistryResolveNormalizesKey(t *testing.T) {
	r := DefaultRegistry()

	svc, err := r.Resolve("  Top.GG \t")
	require.NoError(t, err)
	assert.Equal(t, "topgg", svc.Key())
}

func TestRegistryResolveUnknownService(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.Resolve("definitely-not-a-botlist")
	var unknown *UnknownServiceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "definitely-not-a-botlist", unknown.Key)
}

func TestRegistryFirstRegistrationWinsOnAliasConflict(t *testing.T) {
	first := &stubService{key: "dupe", aliases: []string{"dupe", "shared"}}
	second := &stubService{key: "other", aliases: []string{"other", "shared"}}
	r := NewRegistry(first, second)

	got, err := r.Resolve("shared")
	require.NoError(t, err)
	assert.Same(t, Service(first), got)

	// The loser still resolves through its own aliases.
	got, err = r.Resolve("other")
	require.NoError(t, err)
	assert.Same(t, Service(second), got)
}

func TestRegistryRegisterExtendsCatalog(t *testing.T) {
	r := DefaultRegistry()
	extra := &stubService{key: "mylist", aliases: []string{"mylist", "my.list"}}
	r.Register(extra)

	got, err := r.Resolve("my.list")
	require.NoError(t, err)
	assert.Same(t, Service(extra), got)
	assert.Len(t, r.Services(), 5)

	// A second DefaultRegistry is unaffected.
	_, err = DefaultRegistry().Resolve("mylist")
	assert.Error(t, err)
}

// stubService is a minimal postable descriptor for registry tests.
type stubService struct {
	key     string
	aliases []string
	posts   int
}

func (s *stubService) Key() string       { return s.key }
func (s *stubService) Aliases() []string { return s.aliases }
func (s *stubService) BaseURL() string   { return "https://example.invalid" }

func (s *stubService) Post(ctx context.Context, client *HTTPClient, id Identity, token string, stats Stats) (*HTTPResponse, error) {
	s.posts++
	return &HTTPResponse{Status: 200, Method: "POST", URL: s.BaseURL()}, nil
}
