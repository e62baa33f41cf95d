package dbots

import (
	"strings"
	"sync"
)

// Registry maps service keys and aliases to Service descriptors. It is an
// explicit instance (there is no package-level mutable catalog); build one
// with NewRegistry or DefaultRegistry and hand it to a Poster.
type Registry struct {
	mu       sync.RWMutex
	services []Service
	byAlias  map[string]Service
}

// NewRegistry builds a registry over the given services. When two services
// claim the same alias, the first registered wins.
func NewRegistry(services ...Service) *Registry {
	r := &Registry{byAlias: make(map[string]Service)}
	for _, svc := range services {
		r.Register(svc)
	}
	return r
}

// DefaultRegistry returns a fresh registry holding the built-in service
// catalog. Each call returns an independent instance, so registering extra
// services never leaks across posters.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewBotListSpace(""),
		NewBotsForDiscord(""),
		NewDiscordBotsGG(""),
		NewTopGG(""),
	)
}

// Register adds svc under all of its aliases. Aliases already claimed by an
// earlier registration are left untouched.
func (r *Registry) Register(svc Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services = append(r.services, svc)
	for _, alias := range svc.Aliases() {
		alias = normalizeKey(alias)
		if _, taken := r.byAlias[alias]; !taken {
			r.byAlias[alias] = svc
		}
	}
}

// Resolve looks key up against every registered alias, case-insensitively
// and ignoring surrounding whitespace.
func (r *Registry) Resolve(key string) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if svc, ok := r.byAlias[normalizeKey(key)]; ok {
		return svc, nil
	}
	return nil, &UnknownServiceError{Key: key}
}

// Services returns the registered services in registration order.
func (r *Registry) Services() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Service, len(r.services))
	copy(out, r.services)
	return out
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
