// Package filler adapts third-party Discord client libraries to the small
// interface a ClientPoster reads counts and identity from.
package filler

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrMissingClient is returned when no client object was supplied.
var ErrMissingClient = errors.New("filler: no client was given")

// UnsupportedClientError is returned for client library names no adapter
// claims.
type UnsupportedClientError struct {
	Library string
}

func (e *UnsupportedClientError) Error() string {
	return fmt.Sprintf("filler: unsupported client library %q", e.Library)
}

// Adapter extracts metrics and identity from a bot framework's client.
// Shard accessors report ok=false when the client carries no shard context.
type Adapter interface {
	ClientID() string
	ShardID() (int, bool)
	ShardCount() (int, bool)
	ServerCount() int
	UserCount() int
	VoiceConnections() int
}

// Kind tags a supported client library.
type Kind string

// KindDiscordGo is the bwmarrin/discordgo library.
const KindDiscordGo Kind = "discordgo"

// Constructor builds an adapter around a live client object, failing when
// the object is not the library's client type.
type Constructor func(client any) (Adapter, error)

type entry struct {
	kind    Kind
	aliases []string
	build   Constructor
}

var (
	mu    sync.RWMutex
	table = []entry{
		{
			kind:    KindDiscordGo,
			aliases: []string{"discordgo", "discord.go", "dgo", "bwmarrin/discordgo"},
			build:   newDiscordGo,
		},
	}
)

// Register adds an adapter kind under the given aliases. Intended for
// embedding applications bridging an unsupported library; built-in aliases
// cannot be overridden.
func Register(kind Kind, aliases []string, build Constructor) {
	mu.Lock()
	defer mu.Unlock()
	table = append(table, entry{kind: kind, aliases: aliases, build: build})
}

// New resolves a textual library name to its adapter and wraps client with
// it. The name match is case-insensitive and trimmed.
func New(library string, client any) (Adapter, error) {
	if client == nil {
		return nil, ErrMissingClient
	}
	name := strings.ToLower(strings.TrimSpace(library))

	mu.RLock()
	defer mu.RUnlock()
	for _, e := range table {
		for _, alias := range e.aliases {
			if alias == name {
				return e.build(client)
			}
		}
	}
	return nil, &UnsupportedClientError{Library: library}
}
