package filler

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordGo reads counts and identity off a *discordgo.Session. Counts come
// from the session state cache, so they are only meaningful on a session
// with state tracking enabled (the discordgo default).
type DiscordGo struct {
	session *discordgo.Session
}

func newDiscordGo(client any) (Adapter, error) {
	s, ok := client.(*discordgo.Session)
	if !ok {
		return nil, fmt.Errorf("filler: discordgo adapter needs a *discordgo.Session, got %T", client)
	}
	return &DiscordGo{session: s}, nil
}

func (d *DiscordGo) ClientID() string {
	if d.session.State == nil || d.session.State.User == nil {
		return ""
	}
	return d.session.State.User.ID
}

// ShardID reports the session's shard index. A session not configured for
// sharding (ShardCount <= 1) carries no shard context.
func (d *DiscordGo) ShardID() (int, bool) {
	if d.session.ShardCount <= 1 {
		return 0, false
	}
	return d.session.ShardID, true
}

func (d *DiscordGo) ShardCount() (int, bool) {
	if d.session.ShardCount <= 1 {
		return 0, false
	}
	return d.session.ShardCount, true
}

func (d *DiscordGo) ServerCount() int {
	if d.session.State == nil {
		return 0
	}
	return len(d.session.State.Guilds)
}

// UserCount sums cached guild member counts. Guilds that have not reported
// a member count contribute zero.
func (d *DiscordGo) UserCount() int {
	if d.session.State == nil {
		return 0
	}
	total := 0
	for _, g := range d.session.State.Guilds {
		total += g.MemberCount
	}
	return total
}

func (d *DiscordGo) VoiceConnections() int {
	return len(d.session.VoiceConnections)
}
