package dbots

import (
	"context"
	"net/url"
)

const discordBotsGGBaseURL = "https://discord.bots.gg/api/v1"

// DiscordBotsGG is the discord.bots.gg listing service.
//
// API documentation: https://discord.bots.gg/docs
type DiscordBotsGG struct {
	readClient
}

// NewDiscordBotsGG builds a discord.bots.gg client.
func NewDiscordBotsGG(token string, opts ...ServiceOption) *DiscordBotsGG {
	return &DiscordBotsGG{readClient: newReadClient(discordBotsGGBaseURL, token, opts)}
}

func (s *DiscordBotsGG) Key() string { return "discordbotsgg" }

func (s *DiscordBotsGG) Aliases() []string {
	return []string{"discordbotsgg", "discord.bots.gg", "botsgg", "bots.gg", "dbots"}
}

func (s *DiscordBotsGG) BaseURL() string { return s.base }

type discordBotsGGStats struct {
	GuildCount int  `json:"guildCount"`
	ShardID    *int `json:"shardId,omitempty"`
	ShardCount *int `json:"shardCount,omitempty"`
}

// Post submits the guild count, including the shard pair only when both
// halves are present.
func (s *DiscordBotsGG) Post(ctx context.Context, client *HTTPClient, id Identity, token string, stats Stats) (*HTTPResponse, error) {
	payload := discordBotsGGStats{GuildCount: stats.ServerCount}
	if shardID, shardCount, ok := shardFields(id); ok {
		payload.ShardID = &shardID
		payload.ShardCount = &shardCount
	}
	return client.Request(ctx, RequestOptions{
		Method:  "POST",
		Path:    s.base + "/bots/" + id.ClientID + "/stats",
		Headers: map[string]string{"Authorization": token},
		JSON:    payload,
	})
}

// GetBots lists bots on this service.
func (s *DiscordBotsGG) GetBots(ctx context.Context, query url.Values) (*HTTPResponse, error) {
	return s.get(ctx, "/bots", query, true)
}

// GetBot fetches one bot's listing.
func (s *DiscordBotsGG) GetBot(ctx context.Context, botID string, query url.Values) (*HTTPResponse, error) {
	return s.get(ctx, "/bots/"+botID, query, true)
}
