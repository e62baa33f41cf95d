package dbots

import (
	"context"
	"net/url"
)

const botsForDiscordBaseURL = "https://botsfordiscord.com/api"

// BotsForDiscord is the botsfordiscord.com listing service.
//
// API documentation: https://docs.botsfordiscord.com
type BotsForDiscord struct {
	readClient
}

// NewBotsForDiscord builds a botsfordiscord.com client.
func NewBotsForDiscord(token string, opts ...ServiceOption) *BotsForDiscord {
	return &BotsForDiscord{readClient: newReadClient(botsForDiscordBaseURL, token, opts)}
}

func (s *BotsForDiscord) Key() string { return "botsfordiscord" }

func (s *BotsForDiscord) Aliases() []string {
	return []string{"botsfordiscord", "botsfordiscord.com", "bfd"}
}

func (s *BotsForDiscord) BaseURL() string { return s.base }

type botsForDiscordStats struct {
	ServerCount int `json:"server_count"`
}

// Post submits the server count. This service takes no shard fields.
func (s *BotsForDiscord) Post(ctx context.Context, client *HTTPClient, id Identity, token string, stats Stats) (*HTTPResponse, error) {
	return client.Request(ctx, RequestOptions{
		Method:  "POST",
		Path:    s.base + "/bot/" + id.ClientID,
		Headers: map[string]string{"Authorization": token},
		JSON:    botsForDiscordStats{ServerCount: stats.ServerCount},
	})
}

// GetBot fetches one bot's listing.
func (s *BotsForDiscord) GetBot(ctx context.Context, botID string) (*HTTPResponse, error) {
	return s.get(ctx, "/bot/"+botID, nil, false)
}

// GetBotVotes lists the users who voted for a bot.
func (s *BotsForDiscord) GetBotVotes(ctx context.Context, botID string) (*HTTPResponse, error) {
	return s.get(ctx, "/bot/"+botID+"/votes", nil, true)
}

// GetUser fetches a user's profile on this service.
func (s *BotsForDiscord) GetUser(ctx context.Context, userID string) (*HTTPResponse, error) {
	return s.get(ctx, "/user/"+userID, nil, false)
}

// GetUserBots lists the bots a user owns on this service.
func (s *BotsForDiscord) GetUserBots(ctx context.Context, userID string) (*HTTPResponse, error) {
	return s.get(ctx, "/user/"+userID+"/bots", nil, false)
}

// WidgetURL builds the widget image URL for a bot.
func (s *BotsForDiscord) WidgetURL(botID string, query url.Values) string {
	u := s.base + "/bot/" + botID + "/widget"
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
