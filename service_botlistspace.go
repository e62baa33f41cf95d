package dbots

import (
	"context"
	"net/url"
	"strconv"
)

const botListSpaceBaseURL = "https://api.botlist.space/v1"

// BotListSpace is the botlist.space listing service.
//
// API documentation: https://docs.botlist.space
type BotListSpace struct {
	readClient
}

// NewBotListSpace builds a botlist.space client.
func NewBotListSpace(token string, opts ...ServiceOption) *BotListSpace {
	return &BotListSpace{readClient: newReadClient(botListSpaceBaseURL, token, opts)}
}

func (s *BotListSpace) Key() string { return "botlistspace" }

func (s *BotListSpace) Aliases() []string {
	return []string{"botlistspace", "botlist.space", "bls"}
}

func (s *BotListSpace) BaseURL() string { return s.base }

type botListSpaceStats struct {
	ServerCount int `json:"server_count"`
}

// Post submits the server count. This service takes no shard fields.
func (s *BotListSpace) Post(ctx context.Context, client *HTTPClient, id Identity, token string, stats Stats) (*HTTPResponse, error) {
	return client.Request(ctx, RequestOptions{
		Method:  "POST",
		Path:    s.base + "/bots/" + id.ClientID,
		Headers: map[string]string{"Authorization": token},
		JSON:    botListSpaceStats{ServerCount: stats.ServerCount},
	})
}

// GetStatistics fetches sitewide statistics.
func (s *BotListSpace) GetStatistics(ctx context.Context) (*HTTPResponse, error) {
	return s.get(ctx, "/statistics", nil, false)
}

// GetBots lists bots on this service.
func (s *BotListSpace) GetBots(ctx context.Context) (*HTTPResponse, error) {
	return s.get(ctx, "/bots", nil, false)
}

// GetBot fetches one bot's listing.
func (s *BotListSpace) GetBot(ctx context.Context, botID string) (*HTTPResponse, error) {
	return s.get(ctx, "/bots/"+botID, nil, false)
}

// GetBotVotes lists the users who upvoted a bot.
func (s *BotListSpace) GetBotVotes(ctx context.Context, botID string) (*HTTPResponse, error) {
	return s.get(ctx, "/bots/"+botID+"/upvotes", nil, true)
}

// GetBotUptime fetches a bot's measured uptime.
func (s *BotListSpace) GetBotUptime(ctx context.Context, botID string) (*HTTPResponse, error) {
	return s.get(ctx, "/bots/"+botID+"/uptime", nil, false)
}

// GetUser fetches a user's profile on this service.
func (s *BotListSpace) GetUser(ctx context.Context, userID string) (*HTTPResponse, error) {
	return s.get(ctx, "/users/"+userID, nil, false)
}

// GetUserBots lists the bots a user owns on this service.
func (s *BotListSpace) GetUserBots(ctx context.Context, userID string) (*HTTPResponse, error) {
	return s.get(ctx, "/users/"+userID+"/bots", nil, false)
}

// WidgetURL builds the widget image URL for a bot.
func (s *BotListSpace) WidgetURL(botID string, style int, query url.Values) string {
	u := "https://api.botlist.space/widget/" + botID + "/" + strconv.Itoa(style)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
