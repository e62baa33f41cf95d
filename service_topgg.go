package dbots

import (
	"context"
	"net/url"
)

const topGGBaseURL = "https://top.gg/api"

// TopGG is the top.gg listing service.
//
// API documentation: https://top.gg/api/docs
type TopGG struct {
	readClient
}

// NewTopGG builds a top.gg client. The token may be empty when only
// tokenless operations are needed.
func NewTopGG(token string, opts ...ServiceOption) *TopGG {
	return &TopGG{readClient: newReadClient(topGGBaseURL, token, opts)}
}

func (s *TopGG) Key() string { return "topgg" }

func (s *TopGG) Aliases() []string { return []string{"topgg", "top.gg", "top"} }

func (s *TopGG) BaseURL() string { return s.base }

type topGGStats struct {
	ServerCount int  `json:"server_count"`
	ShardID     *int `json:"shard_id,omitempty"`
	ShardCount  *int `json:"shard_count,omitempty"`
}

// Post submits the server count, including the shard pair only when both
// halves are present.
func (s *TopGG) Post(ctx context.Context, client *HTTPClient, id Identity, token string, stats Stats) (*HTTPResponse, error) {
	payload := topGGStats{ServerCount: stats.ServerCount}
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
func (s *TopGG) GetBots(ctx context.Context, query url.Values) (*HTTPResponse, error) {
	return s.get(ctx, "/bots", query, true)
}

// GetBot fetches one bot's listing.
func (s *TopGG) GetBot(ctx context.Context, botID string) (*HTTPResponse, error) {
	return s.get(ctx, "/bots/"+botID, nil, true)
}

// GetBotVotes lists the users who voted for a bot.
func (s *TopGG) GetBotVotes(ctx context.Context, botID string) (*HTTPResponse, error) {
	return s.get(ctx, "/bots/"+botID+"/votes", nil, true)
}

// UserVoted checks whether a user voted for a bot.
func (s *TopGG) UserVoted(ctx context.Context, botID, userID string) (*HTTPResponse, error) {
	return s.get(ctx, "/bots/"+botID+"/check", url.Values{"userId": {userID}}, true)
}

// GetBotStats fetches a bot's posted statistics.
func (s *TopGG) GetBotStats(ctx context.Context, botID string) (*HTTPResponse, error) {
	return s.get(ctx, "/bots/"+botID+"/stats", nil, true)
}

// GetUser fetches a user's profile on this service.
func (s *TopGG) GetUser(ctx context.Context, userID string) (*HTTPResponse, error) {
	return s.get(ctx, "/users/"+userID, nil, true)
}

// WidgetURL builds the widget image URL for a bot. smallWidget, when
// non-empty, selects a badge variant (e.g. "owner").
func (s *TopGG) WidgetURL(botID, smallWidget string, query url.Values) string {
	path := s.base + "/widget/"
	if smallWidget != "" {
		path += smallWidget + "/"
	}
	path += botID + ".svg"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path
}
