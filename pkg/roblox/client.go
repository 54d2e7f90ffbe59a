package roblox

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"voice-status-bot/pkg/util"

	"github.com/disgoorg/json"
	"github.com/lmittmann/tint"
)

const (
	DefaultBaseURL = "https://presence.roblox.com"

	presencePath = "/v1/presence/users"

	// GameName is reported for every user that is in a Roblox experience.
	GameName = "Roblox"
)

type PresenceType int

const (
	PresenceTypeOffline PresenceType = iota
	PresenceTypeOnline
	PresenceTypeInGame
	PresenceTypeInStudio
	PresenceTypeInvisible
)

type UserPresence struct {
	UserID       int64        `json:"userId"`
	PresenceType PresenceType `json:"userPresenceType"`
	LastLocation string       `json:"lastLocation"`
}

type presenceRequest struct {
	UserIDs []int64 `json:"userIds"`
}

type presenceResponse struct {
	UserPresences []UserPresence `json:"userPresences"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New(httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
	}
}

func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

func (c *Client) Presences(ctx context.Context, userIDs []int64) ([]UserPresence, error) {
	body, err := json.Marshal(presenceRequest{UserIDs: userIDs})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+presencePath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	rs, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("voicestatus: error while fetching roblox presences", slog.Int("ids", len(userIDs)), tint.Err(err))
		return nil, err
	}
	defer rs.Body.Close()
	if err := util.CheckResponse(rs); err != nil {
		return nil, err
	}
	var presences presenceResponse
	if err := json.NewDecoder(rs.Body).Decode(&presences); err != nil {
		slog.Error("voicestatus: error while decoding roblox presences", slog.Int("status.code", rs.StatusCode), tint.Err(err))
		return nil, err
	}
	return presences.UserPresences, nil
}

// Fetch reports "Roblox" for users in game and no games otherwise. Ids that are not numeric are skipped.
// It has the shape of a poller fetch function.
func (c *Client) Fetch(ctx context.Context, ids []string) (map[string][]string, error) {
	userIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		userID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			slog.Warn("voicestatus: skipping invalid roblox id", slog.String("roblox.id", id))
			continue
		}
		userIDs = append(userIDs, userID)
	}
	if len(userIDs) == 0 {
		return map[string][]string{}, nil
	}
	presences, err := c.Presences(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]string, len(presences))
	for _, presence := range presences {
		games := []string{}
		if presence.PresenceType == PresenceTypeInGame {
			games = append(games, GameName)
		}
		result[strconv.FormatInt(presence.UserID, 10)] = games
	}
	return result, nil
}
