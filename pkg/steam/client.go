package steam

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"voice-status-bot/pkg/util"

	"github.com/disgoorg/json"
	"github.com/lmittmann/tint"
)

const (
	DefaultBaseURL = "https://api.steampowered.com"

	playerSummariesPath = "/ISteamUser/GetPlayerSummaries/v2/"
	appListPath         = "/ISteamApps/GetAppList/v2/"
)

type Client struct {
	httpClient *http.Client
	key        string
	baseURL    string
}

func New(httpClient *http.Client, key string) *Client {
	return &Client{
		httpClient: httpClient,
		key:        key,
		baseURL:    DefaultBaseURL,
	}
}

// WithBaseURL points the client at another host, mostly for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	u := c.baseURL + path
	if len(query) != 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	rs, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer rs.Body.Close()
	if err := util.CheckResponse(rs); err != nil {
		return err
	}
	return json.NewDecoder(rs.Body).Decode(v)
}

// PlayerSummaries fetches the public profiles of up to 100 Steam IDs.
func (c *Client) PlayerSummaries(ctx context.Context, steamIDs []string) ([]PlayerSummary, error) {
	if len(steamIDs) == 0 {
		return nil, nil
	}
	query := url.Values{}
	query.Set("key", c.key)
	query.Set("steamids", strings.Join(steamIDs, ","))

	var rs playerSummariesResponse
	if err := c.get(ctx, playerSummariesPath, query, &rs); err != nil {
		slog.Error("voicestatus: error while fetching steam player summaries", slog.Int("ids", len(steamIDs)), tint.Err(err))
		return nil, err
	}
	return rs.Response.Players, nil
}

// Fetch maps every returned Steam ID to the game being played, or to no games.
// It has the shape of a poller fetch function.
func (c *Client) Fetch(ctx context.Context, steamIDs []string) (map[string][]string, error) {
	players, err := c.PlayerSummaries(ctx, steamIDs)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]string, len(players))
	for _, player := range players {
		if player.SteamID == "" {
			continue
		}
		if player.InGame() {
			result[player.SteamID] = []string{player.GameName}
		} else {
			result[player.SteamID] = []string{}
		}
	}
	return result, nil
}

// AppList fetches every app known to the Steam store.
func (c *Client) AppList(ctx context.Context) ([]App, error) {
	var rs appListResponse
	if err := c.get(ctx, appListPath, nil, &rs); err != nil {
		slog.Error("voicestatus: error while fetching the steam app list", tint.Err(err))
		return nil, err
	}
	return rs.AppList.Apps, nil
}
