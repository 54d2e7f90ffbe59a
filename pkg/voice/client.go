// Package voice sets the status text shown under Discord voice channels.
package voice

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"voice-status-bot/pkg/util"

	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
)

const (
	DefaultBaseURL = "https://discord.com/api/v10"

	voiceStatusPath = "/channels/%s/voice-status"

	// MaxStatusLength is the longest status Discord accepts.
	MaxStatusLength = 500
)

type statusRequest struct {
	Status string `json:"status"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New returns a client authenticating as the bot. superProperties is sent as x-super-properties
// when not empty.
func New(token string, superProperties string) *Client {
	return &Client{
		httpClient: util.NewHeaderClient(map[string]string{
			"Authorization":      "Bot " + token,
			"x-super-properties": superProperties,
		}),
		baseURL: DefaultBaseURL,
	}
}

func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// SetStatus replaces the status of a voice channel. Only 204 No Content counts as success.
func (c *Client) SetStatus(ctx context.Context, channelID snowflake.ID, status string) error {
	body, err := json.Marshal(statusRequest{Status: status})
	if err != nil {
		return err
	}
	u := c.baseURL + fmt.Sprintf(voiceStatusPath, channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	rs, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer rs.Body.Close()
	return util.CheckResponse(rs, http.StatusNoContent)
}
