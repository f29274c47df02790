package slack

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/restock/internal/config"
)

// Client exposes the Slack Web API operations used by the application.
type Client interface {
	PostMessage(ctx context.Context, req PostMessageRequest) (*PostMessageResponse, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a Slack API client using the provided configuration values.
func NewClient(cfg config.SlackConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetAuthToken(cfg.BotToken).
		SetHeader("Content-Type", "application/json; charset=utf-8").
		SetTimeout(15 * time.Second)

	return &APIClient{httpClient: restyClient}
}

// PostMessageRequest is a plain mrkdwn message to one channel.
type PostMessageRequest struct {
	Channel string
	Text    string
}

// PostMessageResponse mirrors the fields of chat.postMessage we care about.
type PostMessageResponse struct {
	OK      bool   `json:"ok"`
	Channel string `json:"channel"`
	TS      string `json:"ts"`
	Error   string `json:"error"`
}

// PostMessage sends req.Text to req.Channel. Slack reports most failures with
// a 200 status and ok=false, so both are checked.
func (c *APIClient) PostMessage(ctx context.Context, req PostMessageRequest) (*PostMessageResponse, error) {
	if req.Channel == "" {
		return nil, fmt.Errorf("slack channel must not be empty")
	}

	payload := map[string]any{
		"channel": req.Channel,
		"text":    req.Text,
		"mrkdwn":  true,
	}

	result := new(PostMessageResponse)
	apiErr := new(PostMessageResponse)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(result).
		SetError(apiErr).
		Post("chat.postMessage")
	if err != nil {
		return nil, fmt.Errorf("send slack message: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("slack api error: code=%d, message=%s", resp.StatusCode(), apiErr.Error)
	}
	if !result.OK {
		return nil, fmt.Errorf("slack api error: %s", result.Error)
	}

	return result, nil
}
