package meta

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/restock/internal/config"
)

// Client exposes the Marketing API operations used by the application.
type Client interface {
	AccountInsights(ctx context.Context, req InsightsRequest) ([]Insight, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a Graph API client using the provided configuration values.
func NewClient(cfg config.AdsConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetQueryParam("access_token", cfg.AccessToken).
		SetTimeout(30 * time.Second)

	return &APIClient{httpClient: restyClient}
}

// InsightsRequest selects an ad account, a date preset and the fields to read.
type InsightsRequest struct {
	AccountID  string
	DatePreset string
	Fields     []string
}

// Action is one entry of the actions or action_values lists. The Graph API
// encodes every number as a string.
type Action struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// Insight is one row of account level insights.
type Insight struct {
	Spend        string   `json:"spend"`
	Clicks       string   `json:"clicks"`
	Actions      []Action `json:"actions"`
	ActionValues []Action `json:"action_values"`
	DateStart    string   `json:"date_start"`
	DateStop     string   `json:"date_stop"`
}

type insightsResponse struct {
	Data []Insight `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// AccountInsights fetches account level insights. An empty slice means the
// account had no delivery in the requested period.
func (c *APIClient) AccountInsights(ctx context.Context, req InsightsRequest) ([]Insight, error) {
	if req.AccountID == "" {
		return nil, fmt.Errorf("ad account id must not be empty")
	}

	account := req.AccountID
	if !strings.HasPrefix(account, "act_") {
		account = "act_" + account
	}

	result := new(insightsResponse)
	apiErr := new(errorResponse)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("date_preset", req.DatePreset).
		SetQueryParam("fields", strings.Join(req.Fields, ",")).
		SetResult(result).
		SetError(apiErr).
		Get(account + "/insights")
	if err != nil {
		return nil, fmt.Errorf("fetch ad insights: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("graph api error: code=%d, message=%s", resp.StatusCode(), apiErr.Error.Message)
	}

	return result.Data, nil
}
