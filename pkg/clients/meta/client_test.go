package meta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restock/internal/config"
)

func TestAccountInsights(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/act_42/insights", r.URL.Path)
		assert.Equal(t, "token", r.URL.Query().Get("access_token"))
		assert.Equal(t, "yesterday", r.URL.Query().Get("date_preset"))
		assert.Equal(t, "spend,clicks", r.URL.Query().Get("fields"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"spend":"12345.67","clicks":"89","actions":[{"action_type":"purchase","value":"3"}],"action_values":[{"action_type":"purchase","value":"45000"}]}]}`))
	}))
	defer server.Close()

	client := NewClient(config.AdsConfig{AccessToken: "token", BaseURL: server.URL + "/"})
	insights, err := client.AccountInsights(context.Background(), InsightsRequest{
		AccountID:  "42",
		DatePreset: "yesterday",
		Fields:     []string{"spend", "clicks"},
	})
	require.NoError(t, err)

	require.Len(t, insights, 1)
	assert.Equal(t, "12345.67", insights[0].Spend)
	assert.Equal(t, []Action{{ActionType: "purchase", Value: "3"}}, insights[0].Actions)
	assert.Equal(t, "45000", insights[0].ActionValues[0].Value)
}

func TestAccountInsights_KeepsAccountPrefix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/act_42/insights", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := NewClient(config.AdsConfig{AccessToken: "token", BaseURL: server.URL})
	insights, err := client.AccountInsights(context.Background(), InsightsRequest{AccountID: "act_42"})
	require.NoError(t, err)
	assert.Empty(t, insights)
}

func TestAccountInsights_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	}))
	defer server.Close()

	client := NewClient(config.AdsConfig{AccessToken: "bad", BaseURL: server.URL})
	_, err := client.AccountInsights(context.Background(), InsightsRequest{AccountID: "42"})
	assert.ErrorContains(t, err, "code=400")
	assert.ErrorContains(t, err, "Invalid OAuth access token.")
}

func TestAccountInsights_RequiresAccount(t *testing.T) {
	client := NewClient(config.AdsConfig{BaseURL: "http://127.0.0.1:0"})
	_, err := client.AccountInsights(context.Background(), InsightsRequest{})
	assert.Error(t, err)
}
