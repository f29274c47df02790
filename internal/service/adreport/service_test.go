package adreport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restock/pkg/clients/meta"
)

type fakeInsights struct {
	insights []meta.Insight
	err      error
	req      meta.InsightsRequest
}

func (f *fakeInsights) AccountInsights(_ context.Context, req meta.InsightsRequest) ([]meta.Insight, error) {
	f.req = req
	return f.insights, f.err
}

type fakeSender struct {
	channel string
	text    string
	err     error
}

func (f *fakeSender) Send(_ context.Context, channel, text string) error {
	f.channel, f.text = channel, text
	return f.err
}

func sampleInsight() meta.Insight {
	return meta.Insight{
		Spend:  "12345.67",
		Clicks: "89",
		Actions: []meta.Action{
			{ActionType: "link_click", Value: "89"},
			{ActionType: "purchase", Value: "3"},
		},
		ActionValues: []meta.Action{{ActionType: "purchase", Value: "45000"}},
	}
}

func newTestService(client meta.Client, sender Sender) *Service {
	return NewService(client, sender, Options{
		AccountID: "42",
		Channel:   "#ads",
		Location:  time.FixedZone("KST", 9*60*60),
		// 00:30 in Seoul on June 10 is still June 9 in UTC.
		Clock: func() time.Time { return time.Date(2025, 6, 9, 15, 30, 0, 0, time.UTC) },
	}, nil)
}

func TestCompute(t *testing.T) {
	m, err := Compute(sampleInsight())
	require.NoError(t, err)

	assert.InDelta(t, 12345.67, m.Spend, 1e-9)
	assert.Equal(t, 89, m.Clicks)
	assert.Equal(t, 3.0, m.Purchases)
	assert.Equal(t, 45000.0, m.PurchaseValue)
	assert.InDelta(t, 138.715, m.CPC, 1e-3)
	assert.InDelta(t, 4115.223, m.CPP, 1e-3)
	assert.InDelta(t, 364.50, m.ROAS, 1e-2)
}

func TestCompute_ZeroDenominators(t *testing.T) {
	m, err := Compute(meta.Insight{Spend: "0", Clicks: "0"})
	require.NoError(t, err)
	assert.Zero(t, m.CPC)
	assert.Zero(t, m.CPP)
	assert.Zero(t, m.ROAS)
}

func TestCompute_BadNumber(t *testing.T) {
	_, err := Compute(meta.Insight{Spend: "lots"})
	assert.ErrorContains(t, err, "spend")
}

func TestCompute_LastPurchaseEntryWins(t *testing.T) {
	m, err := Compute(meta.Insight{
		Spend:   "100",
		Actions: []meta.Action{{ActionType: "purchase", Value: "1"}, {ActionType: "purchase", Value: "4"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, m.Purchases)
}

func TestFormat(t *testing.T) {
	m, err := Compute(sampleInsight())
	require.NoError(t, err)

	msg := Format(m, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, msg, "(2025-06-09)")
	assert.Contains(t, msg, "*Total spend:* 12,345 KRW")
	assert.Contains(t, msg, "*Purchases:* 3\n")
	assert.Contains(t, msg, "(CPP):* 4,115 KRW")
	assert.Contains(t, msg, "*Average CPC:* 138 KRW")
	assert.Contains(t, msg, "*Purchase ROAS:* 364%")
}

func TestRun(t *testing.T) {
	client := &fakeInsights{insights: []meta.Insight{sampleInsight()}}
	sender := &fakeSender{}

	text, err := newTestService(client, sender).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "42", client.req.AccountID)
	assert.Equal(t, "yesterday", client.req.DatePreset)
	assert.Equal(t, []string{"spend", "clicks", "actions", "action_values"}, client.req.Fields)
	assert.Equal(t, "#ads", sender.channel)
	assert.Equal(t, text, sender.text)
	assert.Contains(t, text, "(2025-06-09)")
}

func TestRun_NoData(t *testing.T) {
	sender := &fakeSender{}
	text, err := newTestService(&fakeInsights{}, sender).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "No ad data")
	assert.Equal(t, text, sender.text)
}

func TestRun_Errors(t *testing.T) {
	_, err := newTestService(&fakeInsights{err: errors.New("token expired")}, &fakeSender{}).Run(context.Background())
	assert.ErrorContains(t, err, "token expired")

	client := &fakeInsights{insights: []meta.Insight{sampleInsight()}}
	_, err = newTestService(client, &fakeSender{err: errors.New("slack down")}).Run(context.Background())
	assert.ErrorContains(t, err, "send ad report")
}
