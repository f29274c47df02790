// Package adreport posts the previous day's ad account performance to chat.
package adreport

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mamadbah2/restock/pkg/clients/meta"
)

const purchaseAction = "purchase"

var insightFields = []string{"spend", "clicks", "actions", "action_values"}

// Sender delivers a chat message. An empty channel means the default one.
type Sender interface {
	Send(ctx context.Context, channel, text string) error
}

// Metrics are the derived figures for one reporting day.
type Metrics struct {
	Spend         float64
	Clicks        int
	Purchases     float64
	PurchaseValue float64
	CPC           float64
	CPP           float64
	ROAS          float64
}

// Options configures a Service.
type Options struct {
	AccountID string
	Channel   string
	Location  *time.Location
	Clock     func() time.Time
}

// Service builds and sends the daily ad report.
type Service struct {
	client meta.Client
	sender Sender
	opts   Options
	logger *zap.Logger
}

// NewService builds an ad reporter.
func NewService(client meta.Client, sender Sender, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{client: client, sender: sender, opts: opts, logger: logger}
}

// Run fetches yesterday's insights, posts the report and returns its text.
func (s *Service) Run(ctx context.Context) (string, error) {
	day := s.opts.Clock().In(s.opts.Location).AddDate(0, 0, -1)

	insights, err := s.client.AccountInsights(ctx, meta.InsightsRequest{
		AccountID:  s.opts.AccountID,
		DatePreset: "yesterday",
		Fields:     insightFields,
	})
	if err != nil {
		return "", fmt.Errorf("fetch insights: %w", err)
	}

	var text string
	if len(insights) == 0 {
		s.logger.Warn("no ad insights for yesterday")
		text = "⚠️ No ad data was recorded for yesterday."
	} else {
		m, err := Compute(insights[0])
		if err != nil {
			return "", err
		}
		text = Format(m, day)
		s.logger.Info("ad report built",
			zap.Float64("spend", m.Spend),
			zap.Int("clicks", m.Clicks),
			zap.Float64("purchases", m.Purchases))
	}

	if err := s.sender.Send(ctx, s.opts.Channel, text); err != nil {
		return "", fmt.Errorf("send ad report: %w", err)
	}
	return text, nil
}

// Compute derives cost and return figures from one insights row. Ratios with
// a zero denominator are zero.
func Compute(in meta.Insight) (Metrics, error) {
	var m Metrics
	var err error

	if m.Spend, err = parseFloat("spend", in.Spend); err != nil {
		return Metrics{}, err
	}
	clicks, err := parseFloat("clicks", in.Clicks)
	if err != nil {
		return Metrics{}, err
	}
	m.Clicks = int(clicks)

	if m.Purchases, err = actionValue(in.Actions); err != nil {
		return Metrics{}, err
	}
	if m.PurchaseValue, err = actionValue(in.ActionValues); err != nil {
		return Metrics{}, err
	}

	if m.Clicks > 0 {
		m.CPC = m.Spend / float64(m.Clicks)
	}
	if m.Purchases > 0 {
		m.CPP = m.Spend / m.Purchases
	}
	if m.Spend > 0 {
		m.ROAS = m.PurchaseValue / m.Spend * 100
	}
	return m, nil
}

// Format renders the chat message for day. Amounts are whole won.
func Format(m Metrics, day time.Time) string {
	p := message.NewPrinter(language.English)

	var b strings.Builder
	fmt.Fprintf(&b, "📅 *Yesterday's Ad Performance (%s)*\n\n", day.Format("2006-01-02"))
	b.WriteString(p.Sprintf("💰 *Total spend:* %d KRW\n", int64(m.Spend)))
	b.WriteString(p.Sprintf("🛒 *Purchases:* %d\n", int64(m.Purchases)))
	b.WriteString(p.Sprintf("🎯 *Cost per purchase (CPP):* %d KRW\n", int64(m.CPP)))
	b.WriteString(p.Sprintf("🖱️ *Average CPC:* %d KRW\n", int64(m.CPC)))
	b.WriteString(p.Sprintf("📈 *Purchase ROAS:* %d%%", int64(m.ROAS)))
	return b.String()
}

// actionValue returns the purchase entry of actions. When the API repeats the
// action type the last entry wins.
func actionValue(actions []meta.Action) (float64, error) {
	var out float64
	for _, a := range actions {
		if a.ActionType != purchaseAction {
			continue
		}
		v, err := parseFloat(purchaseAction, a.Value)
		if err != nil {
			return 0, err
		}
		out = v
	}
	return out, nil
}

func parseFloat(field, raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return v, nil
}
