package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/restock/internal/config"
	"github.com/mamadbah2/restock/internal/domain/models"
	"github.com/mamadbah2/restock/pkg/clients/slack"
)

const nameLimit = 15

// Service posts run summaries to the team channel.
type Service struct {
	client     slack.Client
	channel    string
	topN       int
	urgentDays int
	logger     *zap.Logger
}

// NewService builds a notifier. A nil client disables sending.
func NewService(client slack.Client, slackCfg config.SlackConfig, reporting config.ReportingConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:     client,
		channel:    slackCfg.Channel,
		topN:       reporting.TopN,
		urgentDays: reporting.UrgentDays,
		logger:     logger,
	}
}

// NotifyRun posts the summary of report.
func (s *Service) NotifyRun(ctx context.Context, report *models.RunReport) error {
	return s.Send(ctx, "", Summary(report, s.topN, s.urgentDays))
}

// NotifyFailure posts an error message for a failed stage.
func (s *Service) NotifyFailure(ctx context.Context, stage string, cause error) error {
	return s.Send(ctx, "", fmt.Sprintf("⚠️ Error during %s: %v", stage, cause))
}

// Send posts text to channel, or to the configured channel when channel is empty.
func (s *Service) Send(ctx context.Context, channel, text string) error {
	if s.client == nil {
		s.logger.Warn("slack token not configured, message not sent")
		return nil
	}
	if channel == "" {
		channel = s.channel
	}

	resp, err := s.client.PostMessage(ctx, slack.PostMessageRequest{Channel: channel, Text: text})
	if err != nil {
		return fmt.Errorf("post summary: %w", err)
	}

	s.logger.Info("message posted", zap.String("channel", resp.Channel), zap.String("ts", resp.TS))
	return nil
}

// UrgentCount counts recommendations whose displayed stockout estimate is
// within maxDays days.
func UrgentCount(recs []models.Recommendation, maxDays int) int {
	n := 0
	for _, r := range recs {
		if r.DisplayDepletionDays >= 0 && r.DisplayDepletionDays <= maxDays {
			n++
		}
	}
	return n
}

// Summary renders the chat message for a run. Recommendations are expected
// in ranked order.
func Summary(report *models.RunReport, topN, urgentDays int) string {
	if report == nil || len(report.Recommendations) == 0 {
		return "✅ No products currently require shipment (stock is sufficient)."
	}

	var b strings.Builder
	b.WriteString("📦 *Transfer Recommendations*\n")
	fmt.Fprintf(&b, "🚨 Urgent products (0-%d days to stockout): *%d* items\n",
		urgentDays, UrgentCount(report.Recommendations, urgentDays))
	fmt.Fprintf(&b, "Total: *%d* units across *%d* products\n\n", report.TotalQty, len(report.Recommendations))
	fmt.Fprintf(&b, "*Top %d Urgent Products:*\n", topN)

	for i, rec := range report.Recommendations {
		if i >= topN {
			break
		}
		fmt.Fprintf(&b, "• *%s*: %d units (Est. stockout in %d days)\n",
			shorten(rec.Name, nameLimit), rec.TransferQty, rec.DisplayDepletionDays)
	}
	return b.String()
}

func shorten(name string, limit int) string {
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return string(runes[:limit]) + "..."
}
