package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/restock/internal/domain/models"
	"github.com/mamadbah2/restock/internal/service/ingest"
	"github.com/mamadbah2/restock/internal/service/notify"
	"github.com/mamadbah2/restock/internal/service/recommend"
)

// RecommendationService is the pipeline surface exposed over HTTP.
type RecommendationService interface {
	Run(ctx context.Context) (*models.RunReport, error)
	Latest(ctx context.Context) (*models.RunReport, error)
}

// MessageSender posts free-form messages to chat.
type MessageSender interface {
	Send(ctx context.Context, channel, text string) error
}

// RecommendationHandler serves run triggers and results.
type RecommendationHandler struct {
	svc    RecommendationService
	sender MessageSender
	topN   int
	urgent int
	logger *zap.Logger
}

// NewRecommendationHandler constructs the HTTP handler adapter.
func NewRecommendationHandler(svc RecommendationService, sender MessageSender, topN, urgentDays int, logger *zap.Logger) *RecommendationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationHandler{svc: svc, sender: sender, topN: topN, urgent: urgentDays, logger: logger}
}

// Run triggers a pipeline run and returns its report.
func (h *RecommendationHandler) Run(c *gin.Context) {
	report, err := h.svc.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("recommendation run failed", zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, ingest.ErrMissingDataset) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.RunResponse{
		Report:  report,
		Summary: notify.Summary(report, h.topN, h.urgent),
	})
}

// Latest returns the most recent stored run.
func (h *RecommendationHandler) Latest(c *gin.Context) {
	report, err := h.svc.Latest(c.Request.Context())
	if errors.Is(err, recommend.ErrNoRuns) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run available yet"})
		return
	}
	if err != nil {
		h.logger.Error("failed loading latest run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load latest run"})
		return
	}

	c.JSON(http.StatusOK, models.RunResponse{
		Report:  report,
		Summary: notify.Summary(report, h.topN, h.urgent),
	})
}

// SendMessage posts a manual message to chat.
func (h *RecommendationHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.sender.Send(c.Request.Context(), req.Channel, req.Message); err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}
