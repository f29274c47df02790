package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/restock/internal/domain/models"
	"github.com/mamadbah2/restock/internal/engine"
	"github.com/mamadbah2/restock/internal/repository/mongodb"
	"github.com/mamadbah2/restock/internal/service/export"
	"github.com/mamadbah2/restock/internal/service/ingest"
	"github.com/mamadbah2/restock/internal/service/loader"
	"github.com/mamadbah2/restock/internal/service/notify"
)

// ErrNoRuns is returned by Latest before any run has completed.
var ErrNoRuns = errors.New("no recommendation run available")

// DataSource supplies the raw worksheets for a run.
type DataSource interface {
	Load(ctx context.Context) (*loader.Result, error)
}

// ResultWriter replaces the result sheet and appends to the run log.
type ResultWriter interface {
	ReplaceRange(ctx context.Context, sheetRange string, rows [][]interface{}) error
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
}

// Notifier reports run outcomes to people.
type Notifier interface {
	NotifyRun(ctx context.Context, report *models.RunReport) error
	NotifyFailure(ctx context.Context, stage string, cause error) error
}

// Options holds the optional collaborators of a Service. Nil members are skipped.
type Options struct {
	Store       mongodb.Repository
	Writer      ResultWriter
	ResultRange string
	RunLogRange string
	Notifier    Notifier
	UrgentDays  int
	Clock       func() time.Time
}

// Service runs the recommendation pipeline end to end.
type Service struct {
	source    DataSource
	processor *ingest.Processor
	engine    *engine.Engine
	opts      Options
	logger    *zap.Logger

	runMu    sync.Mutex
	latestMu sync.RWMutex
	latest   *models.RunReport
}

// NewService wires a pipeline.
func NewService(source DataSource, processor *ingest.Processor, eng *engine.Engine, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		source:    source,
		processor: processor,
		engine:    eng,
		opts:      opts,
		logger:    logger,
	}
}

// Run executes one pipeline pass. Runs are serialized. Persistence, sheet
// export and notification failures are logged and do not fail the run.
func (s *Service) Run(ctx context.Context) (*models.RunReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	now := s.opts.Clock()
	s.logger.Info("recommendation run started")

	loaded, err := s.source.Load(ctx)
	if err != nil {
		return nil, s.fail(ctx, "data loading", err)
	}

	dataset, err := s.processor.Process(loaded.Tables, now)
	if err != nil {
		return nil, s.fail(ctx, "data processing", err)
	}

	result, err := s.engine.Run(engine.Input{
		Records: dataset.Records,
		BOM:     dataset.BOM,
		Lists:   loaded.Lists,
	})
	if err != nil {
		return nil, s.fail(ctx, "recommendation analysis", err)
	}

	report := s.report(result, now)
	s.publish(ctx, report)

	s.latestMu.Lock()
	s.latest = report
	s.latestMu.Unlock()

	s.logger.Info("recommendation run completed",
		zap.Int("skus", report.SKUCount),
		zap.Int("total_qty", report.TotalQty),
		zap.Int("urgent", report.UrgentCount))
	return report, nil
}

// Latest returns the most recent run, preferring the persistent store.
func (s *Service) Latest(ctx context.Context) (*models.RunReport, error) {
	if s.opts.Store != nil {
		report, err := s.opts.Store.LatestRun(ctx)
		switch {
		case err == nil:
			return report, nil
		case !errors.Is(err, mongodb.ErrNotFound):
			return nil, fmt.Errorf("load latest run: %w", err)
		}
	}

	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoRuns
	}
	return s.latest, nil
}

func (s *Service) report(result *engine.Result, now time.Time) *models.RunReport {
	recs := result.Recommendations
	sweeps := 0
	for _, r := range recs {
		if r.Sweep {
			sweeps++
		}
	}

	return &models.RunReport{
		RunAt:           now,
		SKUCount:        len(recs),
		TotalQty:        result.TotalQty(),
		UrgentCount:     notify.UrgentCount(recs, s.opts.UrgentDays),
		SweepCount:      sweeps,
		CorrectedSKUs:   result.Stats.Corrected,
		Recommendations: recs,
		CreatedAt:       now,
	}
}

func (s *Service) publish(ctx context.Context, report *models.RunReport) {
	if s.opts.Store != nil {
		if err := s.opts.Store.SaveRun(ctx, *report); err != nil {
			s.logger.Error("failed to persist run", zap.Error(err))
		}
	}

	if s.opts.Writer != nil && s.opts.ResultRange != "" {
		rows := export.Rows(export.ByGroupUrgency(report.Recommendations))
		if err := s.opts.Writer.ReplaceRange(ctx, s.opts.ResultRange, export.SheetValues(rows)); err != nil {
			s.logger.Error("failed to write results to sheet", zap.Error(err))
		}
	}

	if s.opts.Writer != nil && s.opts.RunLogRange != "" {
		if err := s.opts.Writer.WriteRow(ctx, s.opts.RunLogRange, runLogRow(report)); err != nil {
			s.logger.Error("failed to append run log", zap.Error(err))
		}
	}

	if s.opts.Notifier != nil {
		if err := s.opts.Notifier.NotifyRun(ctx, report); err != nil {
			s.logger.Error("failed to send run summary", zap.Error(err))
		}
	}
}

func runLogRow(report *models.RunReport) []interface{} {
	return []interface{}{
		report.RunAt.Format("2006-01-02 15:04:05"),
		report.SKUCount,
		report.TotalQty,
		report.UrgentCount,
	}
}

func (s *Service) fail(ctx context.Context, stage string, cause error) error {
	s.logger.Error("recommendation run failed", zap.String("stage", stage), zap.Error(cause))
	if s.opts.Notifier != nil {
		if err := s.opts.Notifier.NotifyFailure(ctx, stage, cause); err != nil {
			s.logger.Error("failed to send failure notice", zap.Error(err))
		}
	}
	return fmt.Errorf("%s: %w", stage, cause)
}
