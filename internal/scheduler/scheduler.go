package scheduler

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/restock/internal/config"
	"github.com/mamadbah2/restock/internal/domain/models"
)

const runTimeout = 10 * time.Minute

// Runner executes one recommendation run.
type Runner interface {
	Run(ctx context.Context) (*models.RunReport, error)
}

// Job is an extra task run on its own schedule.
type Job func(ctx context.Context) error

type namedJob struct {
	name     string
	schedule string
	run      Job
}

// Scheduler triggers recommendation runs, and any registered jobs, on cron
// schedules.
type Scheduler struct {
	cron     *cron.Cron
	loc      *time.Location
	runner   Runner
	schedule string
	jobs     []namedJob
	logger   *zap.Logger
}

// NewScheduler creates a scheduler evaluating the schedule in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, runner Runner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		loc:      loc,
		runner:   runner,
		schedule: cfg.CronSchedule,
		logger:   logger,
	}, nil
}

// Location is the timezone schedules are evaluated in.
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// Register adds a job to be scheduled by Start.
func (s *Scheduler) Register(name, schedule string, job Job) {
	s.jobs = append(s.jobs, namedJob{name: name, schedule: schedule, run: job})
}

// Start registers the run job and every registered job, then starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.runRecommendation); err != nil {
		return fmt.Errorf("schedule recommendation run: %w", err)
	}

	for _, j := range s.jobs {
		if _, err := s.cron.AddFunc(j.schedule, func() { s.runJob(j) }); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
		s.logger.Info("job scheduled", zap.String("job", j.name), zap.String("schedule", j.schedule))
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runRecommendation() {
	s.logger.Info("scheduled recommendation run")
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	report, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled run failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled run finished", zap.Int("skus", report.SKUCount), zap.Int("total_qty", report.TotalQty))
}

func (s *Scheduler) runJob(j namedJob) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := j.run(ctx); err != nil {
		s.logger.Error("scheduled job failed", zap.String("job", j.name), zap.Error(err))
		return
	}
	s.logger.Info("scheduled job finished", zap.String("job", j.name))
}
