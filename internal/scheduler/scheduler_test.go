package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restock/internal/config"
	"github.com/mamadbah2/restock/internal/domain/models"
)

type countingRunner struct {
	calls int
	err   error
}

func (r *countingRunner) Run(context.Context) (*models.RunReport, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &models.RunReport{}, nil
}

func TestNewScheduler_BadTimezone(t *testing.T) {
	_, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 9 * * *", Timezone: "Mars/Olympus"}, &countingRunner{}, nil)
	assert.Error(t, err)
}

func TestStart_BadSchedule(t *testing.T) {
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "every day", Timezone: "UTC"}, &countingRunner{}, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 9 * * *", Timezone: "Asia/Seoul"}, &countingRunner{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}

func TestRunRecommendation(t *testing.T) {
	runner := &countingRunner{}
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 9 * * *", Timezone: "UTC"}, runner, nil)
	require.NoError(t, err)

	s.runRecommendation()
	runner.err = errors.New("sheet unavailable")
	s.runRecommendation()

	assert.Equal(t, 2, runner.calls)
}

func TestRegister(t *testing.T) {
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 9 * * *", Timezone: "Asia/Seoul"}, &countingRunner{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", s.Location().String())

	calls := 0
	s.Register("ad report", "30 9 * * *", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()

	s.runJob(s.jobs[0])
	assert.Equal(t, 1, calls)
}

func TestRegister_BadSchedule(t *testing.T) {
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 9 * * *", Timezone: "UTC"}, &countingRunner{}, nil)
	require.NoError(t, err)

	s.Register("ad report", "sometime", func(context.Context) error { return nil })
	assert.ErrorContains(t, s.Start(), "ad report")
}

func TestRunJob_Failure(t *testing.T) {
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 9 * * *", Timezone: "UTC"}, &countingRunner{}, nil)
	require.NoError(t, err)

	calls := 0
	s.runJob(namedJob{name: "ad report", run: func(context.Context) error {
		calls++
		return errors.New("graph api down")
	}})
	assert.Equal(t, 1, calls)
}
