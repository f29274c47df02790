// Package app wires configuration into a ready recommendation pipeline for
// both the HTTP server and the command line tool.
package app

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/restock/internal/config"
	"github.com/mamadbah2/restock/internal/engine"
	"github.com/mamadbah2/restock/internal/repository/mongodb"
	"github.com/mamadbah2/restock/internal/repository/sheets"
	"github.com/mamadbah2/restock/internal/service/adreport"
	"github.com/mamadbah2/restock/internal/service/ingest"
	"github.com/mamadbah2/restock/internal/service/loader"
	"github.com/mamadbah2/restock/internal/service/notify"
	"github.com/mamadbah2/restock/internal/service/recommend"
	"github.com/mamadbah2/restock/pkg/clients/meta"
	"github.com/mamadbah2/restock/pkg/clients/slack"
)

// Options selects which side effects a run performs.
type Options struct {
	Notify    bool
	WriteBack bool
	History   bool
}

// App is the wired pipeline.
type App struct {
	Recommend *recommend.Service
	Notifier  *notify.Service
	// AdReport is nil when no ad account is configured.
	AdReport *adreport.Service

	mongo  *mongodb.MongoDBRepository
	logger *zap.Logger
}

// Build connects to the configured backends and assembles the pipeline.
func Build(ctx context.Context, cfg *config.Config, opts Options, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named("repo.sheets"))
	if err != nil {
		return nil, fmt.Errorf("init sheets repository: %w", err)
	}

	var slackClient slack.Client
	if cfg.Slack.Enabled() {
		slackClient = slack.NewClient(cfg.Slack)
	} else {
		logger.Warn("slack bot token missing, notifications disabled")
	}
	notifier := notify.NewService(slackClient, cfg.Slack, cfg.Reporting, logger.Named("svc.notify"))

	a := &App{Notifier: notifier, logger: logger}

	svcOpts := recommend.Options{UrgentDays: cfg.Reporting.UrgentDays}
	if opts.Notify {
		svcOpts.Notifier = notifier
	}
	if opts.WriteBack {
		svcOpts.Writer = sheetsRepo
		svcOpts.ResultRange = cfg.Sheets.ResultRange
		svcOpts.RunLogRange = cfg.Sheets.RunLogRange
	}
	if opts.History && cfg.MongoDB.URI != "" {
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			return nil, fmt.Errorf("init mongodb repository: %w", err)
		}
		a.mongo = repo
		svcOpts.Store = repo
	} else if opts.History {
		logger.Warn("mongodb uri missing, run history kept in memory only")
	}

	policy := engine.DefaultPolicy()
	a.Recommend = recommend.NewService(
		loader.New(sheetsRepo, loader.DefaultSheets(), logger.Named("svc.loader")),
		ingest.NewProcessor(ingest.DefaultColumns(), policy.BOMLayout, cfg.Engine.ExcludedPrefixes, logger.Named("svc.ingest")),
		engine.New(policy, logger.Named("engine")),
		svcOpts,
		logger.Named("svc.recommend"),
	)

	if cfg.Ads.Enabled() {
		loc, err := time.LoadLocation(cfg.Reporting.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %s: %w", cfg.Reporting.Timezone, err)
		}
		a.AdReport = adreport.NewService(meta.NewClient(cfg.Ads), notifier, adreport.Options{
			AccountID: cfg.Ads.AccountID,
			Channel:   cfg.Ads.Channel,
			Location:  loc,
		}, logger.Named("svc.adreport"))
	} else {
		logger.Debug("ad account not configured, ad report disabled")
	}

	return a, nil
}

// Close releases backend connections.
func (a *App) Close(ctx context.Context) {
	if a.mongo == nil {
		return
	}
	if err := a.mongo.Close(ctx); err != nil {
		a.logger.Error("failed to close mongodb connection", zap.Error(err))
	}
}
