// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

// Package scheduler runs periodic bulk syncs on a cron schedule as a
// supervised service.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/callograph/internal/config"
	"github.com/tomtom215/callograph/internal/models"
)

// BulkSyncer triggers a sync across all users. *ingest.Orchestrator
// satisfies it.
type BulkSyncer interface {
	SyncAll(ctx context.Context) models.SyncResult
}

// Service triggers bulk syncs on a cron schedule. It implements
// suture.Service: Serve blocks until the supervisor cancels its context.
type Service struct {
	syncer BulkSyncer
	cfg    config.SyncConfig
	log    zerolog.Logger
}

// New creates the scheduler service. The schedule is validated at config
// load, so a parse failure here restarts the service through the supervisor
// rather than being silently ignored.
func New(syncer BulkSyncer, cfg config.SyncConfig, log zerolog.Logger) *Service {
	return &Service{syncer: syncer, cfg: cfg, log: log}
}

// Serve implements suture.Service.
//
// When sync is disabled the service parks until shutdown so the supervisor
// tree keeps a uniform shape. Otherwise it optionally runs one bulk sync at
// startup, then hands the schedule to cron until the context is canceled.
func (s *Service) Serve(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.log.Info().Msg("Scheduled sync disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	if s.cfg.SyncOnStart {
		s.log.Info().Msg("Running initial sync on startup")
		s.runOnce(ctx)
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(s.cfg.Schedule, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to register sync schedule %q: %w", s.cfg.Schedule, err)
	}
	c.Start()
	s.log.Info().Str("schedule", s.cfg.Schedule).Msg("Sync scheduler started")

	<-ctx.Done()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		s.log.Warn().Msg("Timed out waiting for running sync job to finish")
	}
	return ctx.Err()
}

func (s *Service) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	result := s.syncer.SyncAll(ctx)
	if result.Errors > 0 {
		s.log.Warn().
			Int("processed", result.Processed).
			Int("errors", result.Errors).
			Msg("Scheduled sync finished with errors")
	}
}

// String implements fmt.Stringer for supervisor log messages.
func (s *Service) String() string {
	return "sync-scheduler"
}
