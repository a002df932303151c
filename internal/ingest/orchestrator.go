// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/callograph/internal/metrics"
	"github.com/tomtom215/callograph/internal/models"
	"github.com/tomtom215/callograph/internal/store"
)

// Orchestrator sequences fetch, detect, and persist for single users and for
// the whole user population.
type Orchestrator struct {
	store     Store
	fetcher   LogFetcher
	detector  *Detector
	persister *Persister
	userDelay time.Duration
	log       zerolog.Logger
}

// NewOrchestrator wires the pipeline stages together. userDelay is the
// pacing interval between users in a bulk run, keeping the agent servers
// from seeing the whole population at once.
func NewOrchestrator(s Store, fetcher LogFetcher, userDelay time.Duration, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:     s,
		fetcher:   fetcher,
		detector:  NewDetector(s, log),
		persister: NewPersister(s, log),
		userDelay: userDelay,
		log:       log,
	}
}

// SyncUser runs the full pipeline for one user. It never returns an error;
// failures are reported inside the result so a bulk run can carry on.
func (o *Orchestrator) SyncUser(ctx context.Context, username string) models.SyncResult {
	start := time.Now()

	user, err := o.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.ObserveSyncRun("user", "not_found", start)
			return models.SyncResult{Errors: 1, Message: "user not found"}
		}
		o.log.Error().Err(err).Str("username", username).Msg("Failed to look up user")
		metrics.ObserveSyncRun("user", "error", start)
		return models.SyncResult{Errors: 1, Message: "failed to look up user"}
	}

	fetched := o.fetcher.FetchUserLogs(ctx, username)
	if len(fetched) == 0 {
		o.log.Info().Str("username", username).Msg("No logs found on any agent server")
		metrics.ObserveSyncRun("user", "ok", start)
		return models.SyncResult{Message: "no logs found"}
	}

	fresh := o.detector.DetectNew(ctx, username, fetched)
	if len(fresh) == 0 {
		metrics.ObserveSyncRun("user", "skipped", start)
		return models.SyncResult{Skipped: true, Message: "no new logs"}
	}

	processed, errored := o.persister.Persist(ctx, user, fresh)

	// Bookkeeping records the total fetched count, not the written count, so
	// the detector's fast path compares like with like next run. A failure
	// here only costs one short-circuit opportunity.
	if err := o.store.UpsertSyncStatus(ctx, user.ID, username, len(fetched)); err != nil {
		o.log.Warn().Err(err).Str("username", username).Msg("Failed to update sync status")
	}

	o.log.Info().
		Str("username", username).
		Int("fetched", len(fetched)).
		Int("processed", processed).
		Int("errors", errored).
		Dur("duration", time.Since(start)).
		Msg("User sync complete")
	metrics.ObserveSyncRun("user", "ok", start)
	return models.SyncResult{Processed: processed, Errors: errored}
}

// SyncAll runs SyncUser for every user with a username, pacing between users
// and isolating per-user failures. Failing to enumerate users aborts the
// run; nothing else does.
func (o *Orchestrator) SyncAll(ctx context.Context) models.SyncResult {
	start := time.Now()

	users, err := o.store.ListUsersWithUsername(ctx)
	if err != nil {
		o.log.Error().Err(err).Msg("Failed to list users for bulk sync")
		metrics.ObserveSyncRun("bulk", "error", start)
		return models.SyncResult{Errors: 1, Message: "failed to list users"}
	}

	o.log.Info().Int("users", len(users)).Msg("Starting bulk sync")

	limiter := rate.NewLimiter(rate.Every(o.userDelay), 1)
	var total models.SyncResult
	for _, user := range users {
		if err := limiter.Wait(ctx); err != nil {
			o.log.Warn().Err(err).Msg("Bulk sync interrupted")
			metrics.ObserveSyncRun("bulk", "error", start)
			return total
		}

		result := o.SyncUser(ctx, user.Username)
		total.Processed += result.Processed
		total.Errors += result.Errors
	}

	o.log.Info().
		Int("users", len(users)).
		Int("processed", total.Processed).
		Int("errors", total.Errors).
		Dur("duration", time.Since(start)).
		Msg("Bulk sync complete")
	metrics.ObserveSyncRun("bulk", "ok", start)
	return total
}
