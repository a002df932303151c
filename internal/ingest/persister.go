// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/callograph/internal/loghash"
	"github.com/tomtom215/callograph/internal/metrics"
	"github.com/tomtom215/callograph/internal/models"
	"github.com/tomtom215/callograph/internal/store"
)

// Persister writes new log entries to the store one record at a time, so a
// single bad record never poisons the rest of the batch.
type Persister struct {
	store Store
	log   zerolog.Logger
}

// NewPersister creates a persister backed by the given store.
func NewPersister(s Store, log zerolog.Logger) *Persister {
	return &Persister{store: s, log: log}
}

// Persist writes each entry for the user and returns how many were written
// and how many failed. The write ladder per record:
//
//  1. Plain insert. A duplicate-hash conflict means another run already
//     wrote this content; it is skipped silently.
//  2. Any other insert failure falls back to an upsert keyed on the hash,
//     covering races between the detector's diff and this write.
//  3. Only a record failing both counts as an error.
func (p *Persister) Persist(ctx context.Context, user *models.User, entries []models.CallLogEntry) (processed, errored int) {
	for i := range entries {
		entry := entries[i]
		// Text-format sections may carry no timestamp line; a zero time must
		// never reach the NOT NULL timestamp column. The default applies to
		// the stored row only: the content hash is taken over the entry as
		// fetched, so the same timestamp-less record hashes identically on
		// every sync and stays deduplicated.
		timestamp := entry.Timestamp
		if timestamp.IsZero() {
			timestamp = time.Now()
		}
		row := &models.CallLog{
			UserID:      user.ID,
			CallSid:     entry.CallSid,
			Timestamp:   timestamp,
			PhoneNumber: entry.PhoneNumber,
			ToNumber:    entry.ToNumber,
			UserSaid:    entry.UserSaid,
			BotResponse: entry.BotResponse,
			Intent:      entry.Intent,
			SessionID:   entry.SessionID,
			Duration:    entry.Duration,
			Status:      entry.Status,
			Agent:       entry.Agent,
			LogHash:     loghash.Sum(entry),
		}
		if row.CallSid == "" {
			row.CallSid = "generated-" + uuid.NewString()
		}

		err := p.store.InsertCallLog(ctx, row)
		if err == nil {
			processed++
			metrics.LogsPersisted.Inc()
			continue
		}

		if store.IsDuplicateHash(err) {
			metrics.PersistDuplicates.Inc()
			p.log.Debug().Str("log_hash", row.LogHash).Str("username", user.Username).
				Msg("Log already persisted, skipping")
			continue
		}

		if err := p.store.UpsertCallLogByHash(ctx, row); err != nil {
			errored++
			metrics.PersistErrors.Inc()
			p.log.Error().Err(err).Str("call_sid", row.CallSid).Str("username", user.Username).
				Msg("Failed to persist call log")
			continue
		}
		processed++
		metrics.LogsPersisted.Inc()
	}
	return processed, errored
}
