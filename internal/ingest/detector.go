// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package ingest

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/callograph/internal/loghash"
	"github.com/tomtom215/callograph/internal/metrics"
	"github.com/tomtom215/callograph/internal/models"
	"github.com/tomtom215/callograph/internal/store"
)

// Detector decides which fetched entries are not yet persisted for a user.
type Detector struct {
	store Store
	log   zerolog.Logger
}

// NewDetector creates a detector backed by the given store.
func NewDetector(s Store, log zerolog.Logger) *Detector {
	return &Detector{store: s, log: log}
}

// DetectNew filters fetched down to the entries whose content hash is not
// already persisted for the user.
//
// When the user's recorded sync count equals the fetched count, the whole
// batch is assumed already persisted and the store's hash set is never read.
// This trades a small false-negative window (a record replaced between syncs
// of an otherwise stable set) for skipping the most expensive query on the
// common no-change path; the next count change re-examines everything.
//
// Store failures degrade to "nothing new": a broken store must not let the
// persister re-write the full batch on recovery.
func (d *Detector) DetectNew(ctx context.Context, username string, fetched []models.CallLogEntry) []models.CallLogEntry {
	if len(fetched) == 0 {
		return nil
	}

	status, err := d.store.GetSyncStatus(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		d.log.Warn().Err(err).Str("username", username).
			Msg("Failed to read sync status, treating batch as already persisted")
		return nil
	}

	if status != nil && status.TotalLogCount == len(fetched) {
		metrics.DetectorShortCircuits.Inc()
		d.log.Debug().Str("username", username).Int("count", len(fetched)).
			Msg("Log count unchanged since last sync, skipping hash diff")
		return nil
	}

	existing, err := d.store.GetLogHashesByUser(ctx, username)
	if err != nil {
		d.log.Warn().Err(err).Str("username", username).
			Msg("Failed to load persisted hashes, treating batch as already persisted")
		return nil
	}

	var fresh []models.CallLogEntry
	for i := range fetched {
		if _, ok := existing[loghash.Sum(fetched[i])]; !ok {
			fresh = append(fresh, fetched[i])
		}
	}

	d.log.Debug().Str("username", username).
		Int("fetched", len(fetched)).
		Int("existing", len(existing)).
		Int("new", len(fresh)).
		Msg("Detected new logs")
	return fresh
}
