// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/callograph/internal/models"
)

// GetSyncStatus returns the user's sync bookkeeping row, or ErrNotFound when
// the user has never been synced.
func (db *DB) GetSyncStatus(ctx context.Context, username string) (*models.SyncStatus, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("get_sync_status", time.Now())

	row := db.conn.QueryRowContext(ctx,
		`SELECT user_id, username, last_sync_at, total_log_count, created_at, updated_at
		 FROM sync_status WHERE username = ?`, username)

	status := &models.SyncStatus{}
	err := row.Scan(&status.UserID, &status.Username, &status.LastSyncAt,
		&status.TotalLogCount, &status.CreatedAt, &status.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sync status for %q: %w", username, err)
	}
	return status, nil
}

// UpsertSyncStatus records a completed sync attempt: last_sync_at is set to
// now and total_log_count to the size of the fetched set. Creates the row on
// first sync, updates it afterwards. Never deletes.
func (db *DB) UpsertSyncStatus(ctx context.Context, userID int64, username string, totalLogCount int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("upsert_sync_status", time.Now())

	now := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sync_status (user_id, username, last_sync_at, total_log_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (username) DO UPDATE SET
			last_sync_at = excluded.last_sync_at,
			total_log_count = excluded.total_log_count,
			updated_at = excluded.updated_at`,
		userID, username, now, totalLogCount, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert sync status for %q: %w", username, err)
	}
	return nil
}
