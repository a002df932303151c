// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/callograph/internal/models"
)

// callLogColumns is the scan-order column list shared by call-log reads.
const callLogColumns = `id, user_id, call_sid, timestamp, phone_number, to_number,
	user_said, bot_response, intent, session_id, duration, status, agent,
	log_hash, created_at, updated_at`

// GetLogHashesByUser returns the set of log hashes already persisted for the
// user, keyed for O(1) membership checks during the detector's diff.
func (db *DB) GetLogHashesByUser(ctx context.Context, username string) (map[string]struct{}, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("get_log_hashes", time.Now())

	rows, err := db.conn.QueryContext(ctx,
		`SELECT cl.log_hash
		 FROM call_logs cl
		 JOIN users u ON u.id = cl.user_id
		 WHERE u.username = ?`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load log hashes for %q: %w", username, err)
	}
	defer rows.Close()

	hashes := make(map[string]struct{})
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan log hash: %w", err)
		}
		hashes[hash] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log hashes: %w", err)
	}
	return hashes, nil
}

// InsertCallLog inserts a call-log row. A unique-constraint violation on
// log_hash surfaces as an error classified by IsDuplicateHash; callers decide
// whether that conflict is benign.
func (db *DB) InsertCallLog(ctx context.Context, entry *models.CallLog) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert_call_log", time.Now())

	db.prepareCallLogRow(entry)

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO call_logs (`+callLogColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.CallSid, entry.Timestamp, entry.PhoneNumber,
		entry.ToNumber, entry.UserSaid, entry.BotResponse, entry.Intent, entry.SessionID,
		entry.Duration, entry.Status, entry.Agent, entry.LogHash, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert call log: %w", err)
	}
	return nil
}

// UpsertCallLogByHash writes a call-log row keyed on log_hash: mutable fields
// are updated when the hash exists, the full row is created when it does not.
// This is the persister's fallback for write races between the duplicate
// check and the insert.
func (db *DB) UpsertCallLogByHash(ctx context.Context, entry *models.CallLog) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("upsert_call_log", time.Now())

	db.prepareCallLogRow(entry)

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO call_logs (`+callLogColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (log_hash) DO UPDATE SET
			user_said = excluded.user_said,
			bot_response = excluded.bot_response,
			intent = excluded.intent,
			status = excluded.status,
			duration = excluded.duration,
			agent = excluded.agent,
			updated_at = excluded.updated_at`,
		entry.ID, entry.UserID, entry.CallSid, entry.Timestamp, entry.PhoneNumber,
		entry.ToNumber, entry.UserSaid, entry.BotResponse, entry.Intent, entry.SessionID,
		entry.Duration, entry.Status, entry.Agent, entry.LogHash, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert call log: %w", err)
	}
	return nil
}

// prepareCallLogRow fills generated and bookkeeping fields before a write.
func (db *DB) prepareCallLogRow(entry *models.CallLog) {
	now := time.Now()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
}

// ListCallLogs returns the user's persisted call logs, newest first, with the
// total count for pagination.
func (db *DB) ListCallLogs(ctx context.Context, username string, limit, offset int) ([]models.CallLog, int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("list_call_logs", time.Now())

	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*)
		 FROM call_logs cl JOIN users u ON u.id = cl.user_id
		 WHERE u.username = ?`, username).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count call logs for %q: %w", username, err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT cl.id, cl.user_id, cl.call_sid, cl.timestamp, cl.phone_number, cl.to_number,
			cl.user_said, cl.bot_response, cl.intent, cl.session_id, cl.duration, cl.status,
			cl.agent, cl.log_hash, cl.created_at, cl.updated_at
		 FROM call_logs cl JOIN users u ON u.id = cl.user_id
		 WHERE u.username = ?
		 ORDER BY cl.timestamp DESC, cl.id
		 LIMIT ? OFFSET ?`, username, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list call logs for %q: %w", username, err)
	}
	defer rows.Close()

	var logs []models.CallLog
	for rows.Next() {
		var l models.CallLog
		var sessionID *string
		if err := rows.Scan(&l.ID, &l.UserID, &l.CallSid, &l.Timestamp, &l.PhoneNumber,
			&l.ToNumber, &l.UserSaid, &l.BotResponse, &l.Intent, &sessionID, &l.Duration,
			&l.Status, &l.Agent, &l.LogHash, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan call log: %w", err)
		}
		if sessionID != nil {
			l.SessionID = *sessionID
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating call logs: %w", err)
	}
	return logs, total, nil
}
