// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package store

import "fmt"

// schemaStatements are applied in order on every startup. All statements are
// idempotent; there is no separate migration runner for this schema.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username VARCHAR UNIQUE,
		email VARCHAR NOT NULL DEFAULT '',
		name VARCHAR NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,

	// log_hash UNIQUE is the idempotency anchor for the whole pipeline.
	`CREATE TABLE IF NOT EXISTS call_logs (
		id UUID PRIMARY KEY,
		user_id BIGINT NOT NULL,
		call_sid VARCHAR NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		phone_number VARCHAR NOT NULL DEFAULT '',
		to_number VARCHAR NOT NULL DEFAULT '',
		user_said VARCHAR NOT NULL DEFAULT '',
		bot_response VARCHAR NOT NULL DEFAULT '',
		intent VARCHAR NOT NULL DEFAULT '',
		session_id VARCHAR,
		duration INTEGER NOT NULL DEFAULT 0,
		status VARCHAR NOT NULL DEFAULT 'completed',
		agent VARCHAR NOT NULL DEFAULT '',
		log_hash VARCHAR NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_call_logs_user_id ON call_logs(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_call_logs_call_sid ON call_logs(call_sid)`,

	`CREATE TABLE IF NOT EXISTS sync_status (
		user_id BIGINT NOT NULL,
		username VARCHAR PRIMARY KEY,
		last_sync_at TIMESTAMP NOT NULL,
		total_log_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// initSchema applies the schema statements.
func (db *DB) initSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
