// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

// Package store implements the DuckDB-backed record store for users, call
// logs, and per-user sync status.
//
// The ingestion pipeline's idempotency rests on this layer: call_logs carries
// a UNIQUE constraint on log_hash, and concurrent writers racing on the same
// record are expected to lose gracefully (see IsDuplicateHash). The store
// only ever appends or upserts; nothing in this package deletes records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/callograph/internal/config"
	"github.com/tomtom215/callograph/internal/metrics"
)

// defaultQueryTimeout bounds store operations that arrive without a deadline.
const defaultQueryTimeout = 30 * time.Second

// DB wraps the DuckDB connection and exposes the record-store operations the
// pipeline consumes.
type DB struct {
	conn *sql.DB
	cfg  config.DatabaseConfig
	log  zerolog.Logger
}

// Open opens (or creates) the DuckDB database at the configured path,
// verifies connectivity, and applies the schema.
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		conn: conn,
		cfg:  cfg,
		log:  log.With().Str("component", "store").Logger(),
	}

	if err := db.initSchema(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.log.Info().Str("path", cfg.Path).Int("threads", threads).Msg("Store opened")
	return db, nil
}

// OpenInMemory opens an in-memory store for tests.
func OpenInMemory(log zerolog.Logger) (*DB, error) {
	return Open(config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 1}, log)
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Ping verifies connectivity. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// ensureContext attaches the default query timeout when the caller's context
// carries no deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// observe records a store operation's duration.
func observe(operation string, start time.Time) {
	metrics.StoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
