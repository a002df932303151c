// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

// Package ingest is the core of the pipeline: it decides which fetched logs
// are new (detector), writes them idempotently (persister), and sequences
// per-user and bulk sync runs (orchestrator).
package ingest

import (
	"context"

	"github.com/tomtom215/callograph/internal/models"
)

// Store is the persistence surface the pipeline needs. *store.DB satisfies
// it; tests substitute fakes.
type Store interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsersWithUsername(ctx context.Context) ([]models.User, error)
	GetLogHashesByUser(ctx context.Context, username string) (map[string]struct{}, error)
	InsertCallLog(ctx context.Context, entry *models.CallLog) error
	UpsertCallLogByHash(ctx context.Context, entry *models.CallLog) error
	GetSyncStatus(ctx context.Context, username string) (*models.SyncStatus, error)
	UpsertSyncStatus(ctx context.Context, userID int64, username string, totalLogCount int) error
}

// LogFetcher retrieves a user's logs from the configured agent servers.
// *agent.Fetcher satisfies it.
type LogFetcher interface {
	FetchUserLogs(ctx context.Context, username string) []models.CallLogEntry
}
