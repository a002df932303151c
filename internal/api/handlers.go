// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/callograph/internal/models"
	"github.com/tomtom215/callograph/internal/store"
)

// Syncer triggers sync runs. *ingest.Orchestrator satisfies it.
type Syncer interface {
	SyncUser(ctx context.Context, username string) models.SyncResult
	SyncAll(ctx context.Context) models.SyncResult
}

// LogStore is the read surface the API needs. *store.DB satisfies it.
type LogStore interface {
	ListCallLogs(ctx context.Context, username string, limit, offset int) ([]models.CallLog, int64, error)
	GetSyncStatus(ctx context.Context, username string) (*models.SyncStatus, error)
	Ping(ctx context.Context) error
}

// Handler implements the HTTP endpoints.
type Handler struct {
	syncer Syncer
	store  LogStore
	log    zerolog.Logger
}

// NewHandler creates the endpoint handler.
func NewHandler(syncer Syncer, s LogStore, log zerolog.Logger) *Handler {
	return &Handler{syncer: syncer, store: s, log: log}
}

// SyncUser handles POST /api/v1/sync/{username}: runs the pipeline for one
// user inline and returns the result. Unknown users get 404.
func (h *Handler) SyncUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	result := h.syncer.SyncUser(r.Context(), username)

	status := http.StatusOK
	if result.Message == "user not found" {
		status = http.StatusNotFound
	}
	writeJSON(w, status, result)
}

// SyncAll handles POST /api/v1/sync: kicks off a bulk sync in the background
// and returns 202 immediately. A bulk run can take minutes; holding the
// request open that long invites client timeouts.
func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	go func() {
		result := h.syncer.SyncAll(ctx)
		h.log.Info().
			Int("processed", result.Processed).
			Int("errors", result.Errors).
			Msg("Background bulk sync finished")
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sync started"})
}

// logsResponse is the paginated payload for ListLogs.
type logsResponse struct {
	Logs   []models.CallLog `json:"logs"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// ListLogs handles GET /api/v1/logs/{username}?limit=&offset=.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	logs, total, err := h.store.ListCallLogs(r.Context(), username, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Str("username", username).Msg("Failed to list call logs")
		writeError(w, http.StatusInternalServerError, "failed to list call logs")
		return
	}
	if logs == nil {
		logs = []models.CallLog{}
	}

	writeJSON(w, http.StatusOK, logsResponse{Logs: logs, Total: total, Limit: limit, Offset: offset})
}

// SyncStatus handles GET /api/v1/sync-status/{username}. Users never synced
// get 404.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	status, err := h.store.GetSyncStatus(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no sync status for user")
			return
		}
		h.log.Error().Err(err).Str("username", username).Msg("Failed to get sync status")
		writeError(w, http.StatusInternalServerError, "failed to get sync status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Health handles GET /health and GET /api/v1/health: verifies the store is
// reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
