// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/callograph/internal/config"
	"github.com/tomtom215/callograph/internal/logging"
	"github.com/tomtom215/callograph/internal/models"
	"github.com/tomtom215/callograph/internal/store"
)

type fakeSyncer struct {
	mu          sync.Mutex
	userResults map[string]models.SyncResult
	allResult   models.SyncResult
	allCalls    int
	allDone     chan struct{}
}

func (f *fakeSyncer) SyncUser(_ context.Context, username string) models.SyncResult {
	if r, ok := f.userResults[username]; ok {
		return r
	}
	return models.SyncResult{Errors: 1, Message: "user not found"}
}

func (f *fakeSyncer) SyncAll(context.Context) models.SyncResult {
	f.mu.Lock()
	f.allCalls++
	f.mu.Unlock()
	if f.allDone != nil {
		close(f.allDone)
	}
	return f.allResult
}

type fakeLogStore struct {
	logs    []models.CallLog
	total   int64
	listErr error
	status  *models.SyncStatus
	pingErr error
}

func (f *fakeLogStore) ListCallLogs(_ context.Context, _ string, _, _ int) ([]models.CallLog, int64, error) {
	return f.logs, f.total, f.listErr
}

func (f *fakeLogStore) GetSyncStatus(_ context.Context, _ string) (*models.SyncStatus, error) {
	if f.status == nil {
		return nil, store.ErrNotFound
	}
	return f.status, nil
}

func (f *fakeLogStore) Ping(context.Context) error {
	return f.pingErr
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		Timeout:         5 * time.Second,
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
		CORSOrigins:     []string{"*"},
	}
}

func newTestRouter(syncer Syncer, logStore LogStore) http.Handler {
	log := logging.NewTestLogger(io.Discard)
	return NewRouter(NewHandler(syncer, logStore, log), testServerConfig(), log)
}

func TestSyncUserEndpoint(t *testing.T) {
	t.Parallel()

	syncer := &fakeSyncer{userResults: map[string]models.SyncResult{
		"alice": {Processed: 3},
	}}
	router := newTestRouter(syncer, &fakeLogStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync/alice", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result models.SyncResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Processed != 3 {
		t.Errorf("Processed = %d", result.Processed)
	}
}

func TestSyncUserEndpointUnknownUser(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeSyncer{}, &fakeLogStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync/ghost", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSyncAllEndpointIsAsync(t *testing.T) {
	t.Parallel()

	syncer := &fakeSyncer{allDone: make(chan struct{})}
	router := newTestRouter(syncer, &fakeLogStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	select {
	case <-syncer.allDone:
	case <-time.After(5 * time.Second):
		t.Fatal("background sync never ran")
	}
}

func TestListLogsEndpoint(t *testing.T) {
	t.Parallel()

	logStore := &fakeLogStore{
		logs: []models.CallLog{
			{ID: "id-1", CallSid: "CA1", UserSaid: "hello"},
		},
		total: 1,
	}
	router := newTestRouter(&fakeSyncer{}, logStore)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/logs/alice?limit=10&offset=0", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp logsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 1 || len(resp.Logs) != 1 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Logs[0].CallSid != "CA1" {
		t.Errorf("CallSid = %q", resp.Logs[0].CallSid)
	}
}

func TestListLogsEndpointEmptyIsArray(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeSyncer{}, &fakeLogStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/logs/alice", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(resp["logs"]) != "[]" {
		t.Errorf("logs = %s, want []", resp["logs"])
	}
}

func TestListLogsEndpointStoreError(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeSyncer{}, &fakeLogStore{listErr: errors.New("db down")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/logs/alice", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestSyncStatusEndpoint(t *testing.T) {
	t.Parallel()

	logStore := &fakeLogStore{status: &models.SyncStatus{Username: "alice", TotalLogCount: 4}}
	router := newTestRouter(&fakeSyncer{}, logStore)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sync-status/alice", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var status models.SyncStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if status.TotalLogCount != 4 {
		t.Errorf("TotalLogCount = %d", status.TotalLogCount)
	}
}

func TestSyncStatusEndpointNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeSyncer{}, &fakeLogStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sync-status/ghost", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeSyncer{}, &fakeLogStore{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}

	broken := newTestRouter(&fakeSyncer{}, &fakeLogStore{pingErr: errors.New("db down")})
	rec = httptest.NewRecorder()
	broken.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeSyncer{}, &fakeLogStore{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
