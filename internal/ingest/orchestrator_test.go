// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package ingest

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/callograph/internal/logging"
	"github.com/tomtom215/callograph/internal/models"
)

func newTestOrchestrator(fs *fakeStore, ff *fakeFetcher) *Orchestrator {
	return NewOrchestrator(fs, ff, time.Millisecond, logging.NewTestLogger(io.Discard))
}

func TestSyncUserUnknownUser(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(newFakeStore(), &fakeFetcher{})
	result := o.SyncUser(context.Background(), "ghost")

	if result.Errors != 1 {
		t.Errorf("Errors = %d, want 1", result.Errors)
	}
	if result.Message != "user not found" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestSyncUserNoLogsFound(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.addUser(1, "alice")
	o := newTestOrchestrator(fs, &fakeFetcher{})

	result := o.SyncUser(context.Background(), "alice")

	if result.Processed != 0 || result.Errors != 0 {
		t.Errorf("result = %+v", result)
	}
	if result.Message != "no logs found" {
		t.Errorf("Message = %q", result.Message)
	}
	if len(fs.statusUpserts) != 0 {
		t.Errorf("empty fetch must not update sync status")
	}
}

func TestSyncUserFirstSyncThenSkip(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.addUser(1, "alice")
	ff := &fakeFetcher{logs: map[string][]models.CallLogEntry{
		"alice": {entryWithSid("CA1"), entryWithSid("CA2")},
	}}
	o := newTestOrchestrator(fs, ff)

	first := o.SyncUser(context.Background(), "alice")
	if first.Processed != 2 || first.Errors != 0 || first.Skipped {
		t.Fatalf("first sync = %+v", first)
	}
	if len(fs.statusUpserts) != 1 {
		t.Fatalf("expected 1 status upsert, got %d", len(fs.statusUpserts))
	}
	if got := fs.statusUpserts[0]; got.userID != 1 || got.count != 2 {
		t.Errorf("status upsert = %+v", got)
	}

	// Second run fetches the identical set; the recorded count matches, so
	// the detector short-circuits and nothing is written.
	second := o.SyncUser(context.Background(), "alice")
	if !second.Skipped {
		t.Errorf("second sync not skipped: %+v", second)
	}
	if second.Processed != 0 {
		t.Errorf("second sync Processed = %d", second.Processed)
	}
	if len(fs.inserted) != 2 {
		t.Errorf("second sync wrote rows: %d total inserts", len(fs.inserted))
	}
	if len(fs.statusUpserts) != 1 {
		t.Errorf("skipped sync must not update sync status, got %d upserts", len(fs.statusUpserts))
	}
}

func TestSyncUserRecordsFetchedCountNotWrittenCount(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.addUser(1, "alice")
	known := entryWithSid("CA1")
	fs.hashes["alice"] = map[string]struct{}{}
	ff := &fakeFetcher{logs: map[string][]models.CallLogEntry{
		"alice": {known, entryWithSid("CA2"), entryWithSid("CA3")},
	}}
	o := newTestOrchestrator(fs, ff)

	// Pre-seed one of the three as already persisted.
	o.persister.Persist(context.Background(), &models.User{ID: 1, Username: "alice"}, []models.CallLogEntry{known})
	for _, row := range fs.inserted {
		fs.hashes["alice"][row.LogHash] = struct{}{}
	}

	result := o.SyncUser(context.Background(), "alice")
	if result.Processed != 2 {
		t.Fatalf("Processed = %d, want 2", result.Processed)
	}
	if got := fs.statusUpserts[len(fs.statusUpserts)-1]; got.count != 3 {
		t.Errorf("recorded count = %d, want total fetched 3", got.count)
	}
}

func TestSyncUserStatusUpdateFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.addUser(1, "alice")
	fs.statusUpsertErr = errors.New("db down")
	ff := &fakeFetcher{logs: map[string][]models.CallLogEntry{
		"alice": {entryWithSid("CA1")},
	}}
	o := newTestOrchestrator(fs, ff)

	result := o.SyncUser(context.Background(), "alice")
	if result.Processed != 1 || result.Errors != 0 {
		t.Errorf("result = %+v, status failure must not surface", result)
	}
}

func TestSyncAllIsolatesPerUserFailures(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.addUser(1, "alice")
	fs.addUser(2, "bob")
	ff := &fakeFetcher{logs: map[string][]models.CallLogEntry{
		"alice": {entryWithSid("CA1")},
		// bob's agents return nothing
	}}
	o := newTestOrchestrator(fs, ff)

	result := o.SyncAll(context.Background())
	if result.Processed != 1 {
		t.Errorf("Processed = %d, want 1", result.Processed)
	}
	if result.Errors != 0 {
		t.Errorf("Errors = %d", result.Errors)
	}
}

func TestSyncAllEnumerationFailureAbortsRun(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.listErr = errors.New("db down")
	o := newTestOrchestrator(fs, &fakeFetcher{})

	result := o.SyncAll(context.Background())
	if result.Errors != 1 {
		t.Errorf("Errors = %d, want 1", result.Errors)
	}
	if result.Message != "failed to list users" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestSyncAllStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	for i := int64(1); i <= 5; i++ {
		fs.addUser(i, "user")
	}
	o := NewOrchestrator(fs, &fakeFetcher{}, time.Hour, logging.NewTestLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		o.SyncAll(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("SyncAll did not stop on canceled context")
	}
}
