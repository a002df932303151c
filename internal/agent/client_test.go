// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package agent

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/callograph/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-agent", srv.URL, 5*time.Second, logging.NewTestLogger(io.Discard))
}

func TestFetchLogsJSONEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get-log/alice" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"logs": [
			{"callSid": "CA1", "userSaid": "hello", "timestamp": "2026-01-15T09:30:00Z"},
			{"call_sid": "CA2", "user_speech": "hi", "created_at": "2026-01-15 10:00:00"}
		]}`))
	})

	entries, err := client.FetchLogs(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FetchLogs: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].CallSid != "CA1" || entries[0].UserSaid != "hello" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].CallSid != "CA2" || entries[1].UserSaid != "hi" {
		t.Errorf("snake_case aliases not normalized: %+v", entries[1])
	}
}

func TestFetchLogsTextFallback(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[2026-01-15 09:30:00]
CallSid: CA100
User Speech: hello
--------------------------------------------------
`))
	})

	entries, err := client.FetchLogs(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FetchLogs: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].CallSid != "CA100" {
		t.Errorf("CallSid = %q", entries[0].CallSid)
	}
}

func TestFetchLogsEmptyBody(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("   \n"))
	})

	entries, err := client.FetchLogs(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FetchLogs: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestFetchLogsNonArrayLogsField(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"logs": "nope"}`))
	})

	entries, err := client.FetchLogs(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FetchLogs: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestFetchLogsMissingLogsField(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": "ok"}`))
	})

	entries, err := client.FetchLogs(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FetchLogs: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestFetchLogsHTTPError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := client.FetchLogs(context.Background(), "alice"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestFetchLogsEscapesUsername(t *testing.T) {
	t.Parallel()

	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"logs": []}`))
	})

	if _, err := client.FetchLogs(context.Background(), "a b/c"); err != nil {
		t.Fatalf("FetchLogs: %v", err)
	}
	if gotPath != "/get-log/a%20b%2Fc" {
		t.Errorf("path = %q", gotPath)
	}
}
