// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

// Package models defines the data types shared across the ingestion pipeline,
// store, and API layers.
package models

import "time"

// DefaultCallStatus is assigned when an upstream record carries no status.
const DefaultCallStatus = "completed"

// CallLogEntry is the canonical, normalized form of one call-transcript turn
// as fetched from an agent server. It is the input to the content hash: the
// digest is computed over this struct's serialization, so its field set and
// order are part of the idempotency contract. Do not reorder fields without a
// hash migration.
type CallLogEntry struct {
	CallSid     string    `json:"callSid"`
	Timestamp   time.Time `json:"timestamp"`
	PhoneNumber string    `json:"phoneNumber"`
	ToNumber    string    `json:"toNumber"`
	UserSaid    string    `json:"userSaid"`
	BotResponse string    `json:"botResponse"`
	Intent      string    `json:"intent"`
	SessionID   string    `json:"sessionId"`
	Duration    int       `json:"duration"`
	Status      string    `json:"status"`
	Agent       string    `json:"agent"`
}

// HasContent reports whether the entry carries at least one side of the
// exchange. Entries without content are dropped by the transcript parser.
func (e *CallLogEntry) HasContent() bool {
	return e.UserSaid != "" || e.BotResponse != ""
}

// CallLog is a persisted call-transcript turn. LogHash is the content-derived
// idempotency key; the store enforces its uniqueness.
type CallLog struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"userId"`
	CallSid     string    `json:"callSid"`
	Timestamp   time.Time `json:"timestamp"`
	PhoneNumber string    `json:"phoneNumber"`
	ToNumber    string    `json:"toNumber"`
	UserSaid    string    `json:"userSaid"`
	BotResponse string    `json:"botResponse"`
	Intent      string    `json:"intent"`
	SessionID   string    `json:"sessionId"`
	Duration    int       `json:"duration"`
	Status      string    `json:"status"`
	Agent       string    `json:"agent"`
	LogHash     string    `json:"logHash"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SyncStatus is per-user sync bookkeeping. TotalLogCount records the size of
// the most recent fetched set, not the count of persisted rows; it is a
// change-detection heuristic, never a source of truth.
type SyncStatus struct {
	UserID        int64     `json:"userId"`
	Username      string    `json:"username"`
	LastSyncAt    time.Time `json:"lastSyncAt"`
	TotalLogCount int       `json:"totalLogCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// User is consumed from the surrounding application; the ingestion pipeline
// never creates or deletes users.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// SyncResult is the outcome of a sync attempt. The orchestrator reports
// failures through this struct rather than returning errors; ingestion runs
// unattended and must not crash its host.
type SyncResult struct {
	Processed int    `json:"processed"`
	Errors    int    `json:"errors"`
	Skipped   bool   `json:"skipped,omitempty"`
	Message   string `json:"message,omitempty"`
}
