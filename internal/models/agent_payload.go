// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package models

import (
	"strings"
	"time"
)

// AgentLogEntry is the raw shape of a log record as returned by an agent
// server's JSON endpoint. Upstream payloads are inconsistent about naming:
// the same semantic field may arrive camelCased or snake_cased depending on
// the agent software version. Both spellings are accepted here and resolved
// in Normalize with a fixed precedence: camelCase wins when both are present.
type AgentLogEntry struct {
	CallSid      string `json:"callSid"`
	CallSidSnake string `json:"call_sid"`

	PhoneNumber      string `json:"phoneNumber"`
	PhoneNumberSnake string `json:"phone_number"`
	FromNumber       string `json:"from_number"`

	ToNumber      string `json:"toNumber"`
	ToNumberSnake string `json:"to_number"`

	UserSaid   string `json:"userSaid"`
	UserSpeech string `json:"user_speech"`

	BotResponse      string `json:"botResponse"`
	BotResponseSnake string `json:"bot_response"`

	Intent         string `json:"intent"`
	DetectedIntent string `json:"detected_intent"`

	SessionID      string `json:"sessionId"`
	SessionIDSnake string `json:"session_id"`

	// Timestamps arrive as strings in whatever format the agent emits;
	// parsing is lenient (see parseTimestamp).
	Timestamp      string `json:"timestamp"`
	CreatedAt      string `json:"createdAt"`
	CreatedAtSnake string `json:"created_at"`

	Duration int    `json:"duration"`
	Status   string `json:"status"`
}

// timestampLayouts lists the formats agents have been observed emitting,
// tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a timestamp string against the known layouts.
// Returns the zero time when the value is empty or unparseable.
func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Normalize resolves field aliases into a canonical CallLogEntry.
//
// Precedence per field: camelCase form, then snake_case form(s), then the
// default. The timestamp resolves from timestamp, then createdAt/created_at,
// then now. Status defaults to "completed".
func (e *AgentLogEntry) Normalize(now time.Time) CallLogEntry {
	ts := parseTimestamp(e.Timestamp)
	if ts.IsZero() {
		ts = parseTimestamp(coalesce(e.CreatedAt, e.CreatedAtSnake))
	}
	if ts.IsZero() {
		ts = now
	}

	status := e.Status
	if status == "" {
		status = DefaultCallStatus
	}

	return CallLogEntry{
		CallSid:     coalesce(e.CallSid, e.CallSidSnake),
		Timestamp:   ts,
		PhoneNumber: coalesce(e.PhoneNumber, e.PhoneNumberSnake, e.FromNumber),
		ToNumber:    coalesce(e.ToNumber, e.ToNumberSnake),
		UserSaid:    coalesce(e.UserSaid, e.UserSpeech),
		BotResponse: coalesce(e.BotResponse, e.BotResponseSnake),
		Intent:      coalesce(e.Intent, e.DetectedIntent),
		SessionID:   coalesce(e.SessionID, e.SessionIDSnake),
		Duration:    e.Duration,
		Status:      status,
	}
}
