// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

// Package loghash computes the content fingerprint used as the idempotency
// key for call-log records.
//
// The digest is SHA-256 over the canonical JSON serialization of a
// models.CallLogEntry. Struct marshaling guarantees a fixed field order, so
// the digest is stable across fetch cycles regardless of how the upstream
// payload ordered its keys. Two fetches of the same underlying event hash
// identically; changing any field value changes the digest.
package loghash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/goccy/go-json"

	"github.com/tomtom215/callograph/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of the entry's canonical
// serialization. No side effects; safe for concurrent use.
func Sum(entry models.CallLogEntry) string {
	// Marshal of a plain struct cannot fail; the error path exists only to
	// satisfy the codec signature.
	data, err := json.Marshal(entry)
	if err != nil {
		data = []byte(entry.CallSid + entry.Timestamp.String())
	}
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}
