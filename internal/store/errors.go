// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package store

import (
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// IsDuplicateHash reports whether err is a unique-constraint violation on the
// call_logs.log_hash column. The persister treats this specific conflict as
// success-by-idempotence rather than an error.
//
// DuckDB does not expose structured constraint errors through database/sql,
// so classification is by message: violations contain "Duplicate key" or
// "unique constraint", and the column name identifies which constraint fired.
func IsDuplicateHash(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "duplicate key") && !strings.Contains(msg, "unique constraint") {
		return false
	}
	return strings.Contains(msg, "log_hash")
}

// closeQuietly closes a resource and explicitly ignores any error. For
// cleanup in error paths where a Close failure is not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
