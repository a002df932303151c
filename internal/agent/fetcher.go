// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package agent

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/callograph/internal/loghash"
	"github.com/tomtom215/callograph/internal/metrics"
	"github.com/tomtom215/callograph/internal/models"
)

// Fetcher queries every configured agent server for a user's logs and merges
// the results into one deduplicated slice.
type Fetcher struct {
	clients []*Client
	log     zerolog.Logger
}

// NewFetcher builds one client per configured agent. Clients are ordered by
// agent name so fetch order, and therefore which copy of a duplicate record
// wins, is deterministic across runs.
func NewFetcher(agents map[string]string, timeout time.Duration, log zerolog.Logger) *Fetcher {
	names := make([]string, 0, len(agents))
	for name := range agents {
		names = append(names, name)
	}
	sort.Strings(names)

	clients := make([]*Client, 0, len(names))
	for _, name := range names {
		clients = append(clients, NewClient(name, agents[name], timeout, log))
	}

	return &Fetcher{clients: clients, log: log}
}

// AgentCount returns how many agent servers are configured.
func (f *Fetcher) AgentCount() int {
	return len(f.clients)
}

// FetchUserLogs collects the user's logs from all agent servers. Each entry
// is stamped with the name of the agent it came from before its content hash
// is taken, and entries whose hash was already seen this run are dropped.
//
// Per-agent failures are logged and skipped; a user with one unreachable
// agent still gets logs from the rest. FetchUserLogs never returns an error.
func (f *Fetcher) FetchUserLogs(ctx context.Context, username string) []models.CallLogEntry {
	var merged []models.CallLogEntry
	seen := make(map[string]struct{})

	for _, client := range f.clients {
		entries, err := client.FetchLogs(ctx, username)
		if err != nil {
			f.log.Warn().
				Err(err).
				Str("agent", client.Name()).
				Str("username", username).
				Msg("Agent fetch failed, skipping")
			continue
		}

		for i := range entries {
			entries[i].Agent = client.Name()
			hash := loghash.Sum(entries[i])
			if _, dup := seen[hash]; dup {
				metrics.CrossAgentDuplicates.Inc()
				continue
			}
			seen[hash] = struct{}{}
			merged = append(merged, entries[i])
		}
	}

	f.log.Debug().
		Str("username", username).
		Int("agents", len(f.clients)).
		Int("logs", len(merged)).
		Msg("Fetched logs from agent servers")
	return merged
}
