// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

// Package agent fetches call logs from remote agent servers. Each agent
// exposes GET /get-log/{username} returning either a JSON envelope
// {"logs": [...]} or a plain-text transcript; this package handles both.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/callograph/internal/metrics"
	"github.com/tomtom215/callograph/internal/models"
	"github.com/tomtom215/callograph/internal/transcript"
)

// maxErrorBodySize caps how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 4096

// Client fetches call logs for one named agent server.
//
// The circuit breaker uses real time (via sony/gobreaker) for its interval
// and timeout calculations. Tests should exercise the fetch path directly
// rather than waiting out breaker state transitions.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]models.CallLogEntry]
	parser  *transcript.Parser
	log     zerolog.Logger
}

// NewClient creates a client for a single agent server. baseURL is the
// server root without the /get-log path.
func NewClient(name, baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	c := &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		parser:  transcript.NewParser(log),
		log:     log.With().Str("agent", name).Logger(),
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]models.CallLogEntry](gobreaker.Settings{
		Name:        "agent-" + name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			c.log.Warn().
				Str("breaker", cbName).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Agent circuit breaker state change")
		},
	})

	return c
}

// Name returns the agent's configured name.
func (c *Client) Name() string {
	return c.name
}

// FetchLogs retrieves the user's call logs from this agent server. An empty
// body or a JSON envelope without a logs array yields an empty slice with no
// error. Returned entries are normalized but not yet stamped with the agent
// name; the fetcher does that.
func (c *Client) FetchLogs(ctx context.Context, username string) ([]models.CallLogEntry, error) {
	start := time.Now()
	entries, err := c.breaker.Execute(func() ([]models.CallLogEntry, error) {
		return c.fetch(ctx, username)
	})
	metrics.AgentFetchDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "network_error"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "breaker_open"
		case strings.Contains(err.Error(), "unexpected status"):
			outcome = "http_error"
		}
		metrics.AgentFetchTotal.WithLabelValues(c.name, outcome).Inc()
		return nil, err
	}

	if len(entries) == 0 {
		metrics.AgentFetchTotal.WithLabelValues(c.name, "empty").Inc()
	} else {
		metrics.AgentFetchTotal.WithLabelValues(c.name, "ok").Inc()
	}
	return entries, nil
}

func (c *Client) fetch(ctx context.Context, username string) ([]models.CallLogEntry, error) {
	endpoint := fmt.Sprintf("%s/get-log/%s", c.baseURL, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent %s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := readBodySnippet(resp.Body)
		return nil, fmt.Errorf("agent %s returned unexpected status %d: %s", c.name, resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent %s response: %w", c.name, err)
	}

	raw := strings.TrimSpace(string(body))
	if raw == "" {
		c.log.Debug().Str("username", username).Msg("Agent returned empty body")
		return nil, nil
	}

	return c.decode(raw), nil
}

// decode interprets a non-empty response body. A valid JSON document is read
// through the {"logs": [...]} envelope; anything else goes through the
// plain-text transcript parser.
func (c *Client) decode(raw string) []models.CallLogEntry {
	if !json.Valid([]byte(raw)) {
		entries := c.parser.Parse(raw)
		metrics.LogsFetched.WithLabelValues(c.name, "text").Add(float64(len(entries)))
		return entries
	}

	var envelope struct {
		Logs json.RawMessage `json:"logs"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil || len(envelope.Logs) == 0 {
		return nil
	}

	var payload []models.AgentLogEntry
	if err := json.Unmarshal(envelope.Logs, &payload); err != nil {
		// logs present but not an array of records
		c.log.Warn().Err(err).Msg("Agent logs field is not a record array")
		return nil
	}

	now := time.Now()
	entries := make([]models.CallLogEntry, 0, len(payload))
	for i := range payload {
		entries = append(entries, payload[i].Normalize(now))
	}
	metrics.LogsFetched.WithLabelValues(c.name, "json").Add(float64(len(entries)))
	return entries
}

// readBodySnippet reads a bounded prefix of an error response body for log
// messages. Failures reading the body are not themselves interesting.
func readBodySnippet(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	if err != nil {
		return "(unreadable body)"
	}
	return strings.TrimSpace(string(data))
}
