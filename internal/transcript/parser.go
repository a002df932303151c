// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

// Package transcript parses the delimited plain-text transcript export that
// older agent servers return instead of JSON.
//
// The format is a sequence of sections separated by a line of dashes. Each
// section is one recorded exchange:
//
//	[2026-01-15 09:30:00]
//	CallSid: CA1234
//	From Number: +15550001111
//	To Number: +15550002222
//	User Speech: I need to reschedule
//	Detected Intent: reschedule_appointment
//	Bot Response: Sure, what day works for you?
//	--------------------------------------------------
//
// Unrecognized keys are ignored. A section yields a record only if it has a
// CallSid and at least one of user speech or bot response. After parsing,
// per-call durations are reconciled across sections sharing a CallSid.
package transcript

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/callograph/internal/models"
)

var (
	// sectionDelimiter matches a delimiter line: a run of at least ten dashes.
	sectionDelimiter = regexp.MustCompile(`(?m)^-{10,}\s*$`)

	// timestampLine matches a bracketed section timestamp, e.g.
	// [2026-01-15 09:30:00].
	timestampLine = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]$`)
)

// sectionTimestampLayout is the layout inside the bracketed timestamp line.
const sectionTimestampLayout = "2006-01-02 15:04:05"

// Parser converts transcript text into call-log entries.
type Parser struct {
	log zerolog.Logger
}

// NewParser creates a transcript parser logging through the given logger.
func NewParser(log zerolog.Logger) *Parser {
	return &Parser{log: log.With().Str("component", "transcript").Logger()}
}

// Parse splits raw transcript text into sections, parses each independently,
// and reconciles per-call durations. A malformed section is skipped with a
// warning; it never aborts parsing of subsequent sections.
func (p *Parser) Parse(raw string) []models.CallLogEntry {
	var entries []models.CallLogEntry

	for _, section := range sectionDelimiter.Split(raw, -1) {
		if strings.TrimSpace(section) == "" {
			continue
		}
		entry, err := p.parseSection(section)
		if err != nil {
			p.log.Warn().Err(err).Msg("Skipping malformed transcript section")
			continue
		}
		if entry.CallSid == "" || !entry.HasContent() {
			continue
		}
		entries = append(entries, entry)
	}

	ReconcileDurations(entries)
	return entries
}

// parseSection parses the lines of one section. Lines are independent: a
// bracketed timestamp line sets the entry timestamp, a "Key: Value" line maps
// a recognized key to its field, anything else is ignored.
func (p *Parser) parseSection(section string) (models.CallLogEntry, error) {
	entry := models.CallLogEntry{Status: models.DefaultCallStatus}

	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := timestampLine.FindStringSubmatch(line); m != nil {
			ts, err := time.Parse(sectionTimestampLayout, m[1])
			if err != nil {
				return models.CallLogEntry{}, err
			}
			entry.Timestamp = ts.UTC()
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		// Only the first colon separates key from value; the value may
		// itself contain colons.
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "CallSid":
			entry.CallSid = value
		case "From Number":
			entry.PhoneNumber = value
		case "To Number":
			entry.ToNumber = value
		case "User Speech":
			entry.UserSaid = value
		case "Detected Intent":
			entry.Intent = value
		case "Bot Response":
			entry.BotResponse = value
		}
	}

	return entry, nil
}

// ReconcileDurations groups entries by CallSid and sets each group's duration
// to the whole-second span between its earliest and latest timestamps.
// Duration is a per-call attribute, not per-turn: every entry in a group gets
// the same value. Single-entry groups get 0.
func ReconcileDurations(entries []models.CallLogEntry) {
	groups := make(map[string][]int)
	for i := range entries {
		sid := entries[i].CallSid
		groups[sid] = append(groups[sid], i)
	}

	for _, idxs := range groups {
		if len(idxs) < 2 {
			for _, i := range idxs {
				entries[i].Duration = 0
			}
			continue
		}

		sort.Slice(idxs, func(a, b int) bool {
			return entries[idxs[a]].Timestamp.Before(entries[idxs[b]].Timestamp)
		})

		first := entries[idxs[0]].Timestamp
		last := entries[idxs[len(idxs)-1]].Timestamp
		duration := int(last.Sub(first).Round(time.Second) / time.Second)

		for _, i := range idxs {
			entries[i].Duration = duration
		}
	}
}
