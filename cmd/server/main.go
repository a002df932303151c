// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

// Callograph polls agent servers for call logs, deduplicates them by content
// hash, persists them to DuckDB, and serves them over a REST API.
//
// Startup order:
//  1. Configuration (defaults, YAML file, environment)
//  2. Logging
//  3. DuckDB store and schema
//  4. Pipeline wiring (fetcher, orchestrator)
//  5. Supervision tree (sync scheduler + HTTP server)
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/callograph/internal/agent"
	"github.com/tomtom215/callograph/internal/api"
	"github.com/tomtom215/callograph/internal/config"
	"github.com/tomtom215/callograph/internal/ingest"
	"github.com/tomtom215/callograph/internal/logging"
	"github.com/tomtom215/callograph/internal/scheduler"
	"github.com/tomtom215/callograph/internal/store"
	"github.com/tomtom215/callograph/internal/supervisor"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	log := logging.Logger()

	log.Info().
		Str("version", version).
		Int("agents", len(cfg.Agents)).
		Msg("Starting Callograph")

	if len(cfg.Agents) == 0 {
		log.Warn().Msg("No agent servers configured, syncs will find nothing")
	}

	db, err := store.Open(cfg.Database, log)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	fetcher := agent.NewFetcher(cfg.Agents, cfg.Sync.HTTPTimeout, log)
	orchestrator := ingest.NewOrchestrator(db, fetcher, cfg.Sync.UserDelay, log)

	handler := api.NewHandler(orchestrator, db, log)
	router := api.NewRouter(handler, cfg.Server, log)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddIngestService(scheduler.New(orchestrator, cfg.Sync, log))
	tree.AddAPIService(api.NewServer(router, cfg.Server, log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Supervisor tree exited with error")
		stop()
		os.Exit(1)
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			log.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	log.Info().Msg("Shutdown complete")
}
