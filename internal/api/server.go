// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/callograph/internal/config"
)

// shutdownGrace bounds how long in-flight requests get to finish once the
// supervisor cancels the service context.
const shutdownGrace = 10 * time.Second

// Server runs the HTTP API as a supervised service.
type Server struct {
	cfg     config.ServerConfig
	handler http.Handler
	log     zerolog.Logger
}

// NewServer wraps a router as a suture service.
func NewServer(handler http.Handler, cfg config.ServerConfig, log zerolog.Logger) *Server {
	return &Server{cfg: cfg, handler: handler, log: log}
}

// Serve implements suture.Service: it runs the HTTP server until the context
// is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		// WriteTimeout stays above the per-request middleware timeout so the
		// middleware produces the 503, not a dropped connection.
		WriteTimeout: s.cfg.Timeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("HTTP server shutdown incomplete, closing")
		_ = srv.Close()
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor log messages.
func (s *Server) String() string {
	return "http-server"
}
