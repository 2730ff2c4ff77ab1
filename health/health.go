// Package health serves the liveness endpoint the container platform polls.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/xeptore/musicflow/config"
	"github.com/xeptore/musicflow/constant"
)

type Server struct {
	srv       *http.Server
	logger    zerolog.Logger
	startedAt time.Time
}

func NewServer(logger zerolog.Logger, conf config.Health) *Server {
	s := &Server{
		srv:       nil,
		logger:    logger,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleStatus)

	s.srv = &http.Server{ //nolint:exhaustruct
		Addr:              conf.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body := struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Uptime  string `json:"uptime"`
	}{
		Status:  "ok",
		Version: constant.Version,
		Uptime:  time.Since(s.startedAt).Round(time.Second).String(),
	}
	if err := json.NewEncoder(w).Encode(body); nil != err {
		s.logger.Error().Err(err).Msg("Failed to encode health response")
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.srv.Handler.ServeHTTP(w, r)
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); nil != err && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve health endpoint: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); nil != err {
		return fmt.Errorf("failed to shut down health server: %w", err)
	}

	return nil
}
