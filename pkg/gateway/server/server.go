// Package server wires the HTTP surface: routes, middleware, and the live
// session tracker used for graceful drain.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/vango-go/voicegate/pkg/gateway/config"
	"github.com/vango-go/voicegate/pkg/gateway/handlers"
	"github.com/vango-go/voicegate/pkg/gateway/live/session"
	"github.com/vango-go/voicegate/pkg/gateway/live/sessions"
	"github.com/vango-go/voicegate/pkg/gateway/mw"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	runner       session.TurnRunner
	liveSessions *sessions.Tracker
	draining     atomic.Bool
}

func New(cfg config.Config, logger *slog.Logger, runner session.TurnRunner) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:          cfg,
		logger:       logger,
		mux:          http.NewServeMux(),
		runner:       runner,
		liveSessions: sessions.NewTracker(cfg.LiveMaxSessions),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg})

	s.mux.Handle("/chat", handlers.ChatHandler{
		Config: s.cfg,
		Logger: s.logger,
		Runner: s.runner,
	})
	s.mux.Handle("/ws/live", handlers.LiveHandler{
		Config:       s.cfg,
		Logger:       s.logger,
		Runner:       s.runner,
		LiveSessions: s.liveSessions,
		Draining:     s.draining.Load,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// SetDraining flips the drain flag. While set, /ws/live refuses new sessions.
func (s *Server) SetDraining(v bool) {
	s.draining.Store(v)
}

// WarnLiveSessions pushes a warning frame to every active live session.
func (s *Server) WarnLiveSessions(code, message string) int {
	return s.liveSessions.WarnAll(code, message)
}

// WaitLiveSessions blocks until every live session has unregistered or ctx
// expires. It reports whether the tracker drained in time.
func (s *Server) WaitLiveSessions(ctx context.Context) bool {
	return s.liveSessions.Wait(ctx)
}

// CancelLiveSessions force-cancels every active live session.
func (s *Server) CancelLiveSessions() int {
	return s.liveSessions.CancelAll()
}

// LiveSessionCount reports the number of registered live sessions.
func (s *Server) LiveSessionCount() int {
	return s.liveSessions.Count()
}
