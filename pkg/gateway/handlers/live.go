package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-go/voicegate/pkg/core"
	"github.com/vango-go/voicegate/pkg/gateway/config"
	"github.com/vango-go/voicegate/pkg/gateway/live/protocol"
	"github.com/vango-go/voicegate/pkg/gateway/live/session"
	"github.com/vango-go/voicegate/pkg/gateway/live/sessions"
	"github.com/vango-go/voicegate/pkg/gateway/mw"
)

// LiveHandler upgrades /ws/live requests and drives a websocket session per
// connection.
type LiveHandler struct {
	Config       config.Config
	Logger       *slog.Logger
	Runner       session.TurnRunner
	LiveSessions *sessions.Tracker

	// Draining reports whether the gateway is shutting down. New sessions are
	// refused while it returns true.
	Draining func() bool
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, reqID, &core.Error{
			Type:    core.ErrInvalidRequest,
			Code:    "method_not_allowed",
			Message: "method not allowed",
		})
		return
	}
	if h.Draining != nil && h.Draining() {
		writeErrorJSON(w, http.StatusServiceUnavailable, reqID, &core.Error{
			Type:    core.ErrInvalidRequest,
			Code:    "draining",
			Message: "gateway is draining",
		})
		return
	}
	if !h.originAllowed(r) {
		writeErrorJSON(w, http.StatusForbidden, reqID, &core.Error{
			Type:    core.ErrInvalidRequest,
			Code:    "origin_not_allowed",
			Message: "origin is not allowed",
			Param:   "Origin",
		})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sessionID := "s_" + uuid.NewString()

	s, err := session.New(session.Dependencies{
		Conn:      conn,
		Logger:    h.Logger,
		Runner:    h.Runner,
		SessionID: sessionID,
		Config: session.Config{
			MaxMessageBytes:    h.Config.LiveMaxMessageBytes,
			PingInterval:       h.Config.LiveWSPingInterval,
			WriteTimeout:       h.Config.LiveWSWriteTimeout,
			ReadTimeout:        h.Config.LiveWSReadTimeout,
			TurnTimeout:        h.Config.LiveTurnTimeout,
			MaxSessionDuration: h.Config.LiveMaxSessionDuration,
		},
	})
	if err != nil {
		h.writeWSError(conn, "internal", "failed to initialize live session")
		return
	}

	unregister := func() {}
	if h.LiveSessions != nil {
		unregister, err = h.LiveSessions.Register(sessionID, sessions.Handle{
			Cancel: s.Cancel,
			Warn:   s.SendWarning,
		})
		if err != nil {
			h.writeWSError(conn, "capacity_exceeded", "too many active live sessions")
			return
		}
	}
	defer unregister()

	if err := s.Run(); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("live session ended with error", "session_id", sessionID, "request_id", reqID, "error", err)
		}
	}
}

func (h LiveHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if len(h.Config.CORSAllowedOrigins) == 0 {
		return false
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}

func (h LiveHandler) writeWSError(conn *websocket.Conn, code, message string) {
	_ = conn.WriteJSON(protocol.NewServerError(code, message))
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message), time.Now().Add(2*time.Second))
}
