package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vango-go/voicegate/pkg/gateway/config"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config config.Config
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK          bool     `json:"ok"`
		EngineModel string   `json:"engine_model"`
		Issues      []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	if err := h.Config.Validate(); err != nil {
		issues = append(issues, err.Error())
	}
	if h.Config.MaxBodyBytes <= 0 {
		issues = append(issues, "max_body_bytes must be > 0")
	}
	if h.Config.LiveMaxMessageBytes <= 0 {
		issues = append(issues, "live_max_message_bytes must be > 0")
	}
	if h.Config.LiveTurnTimeout < 0 {
		issues = append(issues, "live_turn_timeout must be >= 0")
	}
	if h.Config.LiveMaxSessionDuration <= 0 {
		issues = append(issues, "live_max_duration must be > 0")
	}
	if h.Config.ReadHeaderTimeout <= 0 || h.Config.HandlerTimeout <= 0 {
		issues = append(issues, "timeouts must be > 0")
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:          ok,
		EngineModel: h.Config.GeminiModel,
		Issues:      issues,
	})
}
