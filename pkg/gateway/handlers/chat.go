package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vango-go/voicegate/pkg/core"
	"github.com/vango-go/voicegate/pkg/engine"
	"github.com/vango-go/voicegate/pkg/gateway/config"
	"github.com/vango-go/voicegate/pkg/gateway/live/session"
	"github.com/vango-go/voicegate/pkg/gateway/mw"
)

// ChatHandler serves one-shot text turns over plain HTTP. It runs the same
// turn pipeline as the live websocket endpoint.
type ChatHandler struct {
	Config config.Config
	Logger *slog.Logger
	Runner session.TurnRunner
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response          string `json:"response"`
	Audio             string `json:"audio"`
	SynthesisDegraded bool   `json:"synthesis_degraded,omitempty"`
}

func (h ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, reqID, &core.Error{
			Type:    core.ErrInvalidRequest,
			Code:    "method_not_allowed",
			Message: "method not allowed",
		})
		return
	}

	if h.Config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxBodyBytes)
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, reqID, core.NewMalformedMessageError("invalid json body"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeErrorJSON(w, http.StatusBadRequest, reqID, core.NewMalformedMessageError("message is required"))
		return
	}

	// Request-scoped timeout covering the whole turn.
	ctx := r.Context()
	if h.Config.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Config.HandlerTimeout)
		defer cancel()
	}

	turn, err := h.Runner.RunTurn(ctx, engine.Utterance{Text: req.Message})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("chat turn failed", "request_id", reqID, "error", err)
		}
		writeErrorJSON(w, statusForTurnError(err), reqID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(chatResponse{
		Response:          turn.Text,
		Audio:             base64.StdEncoding.EncodeToString(turn.Audio),
		SynthesisDegraded: turn.Degraded,
	})
}
