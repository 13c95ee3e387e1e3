package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vango-go/voicegate/pkg/core"
)

type errorBody struct {
	Type      string `json:"type"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
	Param     string `json:"param,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeErrorJSON(w http.ResponseWriter, status int, reqID string, err error) {
	body := errorBody{Type: string(core.ErrEngine), Message: "internal error", RequestID: reqID}
	var ce *core.Error
	if errors.As(err, &ce) {
		body.Type = string(ce.Type)
		body.Code = ce.Code
		body.Message = ce.Message
		body.Param = ce.Param
	} else if err != nil {
		body.Message = err.Error()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: body})
}

// statusForTurnError maps a failed turn to an HTTP status for the non-live
// endpoint. Malformed input is the caller's fault; every turn-level failure
// is reported as 500 with the structured error body carrying the code.
func statusForTurnError(err error) int {
	switch core.CodeOf(err) {
	case core.CodeMalformedMessage, core.CodeUnsupportedFormat, core.CodeEmptyAudio:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
