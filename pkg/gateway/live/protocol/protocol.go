// Package protocol defines the live websocket wire frames and their decode
// rules.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Frame type discriminators.
const (
	TypeText     = "text"
	TypeAudio    = "audio"
	TypeResponse = "response"
	TypeError    = "error"
	TypeWarning  = "warning"
)

// Decode error codes. CodeUnknownType marks frames the session drops with a
// logged warning instead of answering.
const (
	CodeMalformedMessage = "malformed_message"
	CodeUnknownType      = "unknown_type"
)

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func malformed(message, param string) *DecodeError {
	return &DecodeError{Code: CodeMalformedMessage, Message: message, Param: param}
}

// ClientText is a typed text utterance.
type ClientText struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// ClientAudio is a spoken utterance. Data is base64; Format defaults to wav.
// SampleRateHz and Channels frame raw PCM payloads and are ignored for
// self-describing containers.
type ClientAudio struct {
	Type         string `json:"type"`
	Data         string `json:"data"`
	Format       string `json:"format,omitempty"`
	SampleRateHz int    `json:"sample_rate_hz,omitempty"`
	Channels     int    `json:"channels,omitempty"`

	// Payload is the decoded Data, populated during decode.
	Payload []byte `json:"-"`
}

// DecodeClientMessage parses one inbound frame. Malformed frames return a
// DecodeError with CodeMalformedMessage; structurally valid frames of an
// unrecognized type return CodeUnknownType.
func DecodeClientMessage(data []byte) (any, *DecodeError) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, malformed("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, malformed("missing type", "type")
	}

	switch typ {
	case TypeText:
		var msg ClientText
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, malformed("invalid text frame", "")
		}
		if strings.TrimSpace(msg.Data) == "" {
			return nil, malformed("text.data is required", "data")
		}
		return msg, nil
	case TypeAudio:
		var msg ClientAudio
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, malformed("invalid audio frame", "")
		}
		if strings.TrimSpace(msg.Data) == "" {
			return nil, malformed("audio.data is required", "data")
		}
		payload, err := base64.StdEncoding.DecodeString(msg.Data)
		if err != nil {
			return nil, malformed("audio.data is not valid base64", "data")
		}
		msg.Payload = payload
		return msg, nil
	default:
		return nil, &DecodeError{Code: CodeUnknownType, Message: fmt.Sprintf("unknown frame type %q", typ), Param: "type"}
	}
}

// ServerResponse is the per-turn answer frame. Audio is base64 WAV; it is
// empty and SynthesisDegraded set when synthesis failed.
type ServerResponse struct {
	Type              string `json:"type"`
	Text              string `json:"text"`
	Audio             string `json:"audio"`
	SynthesisDegraded bool   `json:"synthesis_degraded,omitempty"`
}

// NewServerResponse builds a response frame from turn output.
func NewServerResponse(text string, audio []byte, degraded bool) ServerResponse {
	return ServerResponse{
		Type:              TypeResponse,
		Text:              text,
		Audio:             base64.StdEncoding.EncodeToString(audio),
		SynthesisDegraded: degraded,
	}
}

// ServerError reports a failed turn. The session stays open.
type ServerError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServerError builds an error frame.
func NewServerError(code, message string) ServerError {
	return ServerError{Type: TypeError, Code: code, Message: message}
}

// ServerWarning is an advisory frame, e.g. a drain notice before shutdown.
type ServerWarning struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServerWarning builds a warning frame.
func NewServerWarning(code, message string) ServerWarning {
	return ServerWarning{Type: TypeWarning, Code: code, Message: message}
}
