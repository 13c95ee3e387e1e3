package core

import (
	"errors"
	"fmt"
)

// Error is the typed error carried across package boundaries. Code is the
// stable machine-readable identifier surfaced on the wire; Message is
// human-readable detail.
type Error struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Param   string    `json:"param,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes errors by which stage of a turn produced them.
type ErrorType string

const (
	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrAudio          ErrorType = "audio_error"
	ErrTool           ErrorType = "tool_error"
	ErrEngine         ErrorType = "engine_error"
	ErrSynthesis      ErrorType = "synthesis_error"
)

// Stable error codes surfaced in wire error frames.
const (
	CodeMalformedMessage      = "malformed_message"
	CodeUnsupportedFormat     = "unsupported_format"
	CodeEmptyAudio            = "empty_audio"
	CodeUnknownTool           = "unknown_tool"
	CodeToolLoopLimitExceeded = "tool_loop_limit_exceeded"
	CodeEngineUnavailable     = "engine_unavailable"
	CodeEngineTimeout         = "engine_timeout"
	CodeSynthesisFailed       = "synthesis_failed"
)

// NewMalformedMessageError reports an inbound frame that could not be decoded.
func NewMalformedMessageError(message string) *Error {
	return &Error{Type: ErrInvalidRequest, Code: CodeMalformedMessage, Message: message}
}

// NewUnsupportedFormatError reports an audio container the normalizer cannot decode.
func NewUnsupportedFormatError(format string) *Error {
	return &Error{
		Type:    ErrAudio,
		Code:    CodeUnsupportedFormat,
		Message: fmt.Sprintf("unsupported audio format %q", format),
		Param:   "format",
	}
}

// NewEmptyAudioError reports a payload that decoded to zero samples.
func NewEmptyAudioError() *Error {
	return &Error{Type: ErrAudio, Code: CodeEmptyAudio, Message: "audio payload decoded to zero samples"}
}

// NewUnknownToolError reports a tool name absent from the registry.
func NewUnknownToolError(name string) *Error {
	return &Error{
		Type:    ErrTool,
		Code:    CodeUnknownTool,
		Message: fmt.Sprintf("unknown tool %q", name),
		Param:   "name",
	}
}

// NewToolLoopLimitError reports an engine that requested a second tool
// round-trip within one turn.
func NewToolLoopLimitError(name string) *Error {
	return &Error{
		Type:    ErrTool,
		Code:    CodeToolLoopLimitExceeded,
		Message: fmt.Sprintf("engine requested tool %q after its tool round-trip was spent", name),
	}
}

// NewEngineUnavailableError wraps a transport or provider failure from the
// reasoning engine.
func NewEngineUnavailableError(cause error) *Error {
	return &Error{
		Type:    ErrEngine,
		Code:    CodeEngineUnavailable,
		Message: fmt.Sprintf("reasoning engine unavailable: %v", cause),
		Cause:   cause,
	}
}

// NewEngineTimeoutError reports an engine call that exceeded its deadline.
func NewEngineTimeoutError(cause error) *Error {
	return &Error{
		Type:    ErrEngine,
		Code:    CodeEngineTimeout,
		Message: "reasoning engine timed out",
		Cause:   cause,
	}
}

// NewSynthesisFailedError wraps a speech synthesis failure.
func NewSynthesisFailedError(cause error) *Error {
	return &Error{
		Type:    ErrSynthesis,
		Code:    CodeSynthesisFailed,
		Message: fmt.Sprintf("speech synthesis failed: %v", cause),
		Cause:   cause,
	}
}

// CodeOf extracts the stable code from err, or "" when err carries none.
func CodeOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
