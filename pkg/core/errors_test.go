package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Type:    ErrInvalidRequest,
		Message: "truncated frame",
	}

	expected := "invalid_request_error: truncated frame"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestError_WithCode(t *testing.T) {
	err := NewEmptyAudioError()

	expected := "audio_error: audio payload decoded to zero samples (code: empty_audio)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewUnsupportedFormatError(t *testing.T) {
	err := NewUnsupportedFormatError("webm")
	if err.Type != ErrAudio {
		t.Errorf("Type = %v, want %v", err.Type, ErrAudio)
	}
	if err.Code != CodeUnsupportedFormat {
		t.Errorf("Code = %q, want %q", err.Code, CodeUnsupportedFormat)
	}
	if err.Message != `unsupported audio format "webm"` {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewUnknownToolError(t *testing.T) {
	err := NewUnknownToolError("get_stock_price")
	if err.Code != CodeUnknownTool {
		t.Errorf("Code = %q, want %q", err.Code, CodeUnknownTool)
	}
	if err.Param != "name" {
		t.Errorf("Param = %q, want %q", err.Param, "name")
	}
}

func TestEngineErrors_Unwrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := NewEngineUnavailableError(cause)

	if err.Code != CodeEngineUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, CodeEngineUnavailable)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"typed", NewEngineTimeoutError(nil), CodeEngineTimeout},
		{"wrapped", fmt.Errorf("turn 3: %w", NewSynthesisFailedError(errors.New("503"))), CodeSynthesisFailed},
		{"plain", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}
