// Package engine defines the reasoning engine boundary: one request per
// turn, answered either with a reply or with a single tool request.
package engine

import (
	"context"

	"github.com/vango-go/voicegate/pkg/tools"
)

// Utterance is normalized user input for one turn. Exactly one of Text or
// Audio is set; Audio is 16-bit signed PCM, mono, 16 kHz.
type Utterance struct {
	Text  string
	Audio []byte
}

// IsAudio reports whether the utterance carries audio rather than text.
func (u Utterance) IsAudio() bool { return len(u.Audio) > 0 }

// ToolExchange records the single tool round-trip of a turn: the call the
// engine requested and the result that came back.
type ToolExchange struct {
	Call   ToolCall
	Result tools.Result
}

// Request is one engine invocation. Exchange is nil on the first invocation
// of a turn and set on the follow-up after a tool ran.
type Request struct {
	Utterance Utterance
	Catalog   []tools.Definition
	Exchange  *ToolExchange
}

// Outcome is what an engine invocation produced. Implementations are Reply
// and ToolCall; callers match with a type switch.
type Outcome interface {
	outcomeVariant()
}

// Reply is a final textual answer.
type Reply struct {
	Text string
}

// ToolCall is a request to invoke a registered tool before answering.
type ToolCall struct {
	Name      string
	Arguments map[string]string
}

func (Reply) outcomeVariant()    {}
func (ToolCall) outcomeVariant() {}

// Engine produces one Outcome per invocation. Implementations must honor ctx
// cancellation; transport failures are returned as errors, not outcomes.
type Engine interface {
	Generate(ctx context.Context, req *Request) (Outcome, error)
}
