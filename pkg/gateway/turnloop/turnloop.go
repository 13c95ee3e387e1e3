// Package turnloop drives one conversational turn: utterance in, reply out,
// with at most one tool round-trip in between.
package turnloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-go/voicegate/pkg/core"
	"github.com/vango-go/voicegate/pkg/engine"
	"github.com/vango-go/voicegate/pkg/tools"
	"github.com/vango-go/voicegate/pkg/voice/tts"
)

// Turn is the outcome of a completed turn. Audio is empty and Degraded true
// when synthesis failed but the reply text survived.
type Turn struct {
	Text     string
	Audio    []byte
	Degraded bool
}

// Orchestrator runs turns against an engine, a tool registry, and a
// synthesizer. Zero-value timeouts disable the corresponding deadline.
type Orchestrator struct {
	Engine        engine.Engine
	Tools         *tools.Registry
	Synth         tts.Synthesizer
	Logger        *slog.Logger
	EngineTimeout time.Duration
	SynthTimeout  time.Duration
}

// RunTurn executes one turn. The engine gets at most two invocations: the
// initial one, and one follow-up carrying a tool result. A second tool
// request fails the turn with tool_loop_limit_exceeded.
func (o *Orchestrator) RunTurn(ctx context.Context, utterance engine.Utterance) (*Turn, error) {
	if o == nil || o.Engine == nil {
		return nil, fmt.Errorf("turnloop: engine is required")
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	req := &engine.Request{
		Utterance: utterance,
		Catalog:   o.Tools.Catalog(),
	}

	outcome, err := o.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if call, ok := outcome.(engine.ToolCall); ok {
		result, err := o.Tools.Invoke(ctx, call.Name, call.Arguments)
		if err != nil {
			return nil, err
		}
		if result.Status == tools.StatusError {
			logger.Warn("tool returned error result", "tool", call.Name, "error", result.ErrorMessage)
		}

		req.Exchange = &engine.ToolExchange{Call: call, Result: result}
		outcome, err = o.generate(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	reply, ok := outcome.(engine.Reply)
	if !ok {
		if call, isCall := outcome.(engine.ToolCall); isCall {
			return nil, core.NewToolLoopLimitError(call.Name)
		}
		return nil, core.NewEngineUnavailableError(fmt.Errorf("unexpected outcome %T", outcome))
	}

	turn := &Turn{Text: reply.Text}
	if o.Synth == nil {
		turn.Degraded = true
		return turn, nil
	}

	audio, err := o.synthesize(ctx, reply.Text)
	if err != nil {
		// A reasoned answer is never dropped because its audio rendering
		// failed. The caller flags the envelope instead.
		logger.Warn("synthesis failed, degrading turn", "error", err)
		turn.Degraded = true
		return turn, nil
	}
	turn.Audio = audio
	return turn, nil
}

// generate invokes the engine under its deadline and maps failures to the
// engine error taxonomy.
func (o *Orchestrator) generate(ctx context.Context, req *engine.Request) (engine.Outcome, error) {
	callCtx := ctx
	if o.EngineTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.EngineTimeout)
		defer cancel()
	}

	outcome, err := o.Engine.Generate(callCtx, req)
	if err != nil {
		// Session teardown, not an engine fault. Let the caller see the
		// cancellation directly.
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, core.NewEngineTimeoutError(err)
		}
		var ce *core.Error
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, core.NewEngineUnavailableError(err)
	}
	return outcome, nil
}

func (o *Orchestrator) synthesize(ctx context.Context, text string) ([]byte, error) {
	callCtx := ctx
	if o.SynthTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.SynthTimeout)
		defer cancel()
	}

	audio, err := o.Synth.Synthesize(callCtx, text)
	if err != nil {
		return nil, core.NewSynthesisFailedError(err)
	}
	return audio, nil
}
