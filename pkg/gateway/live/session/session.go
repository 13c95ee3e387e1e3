// Package session implements the live websocket session: one connection, one
// turn in flight, frames answered in arrival order.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-go/voicegate/pkg/audio"
	"github.com/vango-go/voicegate/pkg/core"
	"github.com/vango-go/voicegate/pkg/engine"
	"github.com/vango-go/voicegate/pkg/gateway/live/protocol"
	"github.com/vango-go/voicegate/pkg/gateway/turnloop"
)

// State is the session lifecycle phase.
type State int32

const (
	StateOpen State = iota
	StateProcessingTurn
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateProcessingTurn:
		return "processing_turn"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// TurnRunner executes one conversational turn. Satisfied by
// *turnloop.Orchestrator; tests substitute fakes.
type TurnRunner interface {
	RunTurn(ctx context.Context, utterance engine.Utterance) (*turnloop.Turn, error)
}

type Config struct {
	MaxMessageBytes    int64
	PingInterval       time.Duration
	WriteTimeout       time.Duration
	ReadTimeout        time.Duration
	TurnTimeout        time.Duration
	MaxSessionDuration time.Duration
}

type Dependencies struct {
	Conn      *websocket.Conn
	Logger    *slog.Logger
	Runner    TurnRunner
	SessionID string
	Config    Config
}

// Session owns its websocket for the connection's lifetime. A read pump
// goroutine feeds the main loop; turns run strictly one at a time, so
// response frames leave in the order their requests arrived.
type Session struct {
	conn      *websocket.Conn
	logger    *slog.Logger
	runner    TurnRunner
	sessionID string
	cfg       Config

	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex
	state   atomic.Int32
	turn    atomic.Int64

	readErrMu sync.Mutex
	readErr   error
}

func New(deps Dependencies) (*Session, error) {
	if deps.Conn == nil {
		return nil, fmt.Errorf("connection is required")
	}
	if deps.Runner == nil {
		return nil, fmt.Errorf("turn runner is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		conn:      deps.Conn,
		logger:    deps.Logger.With("session_id", deps.SessionID),
		runner:    deps.Runner,
		sessionID: deps.SessionID,
		cfg:       deps.Config,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.sessionID }

// State returns the current lifecycle phase.
func (s *Session) State() State { return State(s.state.Load()) }

// Run drives the session until the client disconnects, the session duration
// expires, or the context is canceled. It always closes the connection.
func (s *Session) Run() error {
	defer s.close()

	if s.cfg.MaxMessageBytes > 0 {
		s.conn.SetReadLimit(s.cfg.MaxMessageBytes)
	}
	if s.cfg.ReadTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		})
	}

	if s.cfg.PingInterval > 0 {
		go s.pingLoop()
	}

	var sessionExpired <-chan time.Time
	if s.cfg.MaxSessionDuration > 0 {
		timer := time.NewTimer(s.cfg.MaxSessionDuration)
		defer timer.Stop()
		sessionExpired = timer.C
	}

	readCh := make(chan []byte, 16)
	go s.readLoop(readCh)

	for {
		select {
		case <-s.ctx.Done():
			if err := s.takeReadError(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return nil
				}
				return err
			}
			return s.ctx.Err()
		case <-sessionExpired:
			_ = s.sendJSON(protocol.NewServerWarning("session_expired", "maximum session duration reached"))
			return nil
		case data, ok := <-readCh:
			if !ok {
				if err := s.takeReadError(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return err
				}
				return nil
			}
			s.handleFrame(data)
		}
	}
}

// readLoop feeds inbound frames to the main loop. A read failure cancels the
// session context first so any in-flight turn is abandoned before the loop
// observes the closure.
func (s *Session) readLoop(out chan<- []byte) {
	defer close(out)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.readErrMu.Lock()
			s.readErr = err
			s.readErrMu.Unlock()
			s.cancel()
			return
		}
		select {
		case out <- data:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) takeReadError() error {
	s.readErrMu.Lock()
	defer s.readErrMu.Unlock()
	return s.readErr
}

// handleFrame decodes one inbound frame and, for well-formed utterances, runs
// a turn. Malformed and unknown frames are logged and dropped; the session
// stays open and emits nothing for them.
func (s *Session) handleFrame(data []byte) {
	msg, derr := protocol.DecodeClientMessage(data)
	if derr != nil {
		if derr.Code == protocol.CodeUnknownType {
			s.logger.Warn("dropping frame of unknown type", "error", derr.Message)
		} else {
			s.logger.Warn("dropping malformed frame", "error", derr.Error())
		}
		return
	}

	var utterance engine.Utterance
	switch m := msg.(type) {
	case protocol.ClientText:
		utterance = engine.Utterance{Text: m.Data}
	case protocol.ClientAudio:
		pcm, err := audio.Normalize(m.Payload, m.Format, audio.Params{
			SampleRateHz: m.SampleRateHz,
			Channels:     m.Channels,
		})
		if err != nil {
			s.logger.Warn("audio normalization failed", "error", err)
			s.sendTurnError(err)
			return
		}
		utterance = engine.Utterance{Audio: pcm}
	default:
		s.logger.Warn("dropping frame with unhandled decoded type", "frame_type", fmt.Sprintf("%T", msg))
		return
	}

	s.runTurn(utterance)
}

func (s *Session) runTurn(utterance engine.Utterance) {
	turn := s.turn.Add(1)
	s.state.Store(int32(StateProcessingTurn))
	defer s.state.CompareAndSwap(int32(StateProcessingTurn), int32(StateOpen))

	ctx := s.ctx
	if s.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, s.cfg.TurnTimeout)
		defer cancel()
	}

	started := time.Now()
	result, err := s.runner.RunTurn(ctx, utterance)
	if err != nil {
		if s.ctx.Err() != nil {
			// Session torn down mid-turn. Nothing may be written.
			return
		}
		s.logger.Warn("turn failed", "turn", turn, "error", err)
		s.sendTurnError(err)
		return
	}

	s.logger.Info("turn complete",
		"turn", turn,
		"duration_ms", time.Since(started).Milliseconds(),
		"audio_bytes", len(result.Audio),
		"degraded", result.Degraded,
	)
	if err := s.sendJSON(protocol.NewServerResponse(result.Text, result.Audio, result.Degraded)); err != nil {
		s.logger.Warn("failed to write response frame", "turn", turn, "error", err)
	}
}

// sendTurnError surfaces a failed turn on the wire without closing the
// session.
func (s *Session) sendTurnError(err error) {
	code := core.CodeOf(err)
	message := err.Error()
	var ce *core.Error
	if errors.As(err, &ce) {
		message = ce.Message
	}
	if code == "" {
		code = core.CodeEngineUnavailable
	}
	if werr := s.sendJSON(protocol.NewServerError(code, message)); werr != nil {
		s.logger.Warn("failed to write error frame", "error", werr)
	}
}

func (s *Session) sendJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if s.ctx.Err() != nil || s.State() == StateClosed {
		return fmt.Errorf("session is closed")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.cfg.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *Session) pingLoop() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.writeMu.Lock()
			deadline := time.Now().Add(10 * time.Second)
			if s.cfg.WriteTimeout > 0 {
				deadline = time.Now().Add(s.cfg.WriteTimeout)
			}
			err := s.conn.WriteControl(websocket.PingMessage, nil, deadline)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *Session) close() {
	s.state.Store(int32(StateClosed))
	s.cancel()
	_ = s.conn.Close()
}

// Cancel tears the session down from outside, e.g. at shutdown.
func (s *Session) Cancel() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
}

// SendWarning pushes an advisory frame, e.g. a drain notice.
func (s *Session) SendWarning(code, message string) error {
	if s == nil {
		return nil
	}
	return s.sendJSON(protocol.NewServerWarning(code, message))
}
