// Package sessions tracks active live sessions for capacity limits and
// graceful drain at shutdown.
package sessions

import (
	"context"
	"errors"
	"sync"
)

// ErrCapacity is returned when the tracker is at its concurrent-session cap.
var ErrCapacity = errors.New("session capacity reached")

// Handle exposes the operations the tracker needs over a session without
// holding the session itself.
type Handle struct {
	Cancel func()
	Warn   func(code, message string) error
}

// Tracker registers running sessions. MaxSessions <= 0 disables the cap.
type Tracker struct {
	maxSessions int

	mu       sync.Mutex
	sessions map[string]*entry
	wg       sync.WaitGroup
}

type entry struct {
	handle Handle
	once   sync.Once
}

func NewTracker(maxSessions int) *Tracker {
	return &Tracker{
		maxSessions: maxSessions,
		sessions:    make(map[string]*entry),
	}
}

// Register admits a session. It fails with ErrCapacity at the cap; otherwise
// the caller must invoke the returned function when the session ends.
func (t *Tracker) Register(sessionID string, h Handle) (unregister func(), err error) {
	if t == nil {
		return func() {}, nil
	}

	e := &entry{handle: h}

	t.mu.Lock()
	if t.maxSessions > 0 && len(t.sessions) >= t.maxSessions {
		if _, exists := t.sessions[sessionID]; !exists {
			t.mu.Unlock()
			return nil, ErrCapacity
		}
	}
	old := t.sessions[sessionID]
	t.sessions[sessionID] = e
	t.wg.Add(1)
	t.mu.Unlock()

	if old != nil {
		t.release(sessionID, old)
	}

	return func() { t.release(sessionID, e) }, nil
}

func (t *Tracker) release(sessionID string, e *entry) {
	if t == nil || e == nil {
		return
	}
	e.once.Do(func() {
		t.mu.Lock()
		if t.sessions[sessionID] == e {
			delete(t.sessions, sessionID)
		}
		t.mu.Unlock()
		t.wg.Done()
	})
}

// Count returns the number of registered sessions.
func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// WarnAll pushes an advisory frame to every session, outside the lock.
func (t *Tracker) WarnAll(code, message string) (sent int) {
	for _, h := range t.snapshot() {
		if h.Warn == nil {
			continue
		}
		_ = h.Warn(code, message)
		sent++
	}
	return sent
}

// CancelAll tears down every remaining session.
func (t *Tracker) CancelAll() (canceled int) {
	for _, h := range t.snapshot() {
		if h.Cancel == nil {
			continue
		}
		h.Cancel()
		canceled++
	}
	return canceled
}

func (t *Tracker) snapshot() []Handle {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Handle, 0, len(t.sessions))
	for _, e := range t.sessions {
		if e != nil {
			out = append(out, e.handle)
		}
	}
	return out
}

// Wait blocks until every registered session has unregistered or ctx
// expires, reporting whether the drain completed.
func (t *Tracker) Wait(ctx context.Context) bool {
	if t == nil {
		return true
	}
	if ctx == nil {
		t.wg.Wait()
		return true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
