package ime

import (
	"io"
	"log/slog"
	"time"

	"imekbd/internal/eventloop"
	"imekbd/internal/seat"
)

// Session is the single live input-method instance. Requests buffer into the
// pending fields; a commit whose serial matches processes them and nothing
// else does.
type Session struct {
	manager *Manager
	client  Client
	log     *slog.Logger

	serial uint32

	pendingText   string
	pendingSet    bool
	pendingAction Action

	// keyboard is the synthetic identity that carries generated layouts and
	// emitted events.
	keyboard seat.Keyboard
	alloc    keyAllocator

	keyResetTimer *eventloop.Timer
	closed        bool
}

// Serial returns the acknowledgment token last sent to the client.
func (s *Session) Serial() uint32 {
	return s.serial
}

// SetString replaces the pending text buffer. No events are produced until
// the client commits.
func (s *Session) SetString(text string) {
	s.pendingText = text
	s.pendingSet = true
}

// SetAction replaces the pending action.
func (s *Session) SetAction(a Action) {
	s.pendingAction = a
}

// Commit processes the pending payload if serial matches the session's
// current serial; a stale or duplicate serial is silently ignored. The
// pending fields are cleared whether or not emission succeeded; a failed
// payload is not retried.
func (s *Session) Commit(serial uint32) {
	if serial != s.serial {
		return
	}

	start := time.Now()
	rec := CommitRecord{At: start, Serial: serial, Strategy: "none"}

	if s.pendingSet {
		res := s.typeText(s.pendingText)
		rec.Strategy = res.strategy
		rec.Chars = res.chars
		rec.Keys = res.keys
	}
	if s.pendingAction != ActionNone {
		rec.Action = s.pendingAction.String()
		s.performAction(s.pendingAction)
	}

	s.pendingText = ""
	s.pendingSet = false
	s.pendingAction = ActionNone

	// Clients such as XTest-based virtual keyboards rely on the keymap being
	// reset after emulated input, but resetting immediately races their
	// interpretation of the keycodes we just sent. Debounce it instead.
	s.manager.focusResetTimer.Arm(s.manager.opts.FocusResetDelay)

	if s.manager.opts.Recorder != nil {
		rec.Duration = time.Since(start)
		s.manager.opts.Recorder.RecordCommit(rec)
	}
}

// ResetKeys clears the allocated key slots immediately, as the idle timer
// would.
func (s *Session) ResetKeys() {
	s.resetKeys()
}

func (s *Session) resetKeys() {
	s.alloc.reset()
}

// Close tears down the session: the key reset timer is stopped, the
// synthetic keyboard identity is released, and the active-session marker is
// cleared so a new client may attach. Safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.keyResetTimer.Stop()
	s.manager.releaseSession(s)
	if closer, ok := s.keyboard.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	s.log.Info("input method session closed")
	return nil
}
