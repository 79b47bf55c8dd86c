// Package ime implements software input-method keyboard emulation.
//
// A client commits text and editing actions over the session protocol; the
// manager's single active session turns those into key press/release events
// that arbitrary downstream clients can interpret, including legacy clients
// that only trust raw evdev keycodes. Arbitrary Unicode is bridged onto a
// small keycode catalogue by regenerating the keyboard layout on the fly.
//
// Everything in this package runs on the event loop; nothing here locks.
package ime

import (
	"errors"
	"log/slog"
	"time"

	"imekbd/internal/eventloop"
	"imekbd/internal/seat"
	"imekbd/internal/xkb"
)

// ErrSessionActive is returned when a client tries to create a session while
// another one is live. The rejected client has already been sent the
// unavailable notice.
var ErrSessionActive = errors.New("ime: an input method session is already active")

// Client is the protocol-side handle for notices the core sends back.
type Client interface {
	// Done acknowledges the session with its current serial.
	Done(serial uint32)

	// Unavailable tells the client no session can be created for it.
	Unavailable()
}

// Recorder receives a record per processed commit. Implementations must not
// block; they are called on the event loop.
type Recorder interface {
	RecordCommit(CommitRecord)
}

// CommitRecord summarizes one processed commit. It carries counts and
// strategy, never the committed text.
type CommitRecord struct {
	At       time.Time
	Serial   uint32
	Strategy string
	Chars    int
	Keys     int
	Action   string
	Duration time.Duration
}

// Options configures a Manager. Seat, DefaultKeyboard, NewKeyboard, Compiler
// and Loop are required.
type Options struct {
	// Seat delivers synthesized events to focused clients.
	Seat seat.Seat

	// DefaultKeyboard is the compositor's own virtual keyboard, restored
	// when the emulator has been idle after a commit.
	DefaultKeyboard seat.Keyboard

	// NewKeyboard creates a synthetic keyboard identity for a session.
	NewKeyboard func(name string) seat.Keyboard

	// Compiler compiles synthesized keymap text.
	Compiler xkb.Compiler

	// Loop is the serial dispatch loop everything runs on.
	Loop *eventloop.Loop

	// Log defaults to slog.Default.
	Log *slog.Logger

	// Recorder, if set, receives one record per processed commit.
	Recorder Recorder

	// KeyResetDelay is the idle window after which a session's allocated
	// key slots are cleared. Defaults to 100ms.
	KeyResetDelay time.Duration

	// FocusResetDelay is the idle window after a commit before the default
	// keyboard is restored. Resetting immediately would race clients still
	// interpreting the keycodes we just sent. Defaults to 100ms.
	FocusResetDelay time.Duration
}

// DefaultResetDelay is the debounce used for both idle timers unless
// overridden.
const DefaultResetDelay = 100 * time.Millisecond

func (o *Options) validate() error {
	switch {
	case o.Seat == nil:
		return errors.New("ime: Options.Seat is required")
	case o.DefaultKeyboard == nil:
		return errors.New("ime: Options.DefaultKeyboard is required")
	case o.NewKeyboard == nil:
		return errors.New("ime: Options.NewKeyboard is required")
	case o.Compiler == nil:
		return errors.New("ime: Options.Compiler is required")
	case o.Loop == nil:
		return errors.New("ime: Options.Loop is required")
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
	if o.KeyResetDelay <= 0 {
		o.KeyResetDelay = DefaultResetDelay
	}
	if o.FocusResetDelay <= 0 {
		o.FocusResetDelay = DefaultResetDelay
	}
	return nil
}

// Manager owns the at-most-one active session invariant and the global
// keyboard focus reset timer.
type Manager struct {
	opts Options
	log  *slog.Logger

	active          *Session
	focusResetTimer *eventloop.Timer
}

// NewManager creates a manager. No session exists until a client asks for
// one.
func NewManager(opts Options) (*Manager, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		opts: opts,
		log:  opts.Log.With("component", "ime"),
	}
	m.focusResetTimer = opts.Loop.NewTimer(m.resetFocus)
	return m, nil
}

// CreateSession makes client the active input method. If a session is
// already live the client is sent the unavailable notice, no state is
// allocated, and ErrSessionActive is returned.
func (m *Manager) CreateSession(client Client) (*Session, error) {
	if m.active != nil {
		client.Unavailable()
		return nil, ErrSessionActive
	}

	s := &Session{
		manager:  m,
		client:   client,
		log:      m.log,
		serial:   1,
		keyboard: m.opts.NewKeyboard("ime"),
	}
	s.alloc.log = m.log
	s.keyResetTimer = m.opts.Loop.NewTimer(s.resetKeys)

	m.active = s
	client.Done(s.serial)
	m.log.Info("input method session created", "serial", s.serial)
	return s, nil
}

// Active returns the live session, or nil.
func (m *Manager) Active() *Session {
	return m.active
}

// resetFocus restores the default keyboard once the emulator has been idle.
// A keyboard assigned by a real device is left alone.
func (m *Manager) resetFocus() {
	kb := m.opts.Seat.ActiveKeyboard()
	if kb == nil || kb.Emulated() {
		m.opts.Seat.SetActiveKeyboard(m.opts.DefaultKeyboard)
	}
}

func (m *Manager) releaseSession(s *Session) {
	if m.active == s {
		m.active = nil
	}
}

// Status is a point-in-time snapshot for the control plane. Take it on the
// event loop.
type Status struct {
	Active        bool   `json:"active"`
	Serial        uint32 `json:"serial,omitempty"`
	KeySlots      int    `json:"key_slots"`
	RotationIndex int    `json:"rotation_index"`
	PendingText   bool   `json:"pending_text"`
	PendingAction string `json:"pending_action,omitempty"`
}

// Snapshot reports the manager's current state.
func (m *Manager) Snapshot() Status {
	if m.active == nil {
		return Status{}
	}
	s := m.active
	st := Status{
		Active:        true,
		Serial:        s.serial,
		KeySlots:      len(s.alloc.slots),
		RotationIndex: s.alloc.next,
		PendingText:   s.pendingSet,
	}
	if s.pendingAction != ActionNone {
		st.PendingAction = s.pendingAction.String()
	}
	return st
}
