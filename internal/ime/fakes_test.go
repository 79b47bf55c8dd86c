package ime

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"imekbd/internal/eventloop"
	"imekbd/internal/seat"
	"imekbd/internal/xkb"
)

// fakeLevel is one shift level of a fake keymap key.
type fakeLevel struct {
	syms  []xkb.Keysym
	masks []xkb.ModMask
}

// fakeKeymap is a single-layout keymap with programmable bindings. Keycodes
// are XKB keycodes (evdev + 8).
type fakeKeymap struct {
	min, max uint32
	levels   map[uint32][]fakeLevel
}

func newFakeKeymap(min, max uint32) *fakeKeymap {
	return &fakeKeymap{min: min, max: max, levels: make(map[uint32][]fakeLevel)}
}

func (k *fakeKeymap) bind(keycode uint32, level fakeLevel) {
	k.levels[keycode] = append(k.levels[keycode], level)
}

func (k *fakeKeymap) MinKeycode() uint32 { return k.min }
func (k *fakeKeymap) MaxKeycode() uint32 { return k.max }

func (k *fakeKeymap) NumLayouts(keycode uint32) uint32 {
	if len(k.levels[keycode]) > 0 {
		return 1
	}
	return 0
}

func (k *fakeKeymap) NumLevels(keycode, layout uint32) uint32 {
	return uint32(len(k.levels[keycode]))
}

func (k *fakeKeymap) Keysyms(keycode, layout, level uint32) []xkb.Keysym {
	return k.levels[keycode][level].syms
}

func (k *fakeKeymap) LevelMasks(keycode, layout, level uint32) []xkb.ModMask {
	return k.levels[keycode][level].masks
}

// fakeKeyboard implements seat.Keyboard and records keymap installs.
type fakeKeyboard struct {
	name     string
	km       xkb.Keymap
	mods     xkb.ModifierState
	emulated bool
	installs int
	closed   bool
}

func (k *fakeKeyboard) Keymap() xkb.Keymap { return k.km }

func (k *fakeKeyboard) SetKeymap(km xkb.Keymap) error {
	k.km = km
	k.installs++
	return nil
}

func (k *fakeKeyboard) Modifiers() xkb.ModifierState { return k.mods }
func (k *fakeKeyboard) Emulated() bool               { return k.emulated }
func (k *fakeKeyboard) Close() error                 { k.closed = true; return nil }

// seatEvent is one recorded seat notification.
type seatEvent struct {
	kind    string // "keyboard", "mods", "key"
	kb      seat.Keyboard
	mods    xkb.ModifierState
	keycode uint32
	state   seat.KeyState
}

type fakeSeat struct {
	active seat.Keyboard
	events []seatEvent
}

func (s *fakeSeat) ActiveKeyboard() seat.Keyboard { return s.active }

func (s *fakeSeat) SetActiveKeyboard(kb seat.Keyboard) {
	s.active = kb
	s.events = append(s.events, seatEvent{kind: "keyboard", kb: kb})
}

func (s *fakeSeat) NotifyModifiers(mods xkb.ModifierState) {
	s.events = append(s.events, seatEvent{kind: "mods", mods: mods})
}

func (s *fakeSeat) NotifyKey(timeMs, keycode uint32, state seat.KeyState) {
	s.events = append(s.events, seatEvent{kind: "key", keycode: keycode, state: state})
}

func (s *fakeSeat) keyEvents() []seatEvent {
	var out []seatEvent
	for _, ev := range s.events {
		if ev.kind == "key" {
			out = append(out, ev)
		}
	}
	return out
}

// fakeCompiler records every description handed to it.
type fakeCompiler struct {
	compiled []string
	fail     bool
}

func (c *fakeCompiler) Compile(text string) (xkb.Keymap, error) {
	if c.fail {
		return nil, errors.New("compile rejected")
	}
	c.compiled = append(c.compiled, text)
	km := newFakeKeymap(10, 119)
	return km, nil
}

// symbolCount counts bound keys in a keymap description.
func symbolCount(text string) int {
	return strings.Count(text, "key <K")
}

type fakeClient struct {
	done        []uint32
	unavailable int
}

func (c *fakeClient) Done(serial uint32) { c.done = append(c.done, serial) }
func (c *fakeClient) Unavailable()       { c.unavailable++ }

type fakeRecorder struct {
	records []CommitRecord
}

func (r *fakeRecorder) RecordCommit(rec CommitRecord) {
	r.records = append(r.records, rec)
}

// fixture wires a manager to fakes and runs a real event loop. Test bodies
// interact with the core through do so everything stays on the loop, same as
// production.
type fixture struct {
	t        *testing.T
	loop     *eventloop.Loop
	seat     *fakeSeat
	defKb    *fakeKeyboard
	compiler *fakeCompiler
	recorder *fakeRecorder
	mgr      *Manager
}

func newFixture(t *testing.T, tweak func(*Options)) *fixture {
	t.Helper()

	f := &fixture{
		t:        t,
		loop:     eventloop.New(),
		seat:     &fakeSeat{},
		defKb:    &fakeKeyboard{name: "default"},
		compiler: &fakeCompiler{},
		recorder: &fakeRecorder{},
	}

	opts := Options{
		Seat:            f.seat,
		DefaultKeyboard: f.defKb,
		NewKeyboard: func(name string) seat.Keyboard {
			return &fakeKeyboard{name: name, emulated: true}
		},
		Compiler: f.compiler,
		Loop:     f.loop,
		Recorder: f.recorder,
	}
	if tweak != nil {
		tweak(&opts)
	}

	mgr, err := NewManager(opts)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	f.mgr = mgr

	ctx, cancel := context.WithCancel(context.Background())
	go f.loop.Run(ctx)
	t.Cleanup(cancel)

	return f
}

// do runs fn on the event loop and waits for it.
func (f *fixture) do(fn func()) {
	f.t.Helper()
	ran := make(chan struct{})
	f.loop.Post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		f.t.Fatal("event loop stalled")
	}
}

// session creates the active session or fails the test.
func (f *fixture) session(client *fakeClient) *Session {
	f.t.Helper()
	var s *Session
	var err error
	f.do(func() { s, err = f.mgr.CreateSession(client) })
	if err != nil {
		f.t.Fatalf("CreateSession: %v", err)
	}
	return s
}
