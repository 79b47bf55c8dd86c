// Package seat abstracts the compositor seat the emulator feeds. The real
// seat lives in the compositor; this package only fixes the contract the
// input-method core relies on: one active keyboard at a time, modifier and
// key notifications, and keymap installation on keyboards the core owns.
package seat

import "imekbd/internal/xkb"

// KeyState distinguishes press from release notifications.
type KeyState int

const (
	KeyReleased KeyState = iota
	KeyPressed
)

// Keyboard is a keyboard identity known to the seat. Emulated keyboards are
// created and owned by the input-method core; the default keyboard belongs
// to the compositor.
type Keyboard interface {
	// Keymap returns the currently installed layout, or nil.
	Keymap() xkb.Keymap

	// SetKeymap installs a layout, superseding any previous one.
	SetKeymap(xkb.Keymap) error

	// Modifiers reports the keyboard's current modifier state.
	Modifiers() xkb.ModifierState

	// Emulated reports whether this keyboard is a synthetic identity rather
	// than a real device.
	Emulated() bool
}

// Seat delivers keyboard events to whatever clients the compositor has
// focused. Implementations are not safe for concurrent use; the core calls
// them from its event loop only.
type Seat interface {
	// ActiveKeyboard returns the keyboard currently delivering events, or
	// nil if none is assigned.
	ActiveKeyboard() Keyboard

	// SetActiveKeyboard assigns the keyboard that subsequent notifications
	// are attributed to.
	SetActiveKeyboard(Keyboard)

	// NotifyModifiers reports a modifier state change on the active
	// keyboard.
	NotifyModifiers(xkb.ModifierState)

	// NotifyKey reports a key press or release. At least one significant
	// downstream consumer ignores the timestamp, so zero is acceptable.
	NotifyKey(timeMs uint32, keycode uint32, state KeyState)
}
