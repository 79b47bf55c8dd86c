package xkb

// ModMask is a bitmask of modifier indices, in the conventional wlroots
// ordering of the eight real modifiers.
type ModMask uint32

const (
	ModShift ModMask = 1 << 0
	ModCaps  ModMask = 1 << 1
	ModCtrl  ModMask = 1 << 2
	ModAlt   ModMask = 1 << 3
	ModMod2  ModMask = 1 << 4
	ModMod3  ModMask = 1 << 5
	ModLogo  ModMask = 1 << 6
	ModMod5  ModMask = 1 << 7
)

// ModifierState is the full modifier state of a keyboard, as reported to
// clients: held, sticky and locked masks plus the active layout group.
type ModifierState struct {
	Depressed ModMask
	Latched   ModMask
	Locked    ModMask
	Group     uint32
}

// Keymap is a compiled, immutable keyboard layout. Keycodes here are XKB
// keycodes (evdev code + 8).
type Keymap interface {
	// MinKeycode and MaxKeycode bound the keycode range of the layout.
	MinKeycode() uint32
	MaxKeycode() uint32

	// NumLayouts reports how many layouts are defined for a keycode.
	NumLayouts(keycode uint32) uint32

	// NumLevels reports how many shift levels a keycode has in a layout.
	NumLevels(keycode uint32, layout uint32) uint32

	// Keysyms returns the keysyms bound at a keycode/layout/level.
	Keysyms(keycode uint32, layout, level uint32) []Keysym

	// LevelMasks returns the modifier masks that reach a level. A level
	// unreachable by modifiers returns an empty slice.
	LevelMasks(keycode uint32, layout, level uint32) []ModMask
}

// Compiler turns keymap text (XKB text format v1) into a usable Keymap.
// A description the compiler cannot resolve yields an error, never a panic;
// callers treat that as a recoverable per-commit failure.
type Compiler interface {
	Compile(text string) (Keymap, error)
}
