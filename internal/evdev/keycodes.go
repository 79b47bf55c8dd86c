// Package evdev defines the Linux input event keycodes used for emulated
// typing, and the fixed catalogue of keycodes that are safe to synthesize.
package evdev

// Keycode is a Linux evdev scan code (uapi/linux/input-event-codes.h).
type Keycode uint32

// Keycodes referenced by the emulator. Values match input-event-codes.h.
const (
	KeyEsc        Keycode = 1
	Key1          Keycode = 2
	Key2          Keycode = 3
	Key3          Keycode = 4
	Key4          Keycode = 5
	Key5          Keycode = 6
	Key6          Keycode = 7
	Key7          Keycode = 8
	Key8          Keycode = 9
	Key9          Keycode = 10
	Key0          Keycode = 11
	KeyMinus      Keycode = 12
	KeyEqual      Keycode = 13
	KeyBackspace  Keycode = 14
	KeyTab        Keycode = 15
	KeyQ          Keycode = 16
	KeyW          Keycode = 17
	KeyE          Keycode = 18
	KeyR          Keycode = 19
	KeyT          Keycode = 20
	KeyY          Keycode = 21
	KeyU          Keycode = 22
	KeyI          Keycode = 23
	KeyO          Keycode = 24
	KeyP          Keycode = 25
	KeyLeftBrace  Keycode = 26
	KeyRightBrace Keycode = 27
	KeyEnter      Keycode = 28
	KeyLeftCtrl   Keycode = 29
	KeyA          Keycode = 30
	KeyS          Keycode = 31
	KeyD          Keycode = 32
	KeyF          Keycode = 33
	KeyG          Keycode = 34
	KeyH          Keycode = 35
	KeyJ          Keycode = 36
	KeyK          Keycode = 37
	KeyL          Keycode = 38
	KeySemicolon  Keycode = 39
	KeyApostrophe Keycode = 40
	KeyGrave      Keycode = 41
	KeyLeftShift  Keycode = 42
	KeyBackslash  Keycode = 43
	KeyZ          Keycode = 44
	KeyX          Keycode = 45
	KeyC          Keycode = 46
	KeyV          Keycode = 47
	KeyB          Keycode = 48
	KeyN          Keycode = 49
	KeyM          Keycode = 50
	KeyComma      Keycode = 51
	KeyDot        Keycode = 52
	KeySlash      Keycode = 53
	KeyLeftAlt    Keycode = 56
	KeySpace      Keycode = 57
	KeyLeft       Keycode = 105
	KeyRight      Keycode = 106
	KeyDelete     Keycode = 111
)

// TypeableKeycodes is the ordered catalogue of keycodes the emulator may
// allocate for arbitrary characters. Some clients assume keycodes come from
// evdev and interpret them themselves, so only keys that would normally
// produce characters are included.
var TypeableKeycodes = []Keycode{
	Key1, Key2, Key3, Key4, Key5, Key6, Key7, Key8, Key9, Key0, KeyMinus, KeyEqual,
	KeyQ, KeyW, KeyE, KeyR, KeyT, KeyY, KeyU, KeyI, KeyO, KeyP, KeyLeftBrace, KeyRightBrace,
	KeyA, KeyS, KeyD, KeyF, KeyG, KeyH, KeyJ, KeyK, KeyL, KeySemicolon, KeyApostrophe, KeyGrave, KeyBackslash,
	KeyZ, KeyX, KeyC, KeyV, KeyB, KeyN, KeyM, KeyComma, KeyDot, KeySlash,
}
