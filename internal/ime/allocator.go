package ime

import (
	"log/slog"

	"imekbd/internal/evdev"
	"imekbd/internal/xkb"
)

// keySlot records that a keycode currently stands for a keysym in the
// session's synthetic layout.
type keySlot struct {
	keycode evdev.Keycode
	keysym  xkb.Keysym
}

// keyAllocator hands out keycodes from the typeable catalogue. Slots are kept
// in allocation order; when the catalogue wraps within one idle window the
// oldest slot is recycled.
type keyAllocator struct {
	log   *slog.Logger
	slots []keySlot
	next  int
}

// keycodeFor returns the keycode that will type sym. Repeats of the most
// recently allocated keysym reuse its slot.
func (a *keyAllocator) keycodeFor(sym xkb.Keysym) evdev.Keycode {
	if n := len(a.slots); n > 0 && a.slots[n-1].keysym == sym {
		return a.slots[n-1].keycode
	}

	if len(a.slots) >= len(evdev.TypeableKeycodes) {
		// The oldest key was emitted a full catalogue ago; recycling it is
		// safe enough, but it means we wrapped before the idle reset ran.
		a.log.Warn("key codes wrapped within the reset window, recycling oldest slot")
		a.slots = a.slots[1:]
	}

	keycode := evdev.TypeableKeycodes[a.next%len(evdev.TypeableKeycodes)]
	a.next++
	a.slots = append(a.slots, keySlot{keycode: keycode, keysym: sym})
	return keycode
}

// reset drops all slots and rewinds the rotation cursor. An already installed
// layout is unaffected; only future allocations see the empty pool.
func (a *keyAllocator) reset() {
	a.slots = nil
	a.next = 0
}
