package ime

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"imekbd/internal/evdev"
	"imekbd/internal/xkb"
)

func newTestAllocator() *keyAllocator {
	return &keyAllocator{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestAllocatorRotates(t *testing.T) {
	a := newTestAllocator()

	k1 := a.keycodeFor(xkb.KeysymFromRune('a'))
	k2 := a.keycodeFor(xkb.KeysymFromRune('b'))
	k3 := a.keycodeFor(xkb.KeysymFromRune('c'))

	assert.Equal(t, evdev.TypeableKeycodes[0], k1)
	assert.Equal(t, evdev.TypeableKeycodes[1], k2)
	assert.Equal(t, evdev.TypeableKeycodes[2], k3)
	assert.Len(t, a.slots, 3)
}

func TestAllocatorRepeatReusesSlot(t *testing.T) {
	a := newTestAllocator()

	first := a.keycodeFor(xkb.KeysymFromRune('x'))
	second := a.keycodeFor(xkb.KeysymFromRune('x'))

	assert.Equal(t, first, second)
	assert.Len(t, a.slots, 1)
}

func TestAllocatorRepeatOnlyChecksMostRecent(t *testing.T) {
	a := newTestAllocator()

	first := a.keycodeFor(xkb.KeysymFromRune('x'))
	a.keycodeFor(xkb.KeysymFromRune('y'))
	third := a.keycodeFor(xkb.KeysymFromRune('x'))

	// Non-adjacent repeats allocate a fresh slot.
	assert.NotEqual(t, first, third)
	assert.Len(t, a.slots, 3)
}

func TestAllocatorEvictsOldestOnWrap(t *testing.T) {
	a := newTestAllocator()
	size := len(evdev.TypeableKeycodes)

	for i := 0; i < size; i++ {
		a.keycodeFor(xkb.KeysymFromRune(rune(0x100 + i)))
	}
	assert.Len(t, a.slots, size)
	oldest := a.slots[0]

	extra := a.keycodeFor(xkb.KeysymFromRune(rune(0x100 + size)))

	assert.Len(t, a.slots, size)
	assert.NotContains(t, a.slots, oldest)
	// The rotation wrapped around to the start of the catalogue, which is
	// exactly the keycode that was just evicted.
	assert.Equal(t, evdev.TypeableKeycodes[0], extra)
}

func TestAllocatorReset(t *testing.T) {
	a := newTestAllocator()
	a.keycodeFor(xkb.KeysymFromRune('a'))
	a.keycodeFor(xkb.KeysymFromRune('b'))

	a.reset()

	assert.Empty(t, a.slots)
	assert.Equal(t, 0, a.next)
	assert.Equal(t, evdev.TypeableKeycodes[0], a.keycodeFor(xkb.KeysymFromRune('c')))
}
