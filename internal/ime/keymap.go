package ime

import (
	"fmt"
	"strings"

	"imekbd/internal/evdev"
	"imekbd/internal/xkb"
)

// keycodeOffset converts evdev keycodes to XKB keycodes.
const keycodeOffset = 8

// synthesizeKeymapText builds an XKB text-v1 keymap covering the given slots
// plus every action key. Each keycode binds exactly one keysym. The types and
// compatibility sections include "complete" so the compiler can resolve
// modifier behavior.
func synthesizeKeymapText(slots []keySlot) (string, error) {
	var b strings.Builder

	// Bounds over the union of the typeable catalogue and the action keys.
	minKeycode := evdev.Key1
	maxKeycode := evdev.KeyDelete

	fmt.Fprintf(&b, "xkb_keymap {\n\nxkb_keycodes \"(unnamed)\" {\n")
	fmt.Fprintf(&b, "\tminimum = %d;\n", uint32(minKeycode)+keycodeOffset)
	fmt.Fprintf(&b, "\tmaximum = %d;\n", uint32(maxKeycode)+keycodeOffset)
	for _, slot := range slots {
		fmt.Fprintf(&b, "\t<K%d> = %d;\n", uint32(slot.keycode), uint32(slot.keycode)+keycodeOffset)
	}
	for _, action := range actionOrder {
		key := actionKeys[action]
		fmt.Fprintf(&b, "\t<K%d> = %d;\n", uint32(key.keycode), uint32(key.keycode)+keycodeOffset)
	}
	b.WriteString("};\n\n")

	b.WriteString("xkb_types \"(unnamed)\" { include \"complete\" };\n\n")
	b.WriteString("xkb_compatibility \"(unnamed)\" { include \"complete\" };\n\n")

	b.WriteString("xkb_symbols \"(unnamed)\" {\n")
	for _, slot := range slots {
		if err := writeSymbol(&b, slot.keycode, slot.keysym); err != nil {
			return "", err
		}
	}
	for _, action := range actionOrder {
		key := actionKeys[action]
		if err := writeSymbol(&b, key.keycode, key.keysym); err != nil {
			return "", err
		}
	}
	b.WriteString("};\n\n};\n")

	return b.String(), nil
}

func writeSymbol(b *strings.Builder, keycode evdev.Keycode, keysym xkb.Keysym) error {
	name, err := xkb.KeysymName(keysym)
	if err != nil {
		return fmt.Errorf("synthesize keymap: %w", err)
	}
	fmt.Fprintf(b, "\tkey <K%d> {[ %s ]};\n", uint32(keycode), name)
	return nil
}
