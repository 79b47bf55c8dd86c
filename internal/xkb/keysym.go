// Package xkb models XKB keysyms and the boundary to the keymap compiler.
//
// The emulator core only needs a small slice of xkbcommon: turning Unicode
// codepoints into keysyms, naming keysyms for keymap text, compiling that
// text, and querying the compiled keymap for the direct typing strategy. The
// keysym half is implemented in pure Go following the published xkbcommon
// rules; compilation and keymap queries are behind interfaces so the daemon
// can bind libxkbcommon while tests use fakes.
package xkb

import "fmt"

// Keysym is an XKB keysym value.
type Keysym uint32

// Keysyms referenced by the emulator.
const (
	KeysymNoSymbol  Keysym = 0
	KeysymBackSpace Keysym = 0xff08
	KeysymTab       Keysym = 0xff09
	KeysymLinefeed  Keysym = 0xff0a
	KeysymClear     Keysym = 0xff0b
	KeysymReturn    Keysym = 0xff0d
	KeysymEscape    Keysym = 0xff1b
	KeysymLeft      Keysym = 0xff51
	KeysymRight     Keysym = 0xff53
	KeysymDelete    Keysym = 0xffff
	KeysymEuroSign  Keysym = 0x20ac
)

// unicodeOffset marks keysyms that directly encode a Unicode codepoint.
const unicodeOffset Keysym = 0x01000000

// KeysymFromRune maps a Unicode codepoint to a keysym, following the
// xkb_utf32_to_keysym rules. libxkbcommon has a bug where the Euro sign does
// not map to the correct keysym, so it is special-cased here.
func KeysymFromRune(ch rune) Keysym {
	if ch == 0x20ac {
		return KeysymEuroSign
	}

	// Latin-1 printable characters map 1:1.
	if (ch >= 0x0020 && ch <= 0x007e) || (ch >= 0x00a0 && ch <= 0x00ff) {
		return Keysym(ch)
	}

	// Control characters with dedicated keysyms on the 0xff00 page.
	if (ch >= 0x0008 && ch <= 0x000b) || ch == 0x000d || ch == 0x001b {
		return Keysym(ch) | 0xff00
	}
	if ch == 0x007f {
		return KeysymDelete
	}

	// Remaining control characters, surrogates, non-characters and
	// out-of-range values have no keysym.
	if ch < 0x20 || (ch > 0x7f && ch < 0xa0) ||
		(ch >= 0xd800 && ch <= 0xdfff) ||
		(ch >= 0xfdd0 && ch <= 0xfdef) ||
		ch > 0x10ffff || ch&0xfffe == 0xfffe {
		return KeysymNoSymbol
	}

	return Keysym(ch) | unicodeOffset
}

// functionKeysymNames covers the non-printable keysyms the emulator can emit.
var functionKeysymNames = map[Keysym]string{
	KeysymBackSpace: "BackSpace",
	KeysymTab:       "Tab",
	KeysymLinefeed:  "Linefeed",
	KeysymClear:     "Clear",
	KeysymReturn:    "Return",
	KeysymEscape:    "Escape",
	KeysymLeft:      "Left",
	KeysymRight:     "Right",
	KeysymDelete:    "Delete",
	KeysymEuroSign:  "EuroSign",
}

// KeysymName returns a name for sym that xkb_keysym_from_name resolves when
// the keymap text is compiled. Printable keysyms use the U<codepoint> form,
// which the compiler accepts for any codepoint from U+0020 upward.
func KeysymName(sym Keysym) (string, error) {
	if name, ok := functionKeysymNames[sym]; ok {
		return name, nil
	}
	if (sym >= 0x0020 && sym <= 0x007e) || (sym >= 0x00a0 && sym <= 0x00ff) {
		return fmt.Sprintf("U%04X", uint32(sym)), nil
	}
	if sym&unicodeOffset != 0 {
		cp := uint32(sym &^ unicodeOffset)
		if cp >= 0x100 && cp <= 0x10ffff {
			return fmt.Sprintf("U%04X", cp), nil
		}
	}
	return "", fmt.Errorf("keysym %#x has no name", uint32(sym))
}
