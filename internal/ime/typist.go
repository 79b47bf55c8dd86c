package ime

import (
	"fmt"

	"imekbd/internal/evdev"
	"imekbd/internal/seat"
	"imekbd/internal/textcodec"
	"imekbd/internal/xkb"
)

// typeResult reports what a commit's text produced, for the commit journal.
type typeResult struct {
	strategy string
	chars    int
	keys     int
}

// allowedDirectMods restricts the direct strategy to modifiers that clients
// track reliably; reaching a level through anything more exotic would
// desynchronize client-side modifier state.
const allowedDirectMods = xkb.ModShift | xkb.ModCtrl | xkb.ModAlt

// tryTypeKeysym attempts the direct strategy: find sym in the layout already
// installed on the default keyboard and type it there, so no layout swap is
// needed. The seat's modifier state is restored afterwards.
func (s *Session) tryTypeKeysym(sym xkb.Keysym) bool {
	st := s.manager.opts.Seat
	kb := s.manager.opts.DefaultKeyboard

	km := kb.Keymap()
	if km == nil {
		return false
	}

	for keycode := km.MinKeycode(); keycode <= km.MaxKeycode(); keycode++ {
		// XKB keycodes below the evdev offset cannot be translated back.
		if keycode < keycodeOffset {
			continue
		}
		for layout := uint32(0); layout < km.NumLayouts(keycode); layout++ {
			for level := uint32(0); level < km.NumLevels(keycode, layout); level++ {
				syms := km.Keysyms(keycode, layout, level)
				if len(syms) != 1 || syms[0] != sym {
					continue
				}

				// A level reachable through several modifier sets uses the
				// first one reported.
				masks := km.LevelMasks(keycode, layout, level)
				if len(masks) == 0 {
					continue
				}
				mask := masks[0]
				if mask&^allowedDirectMods != 0 {
					continue
				}

				keycodes := make([]evdev.Keycode, 0, 4)
				if mask&xkb.ModShift != 0 {
					keycodes = append(keycodes, evdev.KeyLeftShift)
				}
				if mask&xkb.ModCtrl != 0 {
					keycodes = append(keycodes, evdev.KeyLeftCtrl)
				}
				if mask&xkb.ModAlt != 0 {
					keycodes = append(keycodes, evdev.KeyLeftAlt)
				}
				keycodes = append(keycodes, evdev.Keycode(keycode-keycodeOffset))

				var prev xkb.ModifierState
				if active := st.ActiveKeyboard(); active != nil {
					prev = active.Modifiers()
				}

				st.SetActiveKeyboard(kb)
				st.NotifyModifiers(xkb.ModifierState{Depressed: mask})
				for _, kc := range keycodes {
					st.NotifyKey(0, uint32(kc), seat.KeyPressed)
				}
				for i := len(keycodes) - 1; i >= 0; i-- {
					st.NotifyKey(0, uint32(keycodes[i]), seat.KeyReleased)
				}
				st.NotifyModifiers(prev)

				return true
			}
		}
	}

	return false
}

// typeText emits the committed text. A single plain character with no
// synthetic layout debt goes through the direct strategy; everything else
// allocates keycodes and installs a synthetic layout.
func (s *Session) typeText(text string) typeResult {
	if len(text) == 1 && text[0]&0x80 == 0 && len(s.alloc.slots) == 0 {
		sym := xkb.KeysymFromRune(rune(text[0]))
		if sym != xkb.KeysymNoSymbol && s.tryTypeKeysym(sym) {
			return typeResult{strategy: "direct", chars: 1, keys: 1}
		}
	}

	res := typeResult{strategy: "synthetic"}
	keycodes := make([]evdev.Keycode, 0, len(text))
	dec := textcodec.NewDecoder(text)
	for {
		ch, ok := dec.Next()
		if !ok {
			break
		}
		res.chars++

		sym := xkb.KeysymFromRune(ch)
		if sym == xkb.KeysymNoSymbol {
			s.log.Warn("cannot type character", "codepoint", fmt.Sprintf("U+%04X", ch))
			continue
		}
		keycodes = append(keycodes, s.alloc.keycodeFor(sym))
	}

	if !s.installSyntheticKeymap() {
		return res
	}

	st := s.manager.opts.Seat
	for _, kc := range keycodes {
		st.NotifyKey(0, uint32(kc), seat.KeyPressed)
		st.NotifyKey(0, uint32(kc), seat.KeyReleased)
		res.keys++
	}

	// Reclaim the allocated slots once we have been idle for a while.
	s.keyResetTimer.Arm(s.manager.opts.KeyResetDelay)
	return res
}

// performAction types the key bound to a fixed editing action. The direct
// strategy usually wins here since action keys exist in most layouts; the
// fallback works because every synthesized keymap includes all action keys.
func (s *Session) performAction(a Action) {
	key, ok := actionKeys[a]
	if !ok {
		s.log.Error("unsupported action", "action", int(a))
		return
	}

	if s.tryTypeKeysym(key.keysym) {
		return
	}

	if !s.installSyntheticKeymap() {
		return
	}

	st := s.manager.opts.Seat
	st.NotifyKey(0, uint32(key.keycode), seat.KeyPressed)
	st.NotifyKey(0, uint32(key.keycode), seat.KeyReleased)
}

// installSyntheticKeymap compiles a layout covering the session's slots plus
// the action keys, installs it on the synthetic keyboard and makes that
// keyboard the seat's active one. Failure aborts only the current commit's
// emission.
func (s *Session) installSyntheticKeymap() bool {
	text, err := synthesizeKeymapText(s.alloc.slots)
	if err != nil {
		s.log.Error("failed to generate keymap", "error", err)
		return false
	}
	km, err := s.manager.opts.Compiler.Compile(text)
	if err != nil {
		s.log.Error("failed to compile keymap", "error", err)
		return false
	}
	if err := s.keyboard.SetKeymap(km); err != nil {
		s.log.Error("failed to install keymap", "error", err)
		return false
	}
	s.manager.opts.Seat.SetActiveKeyboard(s.keyboard)
	return true
}
