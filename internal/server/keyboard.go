package server

import (
	"imekbd/internal/seat"
	"imekbd/internal/xkb"
)

// Keyboard is a keyboard identity on the daemon's seat. The default keyboard
// stands in for the compositor's own virtual keyboard; emulated ones are
// created per input-method session.
type Keyboard struct {
	srv      *Server
	name     string
	emulated bool
	km       xkb.Keymap
	mods     xkb.ModifierState
}

// NewDefaultKeyboard creates the non-emulated keyboard restored on idle.
// A starting keymap may be nil.
func (s *Server) NewDefaultKeyboard(name string, km xkb.Keymap) *Keyboard {
	return &Keyboard{srv: s, name: name, km: km}
}

// NewKeyboard creates a synthetic keyboard identity; it satisfies the
// ime.Options.NewKeyboard contract.
func (s *Server) NewKeyboard(name string) seat.Keyboard {
	return &Keyboard{srv: s, name: name, emulated: true}
}

func (k *Keyboard) Keymap() xkb.Keymap { return k.km }

func (k *Keyboard) SetKeymap(km xkb.Keymap) error {
	k.km = km
	if active, ok := k.srv.active.(*Keyboard); ok && active == k {
		k.srv.broadcastKeymap(km)
	}
	return nil
}

func (k *Keyboard) Modifiers() xkb.ModifierState { return k.mods }

func (k *Keyboard) Emulated() bool { return k.emulated }

// Close releases the identity. Nothing external holds onto it, so dropping
// the keymap reference is all that is needed.
func (k *Keyboard) Close() error {
	k.km = nil
	return nil
}
