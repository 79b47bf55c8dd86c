package ime

import (
	"imekbd/internal/evdev"
	"imekbd/internal/xkb"
)

// Action is a discrete editing operation a client can request instead of
// committing text.
type Action int

const (
	ActionNone Action = iota
	ActionSubmit
	ActionDeleteLeft
	ActionDeleteRight
	ActionMoveLeft
	ActionMoveRight
)

var actionNames = map[Action]string{
	ActionNone:        "none",
	ActionSubmit:      "submit",
	ActionDeleteLeft:  "delete-left",
	ActionDeleteRight: "delete-right",
	ActionMoveLeft:    "move-left",
	ActionMoveRight:   "move-right",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ActionFromName resolves the wire name of an action. Unknown names map to
// ActionNone with ok false.
func ActionFromName(name string) (Action, bool) {
	for a, n := range actionNames {
		if n == name {
			return a, true
		}
	}
	return ActionNone, false
}

// actionKey binds an action to the key that performs it on a conventional
// keyboard. Every synthesized keymap includes all of these, whatever is
// currently allocated.
type actionKey struct {
	keycode evdev.Keycode
	keysym  xkb.Keysym
}

// actionOrder fixes the emission order of action keys in synthesized
// keymaps so identical state produces identical text.
var actionOrder = []Action{
	ActionSubmit,
	ActionDeleteLeft,
	ActionDeleteRight,
	ActionMoveLeft,
	ActionMoveRight,
}

var actionKeys = map[Action]actionKey{
	ActionSubmit:      {evdev.KeyEnter, xkb.KeysymReturn},
	ActionDeleteLeft:  {evdev.KeyBackspace, xkb.KeysymBackSpace},
	ActionDeleteRight: {evdev.KeyDelete, xkb.KeysymDelete},
	ActionMoveLeft:    {evdev.KeyLeft, xkb.KeysymLeft},
	ActionMoveRight:   {evdev.KeyRight, xkb.KeysymRight},
}
