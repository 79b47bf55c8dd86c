// Package imewire defines the JSON wire protocol the daemon speaks with
// input-method clients and event observers. Inbound messages are validated
// against an embedded JSON Schema before they reach the core.
package imewire

// Inbound message types (client → daemon).
const (
	TypeCreateSession = "create_session"
	TypeSetString     = "set_string"
	TypeSetAction     = "set_action"
	TypeCommit        = "commit"
	TypeDestroy       = "destroy"
)

// Outbound message types (daemon → client/observers).
const (
	TypeDone        = "done"
	TypeUnavailable = "unavailable"
	TypeKey         = "key"
	TypeModifiers   = "modifiers"
	TypeKeymap      = "keymap"
	TypeKeyboard    = "keyboard"
)

// Message is the envelope for every frame in both directions. Fields are
// populated according to Type.
type Message struct {
	Type string `json:"type"`

	// set_string
	Text string `json:"text,omitempty"`

	// set_action
	Action string `json:"action,omitempty"`

	// commit and done
	Serial uint32 `json:"serial,omitempty"`

	// key events to observers
	Keycode uint32 `json:"keycode,omitempty"`
	Pressed bool   `json:"pressed,omitempty"`
	Time    uint32 `json:"time,omitempty"`

	// modifier events to observers
	Depressed uint32 `json:"depressed,omitempty"`
	Latched   uint32 `json:"latched,omitempty"`
	Locked    uint32 `json:"locked,omitempty"`
	Group     uint32 `json:"group,omitempty"`

	// keymap installs to observers; the XKB text of the new layout
	Keymap string `json:"keymap,omitempty"`

	// keyboard assignment to observers
	Name     string `json:"name,omitempty"`
	Emulated bool   `json:"emulated,omitempty"`
}
