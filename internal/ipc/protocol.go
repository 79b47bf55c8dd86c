// Package ipc is the control plane between the daemon and imekbdctl:
// newline-delimited JSON over a unix socket, restricted to the owning user.
package ipc

import (
	"os"
	"path/filepath"

	"imekbd/internal/ime"
)

// Operations.
const (
	OpPing      = "ping"
	OpStatus    = "status"
	OpResetKeys = "reset-keys"
)

// Request is one control command.
type Request struct {
	Op string `json:"op"`
}

// Response answers a request.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	// Status is set for OpStatus.
	Status *ime.Status `json:"status,omitempty"`

	// Commits is the journaled commit count, -1 when no journal is
	// configured. Set for OpStatus.
	Commits int64 `json:"commits,omitempty"`
}

// DefaultSocketPath places the control socket in the user runtime directory.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "imekbd.sock")
	}
	return filepath.Join(os.TempDir(), "imekbd.sock")
}

// Daemon is what the server needs from the daemon to answer requests. All
// methods must be safe to call from the IPC goroutines.
type Daemon interface {
	Status() ime.Status
	ResetKeys() bool
	CommitCount() int64
}
