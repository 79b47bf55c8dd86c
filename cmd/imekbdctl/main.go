// imekbdctl is the control CLI for imekbdd.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"imekbd/internal/ime"
	"imekbd/internal/ipc"
)

var socketPath = flag.String("socket", "", "path to the control socket")

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	switch cmd := flag.Arg(0); cmd {
	case "ping":
		cmdPing()
	case "status":
		cmdStatus()
	case "reset-keys":
		cmdResetKeys()
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: imekbdctl [-socket path] <command>

Commands:
  ping        Check that the daemon is up
  status      Show session and key-slot state
  reset-keys  Clear the active session's allocated key slots`)
}

func do(op string) *ipc.Response {
	resp, err := ipc.Do(*socketPath, ipc.Request{Op: op})
	if err != nil {
		fmt.Fprintln(os.Stderr, "imekbdctl:", err)
		os.Exit(1)
	}
	if resp.Error != "" {
		fmt.Fprintln(os.Stderr, "imekbdctl:", resp.Error)
		os.Exit(1)
	}
	return resp
}

func cmdPing() {
	do(ipc.OpPing)
	fmt.Println("ok")
}

func cmdStatus() {
	resp := do(ipc.OpStatus)

	out := struct {
		Status  *ime.Status `json:"status"`
		Commits *int64      `json:"commits,omitempty"`
	}{Status: resp.Status}
	if resp.Commits >= 0 {
		out.Commits = &resp.Commits
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

func cmdResetKeys() {
	do(ipc.OpResetKeys)
	fmt.Println("key slots cleared")
}
