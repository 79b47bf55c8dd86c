//go:build !linux

package ipc

import "net"

// checkPeer relies on socket permissions alone where SO_PEERCRED is not
// available.
func checkPeer(conn net.Conn) error {
	return nil
}
