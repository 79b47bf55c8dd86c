package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
)

// Server answers control requests on a unix socket.
type Server struct {
	log    *slog.Logger
	path   string
	daemon Daemon

	ln     net.Listener
	wg     sync.WaitGroup
	closed chan struct{}
}

// NewServer creates a server; Start brings up the socket.
func NewServer(log *slog.Logger, path string, daemon Daemon) *Server {
	if path == "" {
		path = DefaultSocketPath()
	}
	return &Server{
		log:    log.With("component", "ipc"),
		path:   path,
		daemon: daemon,
		closed: make(chan struct{}),
	}
}

// Start listens on the socket and serves requests until Close.
func (s *Server) Start() error {
	// A stale socket from a crashed daemon blocks the bind.
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ipc: remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("ipc: listen: %w", err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("ipc: chmod socket: %w", err)
	}
	s.ln = ln

	s.wg.Add(1)
	go s.acceptLoop()
	s.log.Info("control socket listening", "path", s.path)
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
				s.log.Warn("accept failed", "error", err)
				continue
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	if err := checkPeer(conn); err != nil {
		s.log.Warn("rejected control connection", "error", err)
		return
	}

	scanner := bufio.NewScanner(conn)
	enc := json.NewEncoder(conn)
	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			enc.Encode(Response{Error: "malformed request"})
			continue
		}
		enc.Encode(s.handle(req))
	}
}

func (s *Server) handle(req Request) Response {
	switch req.Op {
	case OpPing:
		return Response{OK: true}
	case OpStatus:
		status := s.daemon.Status()
		return Response{OK: true, Status: &status, Commits: s.daemon.CommitCount()}
	case OpResetKeys:
		if !s.daemon.ResetKeys() {
			return Response{Error: "no active session"}
		}
		return Response{OK: true}
	default:
		return Response{Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

// Close shuts the socket down and waits for in-flight handlers.
func (s *Server) Close() error {
	close(s.closed)
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	s.wg.Wait()
	os.Remove(s.path)
	return err
}
