package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"imekbd/internal/ime"
	"imekbd/internal/imewire"
)

// imeClient is one input-method connection. It implements ime.Client so the
// core's notices flow back over the socket.
type imeClient struct {
	srv  *Server
	conn *websocket.Conn
	send chan []byte

	// session is only touched on the event loop.
	session *ime.Session
}

func (c *imeClient) Done(serial uint32) {
	c.notify(imewire.Message{Type: imewire.TypeDone, Serial: serial})
}

func (c *imeClient) Unavailable() {
	c.notify(imewire.Message{Type: imewire.TypeUnavailable})
}

func (c *imeClient) notify(msg imewire.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.srv.log.Error("marshal notice", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (s *Server) handleIME(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ime upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &imeClient{srv: s, conn: conn, send: make(chan []byte, 16)}
	s.log.Info("input method client connected", "remote", conn.RemoteAddr())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for data := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		msg, err := imewire.ParseClientMessage(raw)
		if err != nil {
			// A misbehaving client cannot corrupt core state; drop the
			// frame and keep the connection.
			s.log.Warn("rejected client message", "error", err)
			continue
		}
		s.dispatch(c, msg)
	}

	s.teardown(c)
	<-writerDone
	s.log.Info("input method client disconnected", "remote", conn.RemoteAddr())
}

// teardown runs on disconnect. Both the session and the notice channel are
// released on the loop, so dispatches queued before the disconnect drain
// first; closing the channel from the handler goroutine would race a queued
// create_session whose done notice still writes to it.
func (s *Server) teardown(c *imeClient) {
	s.loop.Post(func() {
		if c.session != nil {
			c.session.Close()
			c.session = nil
		}
		close(c.send)
	})
}

// dispatch posts one validated message to the event loop.
func (s *Server) dispatch(c *imeClient, msg *imewire.Message) {
	s.loop.Post(func() {
		if msg.Type == imewire.TypeCreateSession {
			if c.session != nil {
				return
			}
			session, err := s.mgr.CreateSession(c)
			if err != nil {
				// The unavailable notice has already been sent.
				return
			}
			c.session = session
			return
		}

		if c.session == nil {
			return
		}
		switch msg.Type {
		case imewire.TypeSetString:
			c.session.SetString(msg.Text)
		case imewire.TypeSetAction:
			if action, ok := ime.ActionFromName(msg.Action); ok {
				c.session.SetAction(action)
			}
		case imewire.TypeCommit:
			c.session.Commit(msg.Serial)
		case imewire.TypeDestroy:
			c.session.Close()
			c.session = nil
		}
	})
}
