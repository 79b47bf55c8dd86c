// Package server hosts the session protocol over WebSocket and acts as the
// daemon's seat: synthesized key events, modifier changes and keymap installs
// are broadcast to observer connections the way a compositor would deliver
// them to focused clients.
//
// One input-method client at a time connects to /ime and drives the core;
// any number of observers connect to /events and watch the output side.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"imekbd/internal/eventloop"
	"imekbd/internal/ime"
	"imekbd/internal/imewire"
	"imekbd/internal/seat"
	"imekbd/internal/xkb"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The daemon binds to a local address; origin checking adds nothing.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server implements seat.Seat and serves the protocol endpoints.
type Server struct {
	log  *slog.Logger
	loop *eventloop.Loop
	mgr  *ime.Manager

	// active is only touched on the event loop.
	active seat.Keyboard

	mu        sync.Mutex
	observers map[*observer]struct{}
}

// New creates a server. SetManager must be called before serving; the
// manager itself needs this server as its seat.
func New(log *slog.Logger, loop *eventloop.Loop) *Server {
	return &Server{
		log:       log.With("component", "server"),
		loop:      loop,
		observers: make(map[*observer]struct{}),
	}
}

// SetManager wires the input-method core the protocol endpoints drive.
func (s *Server) SetManager(mgr *ime.Manager) {
	s.mgr = mgr
}

// Handler returns the HTTP handler exposing /ime and /events.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ime", s.handleIME)
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}

// ActiveKeyboard implements seat.Seat.
func (s *Server) ActiveKeyboard() seat.Keyboard {
	return s.active
}

// SetActiveKeyboard implements seat.Seat.
func (s *Server) SetActiveKeyboard(kb seat.Keyboard) {
	s.active = kb
	msg := imewire.Message{Type: imewire.TypeKeyboard}
	if k, ok := kb.(*Keyboard); ok && k != nil {
		msg.Name = k.name
		msg.Emulated = k.emulated
	}
	s.broadcast(msg)

	// Focus changes re-announce the layout in effect, like wl_keyboard does
	// on capability grant.
	if kb != nil {
		if km := kb.Keymap(); km != nil {
			s.broadcastKeymap(km)
		}
	}
}

// NotifyModifiers implements seat.Seat.
func (s *Server) NotifyModifiers(mods xkb.ModifierState) {
	if k, ok := s.active.(*Keyboard); ok && k != nil {
		k.mods = mods
	}
	s.broadcast(imewire.Message{
		Type:      imewire.TypeModifiers,
		Depressed: uint32(mods.Depressed),
		Latched:   uint32(mods.Latched),
		Locked:    uint32(mods.Locked),
		Group:     mods.Group,
	})
}

// NotifyKey implements seat.Seat.
func (s *Server) NotifyKey(timeMs, keycode uint32, state seat.KeyState) {
	s.broadcast(imewire.Message{
		Type:    imewire.TypeKey,
		Time:    timeMs,
		Keycode: keycode,
		Pressed: state == seat.KeyPressed,
	})
}

func (s *Server) broadcastKeymap(km xkb.Keymap) {
	// Only keymaps that can serialize themselves are forwarded; observers
	// without the text still get the key events.
	text, ok := keymapText(km)
	if !ok {
		return
	}
	s.broadcast(imewire.Message{Type: imewire.TypeKeymap, Keymap: text})
}

func keymapText(km xkb.Keymap) (string, bool) {
	t, ok := km.(interface{ Text() string })
	if !ok {
		return "", false
	}
	return t.Text(), true
}

func (s *Server) broadcast(msg imewire.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("marshal broadcast", "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for o := range s.observers {
		select {
		case o.send <- data:
		default:
			// A stalled observer loses events rather than stalling typing.
		}
	}
}

// observer is a connection watching the output side.
type observer struct {
	conn *websocket.Conn
	send chan []byte
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("observer upgrade failed", "error", err)
		return
	}

	o := &observer{conn: conn, send: make(chan []byte, 64)}
	s.mu.Lock()
	s.observers[o] = struct{}{}
	s.mu.Unlock()
	s.log.Info("observer connected", "remote", conn.RemoteAddr())

	go func() {
		defer conn.Close()
		for data := range o.send {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				break
			}
		}
	}()

	// Drain until the peer goes away; observers send nothing meaningful.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.observers, o)
	s.mu.Unlock()
	close(o.send)
	s.log.Info("observer disconnected", "remote", conn.RemoteAddr())
}
