package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imekbd/internal/eventloop"
	"imekbd/internal/ime"
	"imekbd/internal/imewire"
	"imekbd/internal/xkb"
)

// compilerStub satisfies xkb.Compiler for wiring that never commits text.
type compilerStub struct{}

func (compilerStub) Compile(string) (xkb.Keymap, error) {
	return nil, errors.New("not implemented")
}

func newTestServer(t *testing.T) (*Server, *ime.Manager, *eventloop.Loop) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	loop := eventloop.New()
	srv := New(log, loop)
	mgr, err := ime.NewManager(ime.Options{
		Seat:            srv,
		DefaultKeyboard: srv.NewDefaultKeyboard("default", nil),
		NewKeyboard:     srv.NewKeyboard,
		Compiler:        compilerStub{},
		Loop:            loop,
		Log:             log,
	})
	require.NoError(t, err)
	srv.SetManager(mgr)
	return srv, mgr, loop
}

func TestDisconnectAfterQueuedCreateSession(t *testing.T) {
	srv, mgr, loop := newTestServer(t)

	c := &imeClient{srv: srv, send: make(chan []byte, 16)}

	// The loop is not running yet, so both closures queue in the order the
	// handler produces them when a client asks for a session and drops the
	// connection at once: the dispatch first, the teardown after it.
	srv.dispatch(c, &imewire.Message{Type: imewire.TypeCreateSession})
	srv.teardown(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	// The done notice lands before the channel closes; nothing panics.
	var notices [][]byte
	for data := range c.send {
		notices = append(notices, data)
	}
	require.Len(t, notices, 1)

	var msg imewire.Message
	require.NoError(t, json.Unmarshal(notices[0], &msg))
	assert.Equal(t, imewire.TypeDone, msg.Type)
	assert.Equal(t, uint32(1), msg.Serial)

	// The teardown also released the session.
	done := make(chan struct{})
	loop.Post(func() {
		assert.Nil(t, mgr.Active())
		close(done)
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event loop stalled")
	}
}

func TestTeardownWithoutSession(t *testing.T) {
	srv, _, loop := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	c := &imeClient{srv: srv, send: make(chan []byte, 16)}
	srv.teardown(c)

	select {
	case _, open := <-c.send:
		assert.False(t, open, "send channel should be closed with no notices")
	case <-time.After(2 * time.Second):
		t.Fatal("send channel never closed")
	}
}
