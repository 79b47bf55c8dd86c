package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"imekbd/internal/eventloop"
	"imekbd/internal/ime"
)

func TestDaemonRepliesAfterLoopExit(t *testing.T) {
	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loop.Run(ctx)

	// The loop is gone, so the posted snapshot closure never runs; control
	// requests racing shutdown still have to get an answer.
	d := &daemon{loop: loop}

	statusCh := make(chan ime.Status, 1)
	go func() { statusCh <- d.Status() }()
	select {
	case st := <-statusCh:
		assert.False(t, st.Active)
	case <-time.After(2 * time.Second):
		t.Fatal("Status hung after loop exit")
	}

	resetCh := make(chan bool, 1)
	go func() { resetCh <- d.ResetKeys() }()
	select {
	case ok := <-resetCh:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("ResetKeys hung after loop exit")
	}
}
