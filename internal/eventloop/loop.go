// Package eventloop provides the serial dispatch loop the emulator runs on.
//
// Everything that mutates input-method state happens on one goroutine:
// protocol requests are posted from transport goroutines, timer callbacks are
// posted when they fire. No locking is needed in code that only runs on the
// loop.
package eventloop

import (
	"context"
	"sync"
	"time"
)

// Loop runs posted functions one at a time on a single goroutine.
type Loop struct {
	ops  chan func()
	done chan struct{}
}

// New creates a loop. Run must be called before posted work executes.
func New() *Loop {
	return &Loop{
		ops:  make(chan func(), 64),
		done: make(chan struct{}),
	}
}

// Run processes posted functions until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case fn := <-l.ops:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// Done is closed once Run has returned. Work posted after that never
// executes, so callers waiting on a posted reply must also select on Done.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post schedules fn to run on the loop goroutine. It must not be called from
// the loop itself once the buffer could be full; loop-resident code should
// just call functions directly.
func (l *Loop) Post(fn func()) {
	select {
	case l.ops <- fn:
	case <-l.done:
	}
}

// Timer is a one-shot, re-armable timer whose callback runs on the loop.
type Timer struct {
	loop *Loop
	fn   func()

	mu sync.Mutex
	t  *time.Timer
}

// NewTimer creates a disarmed timer bound to fn.
func (l *Loop) NewTimer(fn func()) *Timer {
	return &Timer{loop: l, fn: fn}
}

// Arm schedules the timer to fire after d, replacing any pending fire.
func (t *Timer) Arm(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.t != nil {
		t.t.Stop()
	}
	t.t = time.AfterFunc(d, func() {
		t.loop.Post(t.fn)
	})
}

// Stop cancels any pending fire.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}
