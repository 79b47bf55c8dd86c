package eventloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostRunsInOrder(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	defer cancel()

	results := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		i := i
		loop.Post(func() { results <- i })
	}

	for want := 1; want <= 3; want++ {
		select {
		case got := <-results:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatal("loop did not run posted work")
		}
	}
}

func TestTimerFiresOnLoop(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	defer cancel()

	fired := make(chan struct{})
	timer := loop.NewTimer(func() { close(fired) })
	timer.Arm(5 * time.Millisecond)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimerRearmReplacesPendingFire(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	defer cancel()

	fires := make(chan struct{}, 4)
	timer := loop.NewTimer(func() { fires <- struct{}{} })

	timer.Arm(20 * time.Millisecond)
	timer.Arm(20 * time.Millisecond)
	timer.Arm(20 * time.Millisecond)

	select {
	case <-fires:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	select {
	case <-fires:
		t.Fatal("re-armed timer fired more than once")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestTimerStop(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	defer cancel()

	fires := make(chan struct{}, 1)
	timer := loop.NewTimer(func() { fires <- struct{}{} })
	timer.Arm(10 * time.Millisecond)
	timer.Stop()

	select {
	case <-fires:
		t.Fatal("stopped timer fired")
	case <-time.After(50 * time.Millisecond):
	}
}
