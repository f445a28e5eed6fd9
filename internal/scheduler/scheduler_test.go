package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedDelaySchedulerRunsAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewFixedDelayScheduler(ctx, 10*time.Millisecond)
	s.Name = "test"
	s.RunImmediately = true

	var runs atomic.Int32
	done := make(chan struct{})
	go func() {
		s.Start(func() { runs.Add(1) })
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

func TestFixedDelaySchedulerWaitsAfterCompletion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewFixedDelayScheduler(ctx, 30*time.Millisecond)
	s.RunImmediately = true

	var stamps []time.Time
	done := make(chan struct{})
	go func() {
		s.Start(func() {
			stamps = append(stamps, time.Now())
			time.Sleep(20 * time.Millisecond)
			if len(stamps) >= 3 {
				cancel()
			}
		})
		close(done)
	}()
	<-done

	// Delay counts from completion, so consecutive starts are at least
	// task duration + interval apart.
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), 45*time.Millisecond)
	}
}

func TestFixedDelaySchedulerRejectsBadInputs(t *testing.T) {
	s := NewFixedDelayScheduler(context.Background(), 0)
	finished := make(chan struct{})
	go func() {
		s.Start(func() {})
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("scheduler with zero interval should exit immediately")
	}
}
