package flow

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func newTestHold(clock *fakeClock, fired *int32) *Hold {
	return NewHold(DefaultHoldDuration, func() { atomic.AddInt32(fired, 1) },
		WithHoldClock(clock.Now), WithHoldTick(time.Millisecond))
}

func TestHold_CompletesOnce(t *testing.T) {
	clock := newFakeClock()
	var fired int32
	h := newTestHold(clock, &fired)

	result := h.Press()
	clock.Advance(DefaultHoldDuration / 2)
	waitFor(t, func() bool { return h.Progress() >= 0.5 })

	clock.Advance(DefaultHoldDuration)
	select {
	case ok := <-result:
		if !ok {
			t.Fatal("expected completion")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hold did not complete")
	}
	if atomic.LoadInt32(&fired) != 1 {
		t.Fatalf("expected one completion, got %d", fired)
	}
	if h.Progress() != 1 || h.Active() {
		t.Fatalf("expected full progress and idle hold, got %.2f active=%v", h.Progress(), h.Active())
	}
	if h.Release() {
		t.Fatal("release after completion must be a no-op")
	}
	time.Sleep(5 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 1 {
		t.Fatalf("completion fired again: %d", fired)
	}
}

func TestHold_ReleaseBeforeDurationNeverFires(t *testing.T) {
	clock := newFakeClock()
	var fired int32
	h := newTestHold(clock, &fired)

	for i := 0; i < 20; i++ {
		result := h.Press()
		clock.Advance(DefaultHoldDuration - time.Millisecond)
		waitFor(t, func() bool { return h.Progress() > 0.9 })
		if !h.Release() {
			t.Fatalf("press %d: expected active hold", i)
		}
		if ok := <-result; ok {
			t.Fatalf("press %d: released hold reported completion", i)
		}
		if h.Progress() != 0 {
			t.Fatalf("press %d: release must reset progress, got %.2f", i, h.Progress())
		}
	}
	if n := atomic.LoadInt32(&fired); n != 0 {
		t.Fatalf("expected zero completions, got %d", n)
	}
}

func TestHold_RepressRestartsProgress(t *testing.T) {
	clock := newFakeClock()
	var fired int32
	h := newTestHold(clock, &fired)

	first := h.Press()
	clock.Advance(time.Second)
	second := h.Press()
	if ok := <-first; ok {
		t.Fatal("superseded press must not complete")
	}

	clock.Advance(DefaultHoldDuration - time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Fatal("second press must measure from its own start")
	}
	clock.Advance(time.Millisecond)
	if ok := <-second; !ok {
		t.Fatal("expected second press to complete")
	}
	if n := atomic.LoadInt32(&fired); n != 1 {
		t.Fatalf("expected one completion, got %d", n)
	}
}

func TestHold_AwaitCancelled(t *testing.T) {
	clock := newFakeClock()
	var fired int32
	h := newTestHold(clock, &fired)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if h.Await(ctx) {
		t.Fatal("expected cancelled await to report release")
	}
	if atomic.LoadInt32(&fired) != 0 {
		t.Fatal("cancelled await must not fire")
	}
}

func TestHold_RealClock(t *testing.T) {
	var fired int32
	h := NewHold(20*time.Millisecond, func() { atomic.AddInt32(&fired, 1) }, WithHoldTick(time.Millisecond))
	if !h.Await(context.Background()) {
		t.Fatal("expected completion")
	}
	if h.Duration() != 20*time.Millisecond {
		t.Fatalf("unexpected duration %s", h.Duration())
	}
	if atomic.LoadInt32(&fired) != 1 {
		t.Fatalf("expected one completion, got %d", fired)
	}
}
