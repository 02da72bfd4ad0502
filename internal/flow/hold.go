package flow

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultHoldDuration is how long the confirm control must be held.
	DefaultHoldDuration = 1500 * time.Millisecond
	// DefaultHoldTick is the sampling interval, roughly one animation frame.
	DefaultHoldTick = 16 * time.Millisecond
)

// HoldOption customises a Hold.
type HoldOption func(*Hold)

// WithHoldClock replaces the clock used to measure elapsed press time.
func WithHoldClock(now func() time.Time) HoldOption {
	return func(h *Hold) {
		if now != nil {
			h.now = now
		}
	}
}

// WithHoldTick sets the sampling interval.
func WithHoldTick(d time.Duration) HoldOption {
	return func(h *Hold) {
		if d > 0 {
			h.tick = d
		}
	}
}

// Hold is a press-and-hold confirmation. A press completes once the control
// has been held for the full duration; releasing earlier cancels it and
// resets progress. onComplete runs exactly once per completed press.
type Hold struct {
	duration   time.Duration
	tick       time.Duration
	now        func() time.Time
	onComplete func()

	mu        sync.Mutex
	stop      chan struct{}
	startedAt time.Time
	progress  float64
}

// NewHold creates a Hold firing onComplete after duration of continuous press.
func NewHold(duration time.Duration, onComplete func(), opts ...HoldOption) *Hold {
	if duration <= 0 {
		duration = DefaultHoldDuration
	}
	h := &Hold{
		duration:   duration,
		tick:       DefaultHoldTick,
		now:        time.Now,
		onComplete: onComplete,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Press starts a new press, cancelling any press in progress. The returned
// channel yields true if this press completed and false if it was released.
func (h *Hold) Press() <-chan bool {
	result := make(chan bool, 1)

	h.mu.Lock()
	if h.stop != nil {
		close(h.stop)
	}
	stop := make(chan struct{})
	h.stop = stop
	h.startedAt = h.now()
	h.progress = 0
	h.mu.Unlock()

	go h.run(stop, result)
	return result
}

// Release cancels the active press. It reports whether a press was cancelled.
func (h *Hold) Release() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop == nil {
		return false
	}
	close(h.stop)
	h.stop = nil
	h.progress = 0
	return true
}

// Await presses and blocks until the press completes or ctx is done, which
// counts as a release.
func (h *Hold) Await(ctx context.Context) bool {
	result := h.Press()
	select {
	case ok := <-result:
		return ok
	case <-ctx.Done():
		h.Release()
		return <-result
	}
}

// Active reports whether a press is in progress.
func (h *Hold) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stop != nil
}

// Progress is the fraction of the current press completed, in [0,1].
func (h *Hold) Progress() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.progress
}

// Duration is the hold time required for completion.
func (h *Hold) Duration() time.Duration { return h.duration }

func (h *Hold) run(stop chan struct{}, result chan<- bool) {
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			result <- false
			return
		case <-ticker.C:
			if h.advance(stop) {
				if h.onComplete != nil {
					h.onComplete()
				}
				result <- true
				return
			}
		}
	}
}

// advance samples elapsed time for the press owning stop and reports completion.
func (h *Hold) advance(stop chan struct{}) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != stop {
		return false
	}
	elapsed := h.now().Sub(h.startedAt)
	if elapsed >= h.duration {
		h.progress = 1
		h.stop = nil
		return true
	}
	if elapsed < 0 {
		elapsed = 0
	}
	h.progress = float64(elapsed) / float64(h.duration)
	return false
}
