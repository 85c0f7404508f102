package task

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is the caller's view of a submitted unit. Submission is
// fire-and-forget: the caller may drop the handle entirely, select on
// Done, or watch Progress, without affecting execution.
//
// Guarantees:
//   - Started is closed exactly once, before the unit's Execute runs.
//   - Done receives exactly one Outcome and is then closed. The channel
//     is buffered, so delivery never blocks the worker even if the
//     caller never reads it.
//   - Progress values are in [0,100] and non-decreasing. Updates are
//     coalesced: a slow reader sees fewer values, never values out of
//     order. Progress is closed after the outcome is delivered.
type Handle struct {
	id uuid.UUID

	started  chan struct{}
	done     chan Outcome
	progress chan int

	startOnce  sync.Once
	finishOnce sync.Once

	mu     sync.Mutex
	last   int
	closed bool
}

func newHandle(id uuid.UUID) *Handle {
	return &Handle{
		id:       id,
		started:  make(chan struct{}),
		done:     make(chan Outcome, 1),
		progress: make(chan int, 16),
	}
}

// ID returns the identifier of the underlying unit.
func (h *Handle) ID() uuid.UUID { return h.id }

// Started is closed when the unit begins executing.
func (h *Handle) Started() <-chan struct{} { return h.started }

// Done yields the unit's single terminal Outcome.
func (h *Handle) Done() <-chan Outcome { return h.done }

// Progress yields percentage updates in [0,100].
func (h *Handle) Progress() <-chan int { return h.progress }

func (h *Handle) markStarted() {
	h.startOnce.Do(func() { close(h.started) })
}

// report forwards a progress value, clamping to [0,100] and dropping
// regressions. Sends are non-blocking; when the buffer is full the
// stalest value is discarded to make room, so the latest wins.
func (h *Handle) report(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || percent <= h.last {
		return
	}
	h.last = percent

	for {
		select {
		case h.progress <- percent:
			return
		default:
			select {
			case <-h.progress:
			default:
			}
		}
	}
}

// finish delivers the terminal outcome exactly once. A success implies
// progress 100 before the outcome becomes visible.
func (h *Handle) finish(o Outcome) {
	h.finishOnce.Do(func() {
		h.markStarted()
		if o.Ok() {
			h.report(100)
		}
		h.done <- o
		close(h.done)

		h.mu.Lock()
		h.closed = true
		close(h.progress)
		h.mu.Unlock()
	})
}
