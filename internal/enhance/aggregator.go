package enhance

import (
	"fmt"
	"sync"

	"notewise/internal/task"
)

// Item is one key's outcome inside a combined fan-out result: a value
// or the error that replaced it. Per-key failure is data, not control
// flow; the fan-out always runs to completion.
type Item[V any] struct {
	Value V
	Err   error
}

// Fanout fans one task unit out per key and fans the outcomes back in.
// The combined map is delivered to the emit callback exactly once,
// after every key has reported — immediately, if the key set is empty.
// Keys are deduplicated up front, so each appears in the result once.
//
// Outcome delivery order across keys is arbitrary; correctness rests
// only on the pending counter.
type Fanout[V any] struct {
	emit func(map[string]Item[V])

	mu      sync.Mutex
	results map[string]Item[V]
	pending int
	emitted bool
}

// NewFanout creates an aggregator that calls emit with the combined
// result. emit runs on whichever goroutine completes the last key (or
// the Start caller for empty key sets).
func NewFanout[V any](emit func(map[string]Item[V])) *Fanout[V] {
	return &Fanout[V]{emit: emit, results: make(map[string]Item[V])}
}

// Start launches one unit per distinct key. submit runs the key's unit
// and returns its handle; a synchronous submit failure (pool stopped,
// queue full) records as that key's error without aborting the rest.
func (f *Fanout[V]) Start(keys []string, submit func(key string) (*task.Handle, error)) {
	distinct := dedupe(keys)
	if len(distinct) == 0 {
		f.emit(map[string]Item[V]{})
		return
	}

	f.mu.Lock()
	f.pending = len(distinct)
	f.mu.Unlock()

	for _, key := range distinct {
		h, err := submit(key)
		if err != nil {
			f.complete(key, Item[V]{Err: err})
			continue
		}
		go func(key string, h *task.Handle) {
			f.complete(key, itemFromOutcome[V](<-h.Done()))
		}(key, h)
	}
}

// complete records one key's item and emits when the counter hits zero.
func (f *Fanout[V]) complete(key string, item Item[V]) {
	f.mu.Lock()
	if f.emitted {
		// Late or duplicate callback after completion; drop it.
		f.mu.Unlock()
		return
	}
	if _, dup := f.results[key]; dup {
		f.mu.Unlock()
		return
	}
	f.results[key] = item
	f.pending--
	done := f.pending == 0
	if done {
		f.emitted = true
	}
	combined := f.results
	f.mu.Unlock()

	if done {
		f.emit(combined)
	}
}

func itemFromOutcome[V any](o task.Outcome) Item[V] {
	if !o.Ok() {
		return Item[V]{Err: o.Fault}
	}
	v, ok := o.Value.(V)
	if !ok {
		return Item[V]{Err: fmt.Errorf("unexpected result type %T", o.Value)}
	}
	return Item[V]{Value: v}
}

// dedupe keeps first occurrences in order.
func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	var out []string
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
