// Package task provides asynchronous execution of one-shot operation
// units on a bounded worker pool. Each submitted unit gets a Handle
// carrying its lifecycle: a started signal, a progress side-channel,
// and exactly one terminal Outcome (value or classified Fault). Panics
// inside a unit are recovered into a Fault with a stack trace; they
// never take down a worker.
package task
