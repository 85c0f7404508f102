package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"notewise/internal/generation"
)

// FaultKind classifies why a unit failed. The kinds mirror the
// generation error taxonomy plus the failure modes only the pool
// itself can produce (panic, canceled).
type FaultKind string

const (
	FaultConfiguration    FaultKind = "configuration"
	FaultNetwork          FaultKind = "network"
	FaultModelUnavailable FaultKind = "model_unavailable"
	FaultEmptyResult      FaultKind = "empty_result"
	FaultUnsupportedOp    FaultKind = "unsupported_operation"
	FaultCanceled         FaultKind = "canceled"
	FaultPanic            FaultKind = "panic"
	FaultInternal         FaultKind = "internal"
)

// Fault is the error half of an Outcome. Trace carries a stack trace
// when the fault came from a recovered panic, and is empty otherwise.
type Fault struct {
	Kind    FaultKind
	Message string
	Trace   string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap maps the fault kind back to its sentinel so errors.Is keeps
// working for callers on the far side of the outcome channel.
func (f *Fault) Unwrap() error {
	switch f.Kind {
	case FaultConfiguration:
		return generation.ErrConfiguration
	case FaultNetwork:
		return generation.ErrNetwork
	case FaultModelUnavailable:
		return generation.ErrModelUnavailable
	case FaultEmptyResult:
		return generation.ErrEmptyResult
	case FaultUnsupportedOp:
		return generation.ErrUnsupportedOp
	case FaultCanceled:
		return context.Canceled
	default:
		return nil
	}
}

// FaultFromError converts an error into a Fault, classifying it by the
// generation sentinel it wraps.
func FaultFromError(err error) *Fault {
	return &Fault{Kind: classify(err), Message: err.Error()}
}

func classify(err error) FaultKind {
	switch {
	case errors.Is(err, generation.ErrConfiguration):
		return FaultConfiguration
	case errors.Is(err, generation.ErrNetwork):
		return FaultNetwork
	case errors.Is(err, generation.ErrModelUnavailable):
		return FaultModelUnavailable
	case errors.Is(err, generation.ErrEmptyResult):
		return FaultEmptyResult
	case errors.Is(err, generation.ErrUnsupportedOp):
		return FaultUnsupportedOp
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FaultCanceled
	default:
		return FaultInternal
	}
}

// Outcome is the terminal result of a unit: exactly one of Value or
// Fault is set. It is delivered exactly once on the unit's Handle.
type Outcome struct {
	Value any
	Fault *Fault
}

// Ok reports whether the unit succeeded.
func (o Outcome) Ok() bool {
	return o.Fault == nil
}

// ProgressFunc receives percentage progress in [0,100]. The pool wires
// it to the unit's Handle, which clamps out-of-range values and drops
// regressions, so implementations can report freely.
type ProgressFunc func(percent int)

// Unit is a single executable operation. Execute runs the work and
// returns its result value or an error; it must honor ctx cancellation
// on blocking calls. Units are one-shot and never retried.
type Unit interface {
	// ID returns the unit's unique identifier
	ID() uuid.UUID

	// Kind returns the operation kind identifier used in logs
	Kind() string

	// Execute runs the unit. report may be called with coarse progress;
	// it is safe to ignore.
	Execute(ctx context.Context, report ProgressFunc) (any, error)
}

// funcUnit adapts a closure into a Unit.
type funcUnit struct {
	id   uuid.UUID
	kind string
	fn   func(ctx context.Context, report ProgressFunc) (any, error)
}

// NewFunc wraps fn as a Unit with a fresh ID.
func NewFunc(kind string, fn func(ctx context.Context, report ProgressFunc) (any, error)) Unit {
	return &funcUnit{id: uuid.New(), kind: kind, fn: fn}
}

func (u *funcUnit) ID() uuid.UUID { return u.id }
func (u *funcUnit) Kind() string  { return u.kind }

func (u *funcUnit) Execute(ctx context.Context, report ProgressFunc) (any, error) {
	return u.fn(ctx, report)
}
