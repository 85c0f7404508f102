package enhance

import (
	"errors"
	"fmt"

	"notewise/internal/generation"
)

// Errors surfaced by the enhancement service.
var (
	// ErrNoContent means every fetch in a session failed or produced
	// empty text, so there was nothing to ground the enhancement on. It
	// matches generation.ErrEmptyResult.
	ErrNoContent = fmt.Errorf("%w: no content fetched for any link", generation.ErrEmptyResult)

	// ErrSessionActive rejects a second enhancement while one is in
	// flight. Callers wanting queueing implement it on their side.
	ErrSessionActive = errors.New("an enhancement session is already active")

	// ErrNoSession means the requested operation needs a session in a
	// specific state and there is none.
	ErrNoSession = errors.New("no enhancement session in the required state")
)
