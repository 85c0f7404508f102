package enhance

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"notewise/internal/websearch"
)

// State is one node of the enhancement session state machine.
type State string

const (
	StateNone                State = "none"
	StateStarted             State = "started"
	StateEntitiesExtracted   State = "entities_extracted"
	StateAwaitingEnhancement State = "awaiting_enhancement"
	StateEnhancementReceived State = "enhancement_received"
	StateRefining            State = "refining"
	StateAccepted            State = "accepted"
	StateRejected            State = "rejected"
	StateError               State = "error"
)

// Selection is the optional range of the note the enhancement targets.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Session is the stateful record of one end-to-end enhancement request.
// It is not safe for concurrent use: the owning Service serializes all
// access, so transitions are effectively single-writer.
//
// Transition methods validate the current state first. An invalid call
// logs a warning and leaves both the state and the session data
// untouched; it never panics or errors, so duplicate or late pipeline
// callbacks are harmless.
type Session struct {
	ID uuid.UUID

	// Generation discriminates this session from earlier ones: pipeline
	// callbacks carry the generation they were started under, and the
	// Service drops callbacks whose generation no longer matches.
	Generation uint64

	State         State
	OriginalText  string
	Selection     *Selection
	Entities      []string
	SearchResults map[string][]websearch.Result
	Pages         []websearch.Page
	Answers       map[string]string
	Prompt        string
	GeneratedText string
	Feedback      string
	ErrMessage    string
	StartedAt     time.Time

	logger *slog.Logger
}

// NewSession returns an inactive session.
func NewSession(logger *slog.Logger) *Session {
	return &Session{State: StateNone, logger: logger}
}

// IsActive reports whether an enhancement is in flight. Terminal and
// initial states are inactive.
func (s *Session) IsActive() bool {
	switch s.State {
	case StateNone, StateAccepted, StateRejected, StateError:
		return false
	default:
		return true
	}
}

// Start resets the session and begins a new enhancement. Valid from any
// inactive state; the Service enforces its concurrency policy before
// calling this.
func (s *Session) Start(generation uint64, text string, sel *Selection) bool {
	if s.IsActive() {
		s.warnInvalid("start")
		return false
	}

	*s = Session{
		ID:           uuid.New(),
		Generation:   generation,
		State:        StateStarted,
		OriginalText: text,
		Selection:    sel,
		StartedAt:    time.Now().UTC(),
		logger:       s.logger,
	}
	return true
}

// EntitiesExtracted records the extraction result. Valid from started.
func (s *Session) EntitiesExtracted(entities []string) bool {
	if s.State != StateStarted {
		s.warnInvalid("entities_extracted")
		return false
	}
	s.Entities = entities
	s.State = StateEntitiesExtracted
	return true
}

// GeneratingEnhancement records the prompt and moves to
// awaiting_enhancement. Valid from entities_extracted, started (the
// no-entity shortcut), or refining.
func (s *Session) GeneratingEnhancement(prompt string) bool {
	switch s.State {
	case StateEntitiesExtracted, StateStarted, StateRefining:
		s.Prompt = prompt
		s.State = StateAwaitingEnhancement
		return true
	default:
		s.warnInvalid("generating_enhancement")
		return false
	}
}

// EnhancementGenerated stores the generated text. Valid only from
// awaiting_enhancement.
func (s *Session) EnhancementGenerated(text string) bool {
	if s.State != StateAwaitingEnhancement {
		s.warnInvalid("enhancement_generated")
		return false
	}
	s.GeneratedText = text
	s.State = StateEnhancementReceived
	return true
}

// StartRefinement records feedback for another generation round. Valid
// only from enhancement_received.
func (s *Session) StartRefinement(feedback string) bool {
	if s.State != StateEnhancementReceived {
		s.warnInvalid("start_refinement")
		return false
	}
	s.Feedback = feedback
	s.State = StateRefining
	return true
}

// Accept finishes the session with the enhancement applied. Valid only
// from enhancement_received.
func (s *Session) Accept() bool {
	if s.State != StateEnhancementReceived {
		s.warnInvalid("enhancement_accepted")
		return false
	}
	s.State = StateAccepted
	return true
}

// Reject finishes the session discarding the enhancement. Valid only
// from enhancement_received.
func (s *Session) Reject() bool {
	if s.State != StateEnhancementReceived {
		s.warnInvalid("enhancement_rejected")
		return false
	}
	s.State = StateRejected
	return true
}

// Fail moves the session to the terminal error state. Valid from any
// state; on an already-terminal session it is ignored like any other
// invalid transition.
func (s *Session) Fail(message string) bool {
	switch s.State {
	case StateAccepted, StateRejected, StateError:
		s.warnInvalid("enhancement_error")
		return false
	}
	s.ErrMessage = message
	s.State = StateError
	return true
}

func (s *Session) warnInvalid(transition string) {
	s.logger.Warn("invalid session transition ignored",
		"transition", transition,
		"current_state", s.State,
		"session_id", s.ID)
}
