package generation

import "context"

// Summarizer condenses a piece of text.
type Summarizer interface {
	// Summarize returns a condensed version of the given text. It returns
	// ErrEmptyResult (possibly wrapped) if the provider produces nothing
	// usable.
	Summarize(ctx context.Context, text string) (string, error)
}

// Generator produces free-form text from a prompt. This interface is the
// boundary between the enhancement pipeline and external AI services; the
// pipeline never sees which backend is behind it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Answerer answers a question against a supplied context passage.
type Answerer interface {
	Answer(ctx context.Context, question, passage string) (string, error)
}

// Provider bundles the three AI operations a backend must offer.
type Provider interface {
	Summarizer
	Generator
	Answerer
}
