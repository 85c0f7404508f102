package backend

import (
	"context"
	"fmt"

	"notewise/internal/entities"
	"notewise/internal/generation"
	"notewise/internal/task"
	"notewise/internal/websearch"
)

// Searcher is the slice of the websearch client the factory needs.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]websearch.Result, error)
	Fetch(ctx context.Context, pageURL string) (websearch.Page, error)
}

// Request carries the inputs for a unit. Only the fields relevant to
// the requested operation kind are read; Max caps list-producing
// operations (0 means the operation's own default).
type Request struct {
	Text     string
	Prompt   string
	Question string
	Passage  string
	Query    string
	URL      string
	Max      int
}

// Factory builds task units bound to the resolved provider. A unit's
// result type depends on its kind:
//
//	OpExtractEntities -> []string
//	OpSearch          -> []websearch.Result
//	OpFetch           -> websearch.Page
//	OpSummarize       -> string
//	OpGenerate        -> string
//	OpAnswer          -> string
type Factory struct {
	provider Provider
	ai       generation.Provider
	search   Searcher
}

// NewFactory wires a factory to a resolved provider and search client.
func NewFactory(provider Provider, ai generation.Provider, search Searcher) *Factory {
	return &Factory{provider: provider, ai: ai, search: search}
}

// Provider returns which backend this factory binds units to.
func (f *Factory) Provider() Provider { return f.provider }

// NewUnit builds the unit for one operation. The kind switch is
// exhaustive over the closed OpKind set; anything else is
// ErrUnsupportedOp, raised here so the caller learns about it before
// submission instead of through a task fault.
func (f *Factory) NewUnit(kind OpKind, req Request) (task.Unit, error) {
	switch kind {
	case OpExtractEntities:
		text := req.Text
		max := req.Max
		return task.NewFunc(string(kind), func(ctx context.Context, _ task.ProgressFunc) (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return entities.Extract(text, max), nil
		}), nil

	case OpSearch:
		query := req.Query
		max := req.Max
		return task.NewFunc(string(kind), func(ctx context.Context, _ task.ProgressFunc) (any, error) {
			results, err := f.search.Search(ctx, query, max)
			if err != nil {
				return nil, err
			}
			return results, nil
		}), nil

	case OpFetch:
		pageURL := req.URL
		return task.NewFunc(string(kind), func(ctx context.Context, _ task.ProgressFunc) (any, error) {
			page, err := f.search.Fetch(ctx, pageURL)
			if err != nil {
				return nil, err
			}
			return page, nil
		}), nil

	case OpSummarize:
		text := req.Text
		return task.NewFunc(string(kind), func(ctx context.Context, report task.ProgressFunc) (any, error) {
			summary, err := generation.SummarizeLong(ctx, f.ai, text, func(p int) { report(p) })
			if err != nil {
				return nil, err
			}
			return summary, nil
		}), nil

	case OpGenerate:
		prompt := req.Prompt
		return task.NewFunc(string(kind), func(ctx context.Context, _ task.ProgressFunc) (any, error) {
			text, err := f.ai.Generate(ctx, prompt)
			if err != nil {
				return nil, err
			}
			return text, nil
		}), nil

	case OpAnswer:
		question, passage := req.Question, req.Passage
		return task.NewFunc(string(kind), func(ctx context.Context, _ task.ProgressFunc) (any, error) {
			answer, err := f.ai.Answer(ctx, question, passage)
			if err != nil {
				return nil, err
			}
			return answer, nil
		}), nil

	default:
		return nil, fmt.Errorf("%w: operation %q for provider %q",
			generation.ErrUnsupportedOp, kind, f.provider)
	}
}
