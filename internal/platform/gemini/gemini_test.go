package gemini

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewise/internal/generation"
)

type fakeCaller struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeCaller) generateText(_ context.Context, _ string, prompt string) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", fmt.Errorf("%w: fake exhausted", generation.ErrNetwork)
}

func testProvider(caller contentCaller) *Provider {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newWithCaller(logger, Config{
		APIKey:     "unused",
		ModelName:  "gemini-2.0-flash",
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, caller)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(context.Background(), nil, Config{APIKey: "k", ModelName: "m"})
	assert.Error(t, err)

	_, err = New(context.Background(), logger, Config{ModelName: "m"})
	assert.ErrorIs(t, err, generation.ErrConfiguration)

	_, err = New(context.Background(), logger, Config{APIKey: "k"})
	assert.ErrorIs(t, err, generation.ErrConfiguration)
}

func TestGenerateSuccess(t *testing.T) {
	t.Parallel()
	caller := &fakeCaller{responses: []string{"  generated text  "}}
	p := testProvider(caller)

	got, err := p.Generate(context.Background(), "write something")
	require.NoError(t, err)
	assert.Equal(t, "generated text", got)
	assert.Equal(t, 1, caller.calls)
}

func TestRetryOnTransientError(t *testing.T) {
	t.Parallel()
	caller := &fakeCaller{
		errs:      []error{fmt.Errorf("%w: 503", generation.ErrNetwork), fmt.Errorf("%w: 503", generation.ErrNetwork)},
		responses: []string{"", "", "third time lucky"},
	}
	p := testProvider(caller)

	got, err := p.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", got)
	assert.Equal(t, 3, caller.calls)
}

func TestRetriesExhausted(t *testing.T) {
	t.Parallel()
	transient := fmt.Errorf("%w: unreachable", generation.ErrNetwork)
	caller := &fakeCaller{errs: []error{transient, transient, transient}}
	p := testProvider(caller)

	_, err := p.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrModelUnavailable)
	assert.Equal(t, 3, caller.calls, "MaxRetries=2 means three attempts total")
}

func TestPermanentErrorNotRetried(t *testing.T) {
	t.Parallel()
	blocked := fmt.Errorf("%w: content blocked by safety filters", generation.ErrEmptyResult)
	caller := &fakeCaller{errs: []error{blocked}}
	p := testProvider(caller)

	_, err := p.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, generation.ErrEmptyResult)
	assert.Equal(t, 1, caller.calls)
}

func TestEmptyResponseIsPermanent(t *testing.T) {
	t.Parallel()
	caller := &fakeCaller{responses: []string{"   "}}
	p := testProvider(caller)

	_, err := p.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, generation.ErrEmptyResult)
	assert.Equal(t, 1, caller.calls)
}

func TestSummarizeWrapsText(t *testing.T) {
	t.Parallel()
	caller := &fakeCaller{responses: []string{"short version"}}
	p := testProvider(caller)

	_, err := p.Summarize(context.Background(), "a long body of text")
	require.NoError(t, err)
	require.Len(t, caller.prompts, 1)
	assert.Contains(t, caller.prompts[0], "Summarize")
	assert.Contains(t, caller.prompts[0], "a long body of text")
}

func TestAnswerIncludesQuestionAndContext(t *testing.T) {
	t.Parallel()
	caller := &fakeCaller{responses: []string{"the answer"}}
	p := testProvider(caller)

	got, err := p.Answer(context.Background(), "What is X?", "X is a thing.")
	require.NoError(t, err)
	assert.Equal(t, "the answer", got)
	require.Len(t, caller.prompts, 1)
	assert.Contains(t, caller.prompts[0], "What is X?")
	assert.Contains(t, caller.prompts[0], "X is a thing.")
}

func TestEmptyInputRejectedBeforeCall(t *testing.T) {
	t.Parallel()
	caller := &fakeCaller{}
	p := testProvider(caller)

	_, err := p.Summarize(context.Background(), "   ")
	assert.ErrorIs(t, err, generation.ErrEmptyResult)
	assert.Zero(t, caller.calls)
}
