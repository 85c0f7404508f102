package localai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewise/internal/generation"
)

const passage = "Ada Lovelace was an English mathematician. " +
	"She worked on Charles Babbage's Analytical Engine. " +
	"Her notes contain what many consider the first computer program. " +
	"Lovelace saw that the machine could go beyond pure calculation. " +
	"She died in 1852 at the age of thirty-six."

func TestSummarize(t *testing.T) {
	t.Parallel()
	p := New()

	t.Run("short text returned whole", func(t *testing.T) {
		t.Parallel()
		got, err := p.Summarize(context.Background(), "One sentence only.")
		require.NoError(t, err)
		assert.Equal(t, "One sentence only.", got)
	})

	t.Run("long text condensed in original order", func(t *testing.T) {
		t.Parallel()
		got, err := p.Summarize(context.Background(), passage)
		require.NoError(t, err)
		assert.Less(t, len(got), len(passage))

		// Selected sentences keep their original relative order.
		var positions []int
		for _, s := range strings.Split(got, ". ") {
			positions = append(positions, strings.Index(passage, strings.TrimSuffix(s, ".")))
		}
		for i := 1; i < len(positions); i++ {
			assert.Greater(t, positions[i], positions[i-1])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		_, err := p.Summarize(context.Background(), "  ")
		assert.ErrorIs(t, err, generation.ErrEmptyResult)
	})
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	p := New()

	t.Run("restructures the subject text", func(t *testing.T) {
		t.Parallel()
		prompt := "Rewrite the following note for clarity.\n\n" + passage
		got, err := p.Generate(context.Background(), prompt)
		require.NoError(t, err)
		assert.NotEmpty(t, got)
		assert.Contains(t, got, "- ", "long subjects gain a key-point list")
		assert.NotContains(t, got, "Rewrite the following", "instructions must not leak into output")
	})

	t.Run("empty prompt", func(t *testing.T) {
		t.Parallel()
		_, err := p.Generate(context.Background(), "")
		assert.ErrorIs(t, err, generation.ErrEmptyResult)
	})
}

func TestAnswer(t *testing.T) {
	t.Parallel()
	p := New()

	t.Run("picks best overlapping sentence", func(t *testing.T) {
		t.Parallel()
		got, err := p.Answer(context.Background(), "What is the Analytical Engine?", passage)
		require.NoError(t, err)
		assert.Contains(t, got, "Analytical Engine")
	})

	t.Run("no overlap", func(t *testing.T) {
		t.Parallel()
		_, err := p.Answer(context.Background(), "What is quantum chromodynamics?", passage)
		assert.ErrorIs(t, err, generation.ErrEmptyResult)
	})

	t.Run("empty passage", func(t *testing.T) {
		t.Parallel()
		_, err := p.Answer(context.Background(), "What is anything?", " ")
		assert.ErrorIs(t, err, generation.ErrEmptyResult)
	})
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()
	p := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Summarize(ctx, passage)
	assert.ErrorIs(t, err, context.Canceled)
}
