package enhance

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSessionHappyPath(t *testing.T) {
	t.Parallel()

	s := NewSession(discardLogger())
	assert.Equal(t, StateNone, s.State)
	assert.False(t, s.IsActive())

	require.True(t, s.Start(1, "note text", nil))
	assert.Equal(t, StateStarted, s.State)
	assert.True(t, s.IsActive())
	assert.NotEqual(t, s.ID.String(), "00000000-0000-0000-0000-000000000000")

	require.True(t, s.EntitiesExtracted([]string{"Go", "Google"}))
	assert.Equal(t, StateEntitiesExtracted, s.State)

	require.True(t, s.GeneratingEnhancement("prompt"))
	assert.Equal(t, StateAwaitingEnhancement, s.State)
	assert.Equal(t, "prompt", s.Prompt)

	require.True(t, s.EnhancementGenerated("better note"))
	assert.Equal(t, StateEnhancementReceived, s.State)

	require.True(t, s.Accept())
	assert.Equal(t, StateAccepted, s.State)
	assert.False(t, s.IsActive())
}

func TestSessionRefinementLoop(t *testing.T) {
	t.Parallel()

	s := NewSession(discardLogger())
	require.True(t, s.Start(1, "original", nil))
	require.True(t, s.EntitiesExtracted(nil))
	require.True(t, s.GeneratingEnhancement("p1"))
	require.True(t, s.EnhancementGenerated("draft one"))

	// Two refinement rounds; the generated text is replaced each time
	// while the original text never changes.
	require.True(t, s.StartRefinement("shorter"))
	assert.Equal(t, StateRefining, s.State)
	require.True(t, s.GeneratingEnhancement("p2"))
	require.True(t, s.EnhancementGenerated("draft two"))

	require.True(t, s.StartRefinement("even shorter"))
	require.True(t, s.GeneratingEnhancement("p3"))
	require.True(t, s.EnhancementGenerated("draft three"))

	assert.Equal(t, "draft three", s.GeneratedText)
	assert.Equal(t, "original", s.OriginalText)
	assert.Equal(t, "even shorter", s.Feedback)
	require.True(t, s.Reject())
	assert.False(t, s.IsActive())
}

func TestSessionInvalidTransitionsLeaveStateUntouched(t *testing.T) {
	t.Parallel()

	s := NewSession(discardLogger())
	require.True(t, s.Start(1, "text", nil))
	require.True(t, s.EntitiesExtracted([]string{"Go"}))

	before := *s

	assert.False(t, s.EnhancementGenerated("too early"))
	assert.False(t, s.StartRefinement("too early"))
	assert.False(t, s.Accept())
	assert.False(t, s.Reject())
	assert.False(t, s.EntitiesExtracted([]string{"again"}))

	assert.Equal(t, before.State, s.State)
	assert.Equal(t, before.Entities, s.Entities)
	assert.Empty(t, s.GeneratedText)
	assert.Empty(t, s.Feedback)
}

func TestSessionStartWhileActiveRejected(t *testing.T) {
	t.Parallel()

	s := NewSession(discardLogger())
	require.True(t, s.Start(1, "first", nil))
	firstID := s.ID

	assert.False(t, s.Start(2, "second", nil))
	assert.Equal(t, firstID, s.ID)
	assert.Equal(t, "first", s.OriginalText)
	assert.Equal(t, uint64(1), s.Generation)
}

func TestSessionFail(t *testing.T) {
	t.Parallel()

	t.Run("fails from any active state", func(t *testing.T) {
		t.Parallel()
		s := NewSession(discardLogger())
		require.True(t, s.Start(1, "text", nil))
		require.True(t, s.Fail("backend unreachable"))
		assert.Equal(t, StateError, s.State)
		assert.Equal(t, "backend unreachable", s.ErrMessage)
		assert.False(t, s.IsActive())
	})

	t.Run("ignored on terminal sessions", func(t *testing.T) {
		t.Parallel()
		s := NewSession(discardLogger())
		require.True(t, s.Start(1, "text", nil))
		require.True(t, s.Fail("first"))
		assert.False(t, s.Fail("second"))
		assert.Equal(t, "first", s.ErrMessage)
	})

	t.Run("start is allowed again after error", func(t *testing.T) {
		t.Parallel()
		s := NewSession(discardLogger())
		require.True(t, s.Start(1, "text", nil))
		require.True(t, s.Fail("boom"))
		require.True(t, s.Start(2, "retry", nil))
		assert.Equal(t, StateStarted, s.State)
		assert.Empty(t, s.ErrMessage)
	})
}
