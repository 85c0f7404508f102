package backend

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewise/internal/config"
	"notewise/internal/generation"
	"notewise/internal/task"
	"notewise/internal/websearch"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAIConfig(backend string) config.AIConfig {
	return config.AIConfig{
		Backend:              backend,
		GeminiModelID:        "gemini-2.0-flash",
		SummarizationModelID: "facebook/bart-large-cnn",
		GenerationModelID:    "gpt2",
		QAModelID:            "deepset/roberta-base-squad2",
		MaxSearchEntities:    3,
		MaxLinksForQnA:       3,
		MaxQuestions:         3,
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty backend defaults to local", func(t *testing.T) {
		t.Parallel()
		ai, name, err := Resolve(ctx, testLogger(), testAIConfig(""))
		require.NoError(t, err)
		assert.Equal(t, ProviderLocal, name)
		assert.NotNil(t, ai)
	})

	t.Run("local", func(t *testing.T) {
		t.Parallel()
		_, name, err := Resolve(ctx, testLogger(), testAIConfig("local"))
		require.NoError(t, err)
		assert.Equal(t, ProviderLocal, name)
	})

	t.Run("gemini without key is a configuration error", func(t *testing.T) {
		t.Parallel()
		_, _, err := Resolve(ctx, testLogger(), testAIConfig("gemini"))
		require.Error(t, err)
		assert.ErrorIs(t, err, generation.ErrConfiguration)
		assert.Contains(t, err.Error(), "gemini_api_key")
	})

	t.Run("hfapi without key is a configuration error", func(t *testing.T) {
		t.Parallel()
		_, _, err := Resolve(ctx, testLogger(), testAIConfig("hfapi"))
		require.Error(t, err)
		assert.ErrorIs(t, err, generation.ErrConfiguration)
		assert.Contains(t, err.Error(), "hf_api_key")
	})

	t.Run("hfapi with key resolves", func(t *testing.T) {
		t.Parallel()
		cfg := testAIConfig("hfapi")
		cfg.HFAPIKey = "hf-key"
		ai, name, err := Resolve(ctx, testLogger(), cfg)
		require.NoError(t, err)
		assert.Equal(t, ProviderHFAPI, name)
		assert.NotNil(t, ai)
	})

	t.Run("unknown backend rejected", func(t *testing.T) {
		t.Parallel()
		_, _, err := Resolve(ctx, testLogger(), testAIConfig("watson"))
		assert.ErrorIs(t, err, generation.ErrConfiguration)
	})
}

type fakeAI struct{}

func (fakeAI) Summarize(_ context.Context, text string) (string, error) { return "sum:" + text, nil }
func (fakeAI) Generate(_ context.Context, prompt string) (string, error) {
	return "gen:" + prompt, nil
}
func (fakeAI) Answer(_ context.Context, q, _ string) (string, error) { return "ans:" + q, nil }

type fakeSearch struct{}

func (fakeSearch) Search(_ context.Context, query string, max int) ([]websearch.Result, error) {
	results := []websearch.Result{
		{Title: "r1 " + query, URL: "https://example.com/1"},
		{Title: "r2 " + query, URL: "https://example.com/2"},
	}
	if max > 0 && max < len(results) {
		results = results[:max]
	}
	return results, nil
}

func (fakeSearch) Fetch(_ context.Context, pageURL string) (websearch.Page, error) {
	return websearch.Page{URL: pageURL, Title: "page", Content: "content of " + pageURL}, nil
}

func runUnit(t *testing.T, u task.Unit) any {
	t.Helper()
	value, err := u.Execute(context.Background(), func(int) {})
	require.NoError(t, err)
	return value
}

func TestFactoryUnits(t *testing.T) {
	t.Parallel()
	f := NewFactory(ProviderLocal, fakeAI{}, fakeSearch{})

	t.Run("extract entities", func(t *testing.T) {
		t.Parallel()
		u, err := f.NewUnit(OpExtractEntities, Request{Text: "Ada Lovelace met Charles Babbage.", Max: 5})
		require.NoError(t, err)
		names, ok := runUnit(t, u).([]string)
		require.True(t, ok)
		assert.Contains(t, names, "Ada Lovelace")
	})

	t.Run("search", func(t *testing.T) {
		t.Parallel()
		u, err := f.NewUnit(OpSearch, Request{Query: "ada lovelace", Max: 1})
		require.NoError(t, err)
		results, ok := runUnit(t, u).([]websearch.Result)
		require.True(t, ok)
		assert.Len(t, results, 1)
	})

	t.Run("fetch", func(t *testing.T) {
		t.Parallel()
		u, err := f.NewUnit(OpFetch, Request{URL: "https://example.com/1"})
		require.NoError(t, err)
		page, ok := runUnit(t, u).(websearch.Page)
		require.True(t, ok)
		assert.Equal(t, "https://example.com/1", page.URL)
	})

	t.Run("summarize", func(t *testing.T) {
		t.Parallel()
		u, err := f.NewUnit(OpSummarize, Request{Text: "Some text worth summarizing."})
		require.NoError(t, err)
		summary, ok := runUnit(t, u).(string)
		require.True(t, ok)
		assert.NotEmpty(t, summary)
	})

	t.Run("generate", func(t *testing.T) {
		t.Parallel()
		u, err := f.NewUnit(OpGenerate, Request{Prompt: "a prompt"})
		require.NoError(t, err)
		assert.Equal(t, "gen:a prompt", runUnit(t, u))
	})

	t.Run("answer", func(t *testing.T) {
		t.Parallel()
		u, err := f.NewUnit(OpAnswer, Request{Question: "What is Go?", Passage: "Go is a language."})
		require.NoError(t, err)
		assert.Equal(t, "ans:What is Go?", runUnit(t, u))
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()
		_, err := f.NewUnit(OpKind("translate"), Request{})
		require.Error(t, err)
		assert.ErrorIs(t, err, generation.ErrUnsupportedOp)
		assert.Contains(t, err.Error(), "translate")
	})
}
