package hfapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewise/internal/generation"
)

func testConfig() Config {
	return Config{
		APIKey:               "hf-test-key",
		SummarizationModelID: "facebook/bart-large-cnn",
		GenerationModelID:    "gpt2",
		QAModelID:            "deepset/roberta-base-squad2",
	}
}

func testProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(testConfig())
	require.NoError(t, err)
	p.baseURL = srv.URL + "/models/"
	return p
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	t.Run("missing api key", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.APIKey = ""
		_, err := New(cfg)
		assert.ErrorIs(t, err, generation.ErrConfiguration)
	})

	t.Run("missing model id", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.QAModelID = ""
		_, err := New(cfg)
		assert.ErrorIs(t, err, generation.ErrConfiguration)
	})
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/facebook/bart-large-cnn", r.URL.Path)
		assert.Equal(t, "Bearer hf-test-key", r.Header.Get("Authorization"))

		var payload struct {
			Inputs string `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "long input text", payload.Inputs)

		_, _ = w.Write([]byte(`[{"summary_text":" the summary "}]`))
	})

	got, err := p.Summarize(context.Background(), "long input text")
	require.NoError(t, err)
	assert.Equal(t, "the summary", got)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gpt2", r.URL.Path)
		_, _ = w.Write([]byte(`[{"generated_text":"generated prose"}]`))
	})

	got, err := p.Generate(context.Background(), "a prompt")
	require.NoError(t, err)
	assert.Equal(t, "generated prose", got)
}

func TestAnswer(t *testing.T) {
	t.Parallel()

	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/deepset/roberta-base-squad2", r.URL.Path)

		var payload struct {
			Inputs struct {
				Question string `json:"question"`
				Context  string `json:"context"`
			} `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "What is Go?", payload.Inputs.Question)

		_, _ = w.Write([]byte(`{"answer":"a programming language","score":0.97}`))
	})

	got, err := p.Answer(context.Background(), "What is Go?", "Go is a programming language.")
	require.NoError(t, err)
	assert.Equal(t, "a programming language", got)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "model loading", status: http.StatusServiceUnavailable, body: `{"error":"Model is currently loading"}`, want: generation.ErrModelUnavailable},
		{name: "bad credentials", status: http.StatusUnauthorized, body: `{"error":"Authorization header is invalid"}`, want: generation.ErrConfiguration},
		{name: "unknown model", status: http.StatusNotFound, body: `{"error":"Model not found"}`, want: generation.ErrModelUnavailable},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":"Rate limit reached"}`, want: generation.ErrModelUnavailable},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`, want: generation.ErrNetwork},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := testProvider(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := p.Summarize(context.Background(), "some text")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEmptyResults(t *testing.T) {
	t.Parallel()

	t.Run("empty array", func(t *testing.T) {
		t.Parallel()
		p := testProvider(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		})
		_, err := p.Summarize(context.Background(), "text")
		assert.ErrorIs(t, err, generation.ErrEmptyResult)
	})

	t.Run("whitespace answer", func(t *testing.T) {
		t.Parallel()
		p := testProvider(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"answer":"   "}`))
		})
		_, err := p.Answer(context.Background(), "question?", "passage")
		assert.ErrorIs(t, err, generation.ErrEmptyResult)
	})

	t.Run("whitespace-only input never reaches the API", func(t *testing.T) {
		t.Parallel()
		p := testProvider(t, func(w http.ResponseWriter, _ *http.Request) {
			t.Error("request should not have been sent")
		})
		_, err := p.Generate(context.Background(), "  \n ")
		assert.ErrorIs(t, err, generation.ErrEmptyResult)
	})
}

func TestUnreachableServer(t *testing.T) {
	t.Parallel()

	p, err := New(testConfig())
	require.NoError(t, err)
	p.baseURL = "http://127.0.0.1:1/models/"

	_, err = p.Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, generation.ErrNetwork)
}
