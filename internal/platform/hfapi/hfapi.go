// Package hfapi implements the generation interfaces on top of the
// HuggingFace Inference API. Each operation posts to its configured
// model's endpoint; a 503 means the model is still loading and maps to
// the model-unavailable error so callers can surface a retry hint.
package hfapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"notewise/internal/generation"
)

const defaultBaseURL = "https://api-inference.huggingface.co/models/"

// Config holds the credentials and model routing for the provider.
type Config struct {
	APIKey               string
	SummarizationModelID string
	GenerationModelID    string
	QAModelID            string
}

// Provider calls the HuggingFace Inference API.
type Provider struct {
	cfg  Config
	http *http.Client

	// baseURL is overridable for tests.
	baseURL string
}

// New validates the config and returns a Provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: hfapi requires an API key", generation.ErrConfiguration)
	}
	if cfg.SummarizationModelID == "" || cfg.GenerationModelID == "" || cfg.QAModelID == "" {
		return nil, fmt.Errorf("%w: hfapi requires model ids for all operations", generation.ErrConfiguration)
	}
	return &Provider{
		cfg:     cfg,
		http:    &http.Client{Timeout: 60 * time.Second},
		baseURL: defaultBaseURL,
	}, nil
}

var _ generation.Provider = (*Provider)(nil)

func (p *Provider) Summarize(ctx context.Context, text string) (string, error) {
	text, err := generation.Normalize(text)
	if err != nil {
		return "", fmt.Errorf("hfapi summarize: %w", err)
	}

	payload := map[string]any{
		"inputs":     text,
		"parameters": map[string]any{"truncation": "longest_first"},
	}
	var out []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := p.post(ctx, p.cfg.SummarizationModelID, payload, &out); err != nil {
		return "", fmt.Errorf("hfapi summarize: %w", err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("hfapi summarize: %w", generation.ErrEmptyResult)
	}
	return generation.Normalize(out[0].SummaryText)
}

func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	prompt, err := generation.Normalize(prompt)
	if err != nil {
		return "", fmt.Errorf("hfapi generate: %w", err)
	}

	payload := map[string]any{
		"inputs": prompt,
		"parameters": map[string]any{
			"max_new_tokens":   512,
			"return_full_text": false,
		},
	}
	var out []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := p.post(ctx, p.cfg.GenerationModelID, payload, &out); err != nil {
		return "", fmt.Errorf("hfapi generate: %w", err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("hfapi generate: %w", generation.ErrEmptyResult)
	}
	return generation.Normalize(out[0].GeneratedText)
}

func (p *Provider) Answer(ctx context.Context, question, passage string) (string, error) {
	passage, err := generation.Normalize(passage)
	if err != nil {
		return "", fmt.Errorf("hfapi answer: %w", err)
	}

	payload := map[string]any{
		"inputs": map[string]string{
			"question": question,
			"context":  passage,
		},
	}
	var out struct {
		Answer string `json:"answer"`
	}
	if err := p.post(ctx, p.cfg.QAModelID, payload, &out); err != nil {
		return "", fmt.Errorf("hfapi answer: %w", err)
	}
	return generation.Normalize(out.Answer)
}

// post sends one inference request and decodes the response into out.
// HTTP status codes are mapped onto the generation error taxonomy.
func (p *Provider) post(ctx context.Context, modelID string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+modelID, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", generation.ErrNetwork, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", generation.ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", generation.ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: API key rejected for model %s", generation.ErrConfiguration, modelID)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: model %s is loading: %s", generation.ErrModelUnavailable, modelID, apiError(respBody))
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: unknown model %s", generation.ErrModelUnavailable, modelID)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: rate limited on model %s", generation.ErrModelUnavailable, modelID)
	default:
		return fmt.Errorf("%w: HTTP %d from model %s: %s", generation.ErrNetwork, resp.StatusCode, modelID, apiError(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: undecodable response from model %s", generation.ErrEmptyResult, modelID)
	}
	return nil
}

// apiError extracts the API's error message, if the body carries one.
func apiError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return string(body)
}
