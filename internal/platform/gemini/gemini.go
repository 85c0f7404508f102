// Package gemini implements the generation interfaces using Google's
// Gemini API. Transient API failures are retried with exponential
// backoff and jitter; safety blocks and empty responses are permanent
// and returned immediately.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"google.golang.org/genai"

	"notewise/internal/generation"
)

// Config holds the Gemini-specific settings.
type Config struct {
	APIKey    string
	ModelName string

	// MaxRetries is the number of additional attempts after the first
	// failure. Zero or negative falls back to 3.
	MaxRetries int

	// RetryDelay is the base backoff delay. Zero falls back to 2s.
	RetryDelay time.Duration
}

// contentCaller is the thin seam over the genai client so tests can
// substitute a fake without network access.
type contentCaller interface {
	generateText(ctx context.Context, model, prompt string) (string, error)
}

// Provider calls the Gemini API for all three AI operations.
type Provider struct {
	logger     *slog.Logger
	model      string
	caller     contentCaller
	maxRetries int
	baseDelay  time.Duration
	rng        *rand.Rand
}

// New validates the config, constructs the genai client, and returns a
// ready Provider.
func New(ctx context.Context, logger *slog.Logger, cfg Config) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrConfiguration)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: gemini model name cannot be empty", generation.ErrConfiguration)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrConfiguration, err)
	}

	return newWithCaller(logger, cfg, &genaiCaller{client: client}), nil
}

func newWithCaller(logger *slog.Logger, cfg Config, caller contentCaller) *Provider {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := cfg.RetryDelay
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}

	return &Provider{
		logger:     logger,
		model:      cfg.ModelName,
		caller:     caller,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

var _ generation.Provider = (*Provider)(nil)

func (p *Provider) Summarize(ctx context.Context, text string) (string, error) {
	text, err := generation.Normalize(text)
	if err != nil {
		return "", fmt.Errorf("gemini summarize: %w", err)
	}
	prompt := "Summarize the following text concisely, keeping the key facts:\n\n" + text
	return p.callWithRetry(ctx, prompt)
}

func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	prompt, err := generation.Normalize(prompt)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return p.callWithRetry(ctx, prompt)
}

func (p *Provider) Answer(ctx context.Context, question, passage string) (string, error) {
	passage, err := generation.Normalize(passage)
	if err != nil {
		return "", fmt.Errorf("gemini answer: %w", err)
	}
	prompt := fmt.Sprintf(
		"Answer the question using only the context below. Reply with the answer alone.\n\nContext:\n%s\n\nQuestion: %s",
		passage, question)
	return p.callWithRetry(ctx, prompt)
}

// callWithRetry makes a Gemini call with exponential backoff and jitter.
// Permanent failures (safety block, empty response) are returned
// immediately; transient ones retry up to maxRetries additional times.
func (p *Provider) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		attemptNum := attempt + 1
		p.logger.DebugContext(ctx, "making Gemini API call",
			"model", p.model,
			"attempt", attemptNum,
			"max_attempts", p.maxRetries+1)

		text, err := p.caller.generateText(ctx, p.model, prompt)
		if err == nil {
			normalized, nerr := generation.Normalize(text)
			if nerr != nil {
				return "", fmt.Errorf("gemini returned empty text: %w", nerr)
			}
			return normalized, nil
		}
		lastErr = err

		if errors.Is(err, generation.ErrEmptyResult) || errors.Is(err, context.Canceled) {
			return "", err
		}

		p.logger.WarnContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		if attempt == p.maxRetries {
			break
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(p.baseDelay) * math.Pow(2, float64(attempt))
		jitter := 0.5 + p.rng.Float64()*0.5
		delay := time.Duration(backoff * jitter)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: canceled during retry delay: %v", generation.ErrNetwork, ctx.Err())
		}
	}

	return "", fmt.Errorf("%w: exceeded %d attempts: %v",
		generation.ErrModelUnavailable, p.maxRetries+1, lastErr)
}

// genaiCaller is the production contentCaller backed by the genai SDK.
type genaiCaller struct {
	client *genai.Client
}

func (c *genaiCaller) generateText(ctx context.Context, model, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrNetwork, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates in response", generation.ErrEmptyResult)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrEmptyResult)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
