// Package localai is the offline AI provider. It implements the
// generation interfaces with purely lexical techniques (extractive
// summarization, template generation, overlap-based question
// answering), so a deployment with no API keys still produces useful
// enhancements. Quality is deliberately modest; availability is the
// point.
package localai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"notewise/internal/generation"
)

// Provider implements generation.Provider without any network access.
type Provider struct {
	// maxSummarySentences caps extractive summaries.
	maxSummarySentences int
}

// New returns a ready local provider.
func New() *Provider {
	return &Provider{maxSummarySentences: 3}
}

var _ generation.Provider = (*Provider)(nil)

// Summarize picks the highest-scoring sentences by term frequency and
// returns them in original order.
func (p *Provider) Summarize(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := generation.Normalize(text)
	if err != nil {
		return "", fmt.Errorf("local summarize: %w", err)
	}

	sentences := splitSentences(text)
	if len(sentences) <= p.maxSummarySentences {
		return text, nil
	}

	freq := termFrequencies(text)
	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		var total float64
		terms := tokenize(s)
		for _, term := range terms {
			total += freq[term]
		}
		if len(terms) > 0 {
			ranked[i] = scored{index: i, score: total / float64(len(terms))}
		}
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	top := ranked[:p.maxSummarySentences]
	sort.Slice(top, func(i, j int) bool { return top[i].index < top[j].index })

	picked := make([]string, len(top))
	for i, s := range top {
		picked[i] = sentences[s.index]
	}
	return strings.Join(picked, " "), nil
}

// Generate produces enhanced text from a prompt. The local provider
// cannot write new prose, so it restructures the prompt's subject text:
// a lead summary followed by the key points as a list.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body := subjectText(prompt)
	body, err := generation.Normalize(body)
	if err != nil {
		return "", fmt.Errorf("local generate: %w", err)
	}

	summary, err := p.Summarize(ctx, body)
	if err != nil {
		return "", err
	}

	sentences := splitSentences(body)
	var sb strings.Builder
	sb.WriteString(summary)
	if len(sentences) > p.maxSummarySentences {
		sb.WriteString("\n")
		for _, s := range sentences {
			sb.WriteString("\n- ")
			sb.WriteString(s)
		}
	}
	return sb.String(), nil
}

// Answer returns the passage sentence with the greatest term overlap
// with the question.
func (p *Provider) Answer(ctx context.Context, question, passage string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	passage, err := generation.Normalize(passage)
	if err != nil {
		return "", fmt.Errorf("local answer: %w", err)
	}

	qTerms := make(map[string]struct{})
	for _, t := range tokenize(question) {
		qTerms[t] = struct{}{}
	}
	if len(qTerms) == 0 {
		return "", fmt.Errorf("local answer: %w", generation.ErrEmptyResult)
	}

	best, bestScore := "", 0
	for _, s := range splitSentences(passage) {
		score := 0
		for _, t := range tokenize(s) {
			if _, ok := qTerms[t]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	if best == "" {
		return "", fmt.Errorf("local answer: no overlap with passage: %w", generation.ErrEmptyResult)
	}
	return best, nil
}

// subjectText strips prompt instructions, returning the text being
// operated on. Prompts built by the pipeline put the subject last,
// after a blank line.
func subjectText(prompt string) string {
	parts := strings.Split(prompt, "\n\n")
	if len(parts) < 2 {
		return prompt
	}
	return strings.Join(parts[1:], "\n\n")
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var terms []string
	for _, f := range fields {
		if len(f) > 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

func termFrequencies(text string) map[string]float64 {
	counts := make(map[string]float64)
	total := 0.0
	for _, t := range tokenize(text) {
		counts[t]++
		total++
	}
	if total > 0 {
		for t := range counts {
			counts[t] /= total
		}
	}
	return counts
}
