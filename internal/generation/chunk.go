package generation

import (
	"context"
	"fmt"
	"strings"
)

// maxChunkChars is the largest chunk handed to a summarization model in
// one call. Remote summarization models truncate input well below this,
// so chunking errs on the small side.
const maxChunkChars = 3000

// Normalize trims the text and rejects whitespace-only results.
func Normalize(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyResult
	}
	return trimmed, nil
}

// ChunkText splits text into chunks of at most maxChars characters,
// breaking at sentence boundaries where possible. A single sentence
// longer than maxChars is split mid-sentence. Returns nil for
// whitespace-only input.
func ChunkText(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = maxChunkChars
	}

	var chunks []string
	var current strings.Builder
	for _, sentence := range splitSentences(text) {
		for len(sentence) > maxChars {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(current.String()))
				current.Reset()
			}
			chunks = append(chunks, strings.TrimSpace(sentence[:maxChars]))
			sentence = sentence[maxChars:]
		}
		if current.Len()+len(sentence)+1 > maxChars && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			// Sentence ends at punctuation followed by whitespace or EOF.
			if i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				s := strings.TrimSpace(text[start : i+1])
				if s != "" {
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

// SummarizeLong summarizes text of any length with the given Summarizer.
// Short text is summarized in one call. Long text is chunked at sentence
// boundaries, each chunk summarized, and the combined chunk summaries
// summarized once more. report receives coarse progress in [0,100] and
// may be nil.
func SummarizeLong(ctx context.Context, s Summarizer, text string, report func(int)) (string, error) {
	if report == nil {
		report = func(int) {}
	}

	text, err := Normalize(text)
	if err != nil {
		return "", err
	}
	report(10)

	chunks := ChunkText(text, maxChunkChars)
	if len(chunks) == 1 {
		summary, err := s.Summarize(ctx, chunks[0])
		if err != nil {
			return "", err
		}
		report(100)
		return Normalize(summary)
	}

	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := s.Summarize(ctx, chunk)
		if err != nil {
			return "", fmt.Errorf("summarizing chunk %d of %d: %w", i+1, len(chunks), err)
		}
		if trimmed := strings.TrimSpace(summary); trimmed != "" {
			partials = append(partials, trimmed)
		}
		report(10 + 80*(i+1)/len(chunks))
	}
	if len(partials) == 0 {
		return "", ErrEmptyResult
	}

	combined, err := s.Summarize(ctx, strings.Join(partials, " "))
	if err != nil {
		return "", fmt.Errorf("summarizing combined chunks: %w", err)
	}
	report(100)
	return Normalize(combined)
}
