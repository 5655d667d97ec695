// Package summarize reduces long documents to bounded abstractive summaries
// with one model call per chunk, paced to respect provider rate limits.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"knowledgehub/internal/text"
	"knowledgehub/internal/throttle"
)

// SummaryPrompt is the default entity-preserving instruction. Named entities
// must survive summarization because triple extraction runs on the summary.
const SummaryPrompt = `You are tasked with providing an objective summary which presents the key points
and essential information from a text in a neutral and unbiased manner, without
personal opinions or interpretations and without referring to the document
itself, while preserving all named entities (people, organizations, locations)
for knowledge graph construction.

Requirements:
1. Summarize the main points while maintaining the relationships between entities.
2. Keep sentences simple, with subject-verb-object structure.`

const synthesisPrompt = `You are given a list of summaries generated from different parts of a long
document. Synthesize them into one coherent and cohesive final summary.`

type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Summarizer struct {
	llm             LLM
	pacer           *throttle.Throttle
	chunkSize       int
	synthesizeFinal bool
}

// New builds a summarizer. When synthesizeFinal is false (the default
// configuration) a multi-chunk document yields the newline-joined per-chunk
// summaries in a single flat reduction pass; when true, one extra synthesis
// call resolves the partials into a single narrative.
func New(llm LLM, pacer *throttle.Throttle, chunkSize int, synthesizeFinal bool) *Summarizer {
	if chunkSize <= 0 {
		chunkSize = text.DefaultChunkSize
	}
	return &Summarizer{llm: llm, pacer: pacer, chunkSize: chunkSize, synthesizeFinal: synthesizeFinal}
}

// Summarize reduces fullText under the chunk budget. An empty summaryQuery
// falls back to SummaryPrompt. Any provider failure aborts the whole
// summarization; there is no partial-result fallback.
func (s *Summarizer) Summarize(ctx context.Context, fullText, summaryQuery string) (string, error) {
	if summaryQuery == "" {
		summaryQuery = SummaryPrompt
	}

	chunks := text.SplitSentences(fullText, s.chunkSize)
	if len(chunks) == 0 {
		return "", nil
	}
	if len(chunks) == 1 {
		return s.llm.Generate(ctx, buildPrompt(summaryQuery, chunks[0]))
	}

	slog.DebugContext(ctx, "summarizing in chunks", "chunks", len(chunks))
	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if err := s.pacer.Wait(ctx); err != nil {
			return "", err
		}
		out, err := s.llm.Generate(ctx, buildPrompt(summaryQuery, chunk))
		if err != nil {
			return "", fmt.Errorf("summarize chunk %d/%d: %w", i+1, len(chunks), err)
		}
		summaries = append(summaries, out)
	}

	joined := strings.Join(summaries, "\n")
	if !s.synthesizeFinal {
		return joined, nil
	}
	return s.llm.Generate(ctx, buildPrompt(synthesisPrompt, joined))
}

func buildPrompt(instruction, document string) string {
	return instruction + "\n\n# Document\n" + document
}
