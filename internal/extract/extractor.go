package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"knowledgehub/internal/text"
)

// Triple is a (subject, relation, object) fact over named entities.
type Triple struct {
	Subject  string `json:"subject"`
	Relation string `json:"relation"`
	Object   string `json:"object"`
}

type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Extractor turns unstructured text into relation triples in two stages:
// sentence segmentation with entity detection, then one relation-extraction
// model call per sentence that mentions at least two entities.
type Extractor struct {
	llm LLM
}

func NewExtractor(llm LLM) *Extractor {
	return &Extractor{llm: llm}
}

const relationPrompt = `Extract the relationships between the named entities in the sentence below.
Only use these entities: %s.
Respond with a JSON array of objects with keys "subject", "relation" and "object".
Both subject and object must be one of the listed entities; the relation is a short verb phrase.
Respond with [] if no clear relationship is stated.

Sentence: %s`

// Extract returns the triples found in input, in sentence-processing order.
// Triples are not deduplicated across sentences. A sentence with fewer than
// two detected entities contributes nothing; that is a valid empty outcome,
// not an error. A provider failure aborts the whole extraction.
func (e *Extractor) Extract(ctx context.Context, input string) ([]Triple, error) {
	var triples []Triple

	for _, sentence := range text.Sentences(input) {
		entities := Entities(sentence)
		if len(entities) < 2 {
			continue
		}

		prompt := fmt.Sprintf(relationPrompt, strings.Join(entities, ", "), sentence)
		out, err := e.llm.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("relation extraction: %w", err)
		}

		parsed, err := parseTriples(out)
		if err != nil {
			slog.WarnContext(ctx, "unparseable relation output, skipping sentence",
				"error", err, "sentence_length", len(sentence))
			continue
		}
		triples = append(triples, parsed...)
	}

	return triples, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func parseTriples(raw string) ([]Triple, error) {
	raw = stripCodeBlock(raw)

	var parsed []Triple
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse triples json: %w", err)
	}

	triples := parsed[:0]
	for _, t := range parsed {
		if t.Subject == "" || t.Relation == "" || t.Object == "" {
			continue
		}
		triples = append(triples, t)
	}
	return triples, nil
}
