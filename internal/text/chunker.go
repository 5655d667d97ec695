package text

import (
	"regexp"
	"strings"
)

const DefaultChunkSize = 1024

var sentenceRe = regexp.MustCompile(`(?m)(?U)[^.!?]+[.!?]+`)

// Sentences splits text into trimmed sentence strings. Text after the last
// terminator (or text with no terminator at all) is returned as a final
// sentence so no content is lost.
func Sentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		// Slice from the previous match end so stray terminators between
		// matches (ellipses and the like) are never dropped.
		if s := strings.TrimSpace(text[last:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// SplitSentences partitions text into chunks of at most maxChunkSize bytes
// without breaking sentences unless a single sentence exceeds the budget.
// Sentences are packed greedily in order, joined with single spaces, so the
// chunks concatenate back to the input modulo whitespace. Empty input yields
// no chunks.
func SplitSentences(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}

	sentences := Sentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, sentence := range sentences {
		if len(sentence) > maxChunkSize {
			flush()
			chunks = append(chunks, splitWords(sentence, maxChunkSize)...)
			continue
		}
		if current.Len()+len(sentence)+1 > maxChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	flush()

	return chunks
}

// splitWords handles the oversize-sentence fallback: pack whole words, and as
// a last resort slice words longer than the budget at the byte level.
func splitWords(sentence string, maxChunkSize int) []string {
	var chunks []string
	var current strings.Builder

	for _, word := range strings.Fields(sentence) {
		for len(word) > maxChunkSize {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, word[:maxChunkSize])
			word = word[maxChunkSize:]
		}
		if word == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(word)+1 > maxChunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
