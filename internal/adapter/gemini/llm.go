package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// LLM is the language-capability provider used for summarization, relation
// extraction, graph-answer synthesis and direct Q&A.
type LLM struct {
	client *genai.Client
	model  string
}

func NewLLM(client *genai.Client, model string) *LLM {
	return &LLM{client: client, model: model}
}

func (l *LLM) Generate(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "generating content", "model", l.model, "prompt_length", len(prompt))
	gm := l.client.GenerativeModel(l.model)
	res, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "error", err)
		return "", err
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model %s", l.model)
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
