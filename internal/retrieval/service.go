package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"knowledgehub/internal/config"
)

// SearchResult is one retrieved chunk or index entry with the provider's
// score attached.
type SearchResult struct {
	ID       string                 `json:"id,omitempty"`
	Content  string                 `json:"content"`
	Score    float32                `json:"score"`
	DocID    string                 `json:"docId,omitempty"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Evidence is one matched graph row: a triple plus the summary node text
// anchoring it.
type Evidence struct {
	Subject  string
	Relation string
	Object   string
	Summary  string
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type SearchStore interface {
	BM25Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	NearVector(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)
	Hybrid(ctx context.Context, query string, vector []float32, alpha float32, limit int) ([]SearchResult, error)
}

type GraphReader interface {
	MatchEvidence(ctx context.Context, query string, limit int) ([]Evidence, error)
}

type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string) ([]int, error)
}

// evidenceBatchSize bounds how many graph rows go into one synthesis prompt;
// larger evidence sets are reduced tree-style.
const evidenceBatchSize = 20

const graphEvidenceLimit = 50

const synthesizeAnswerPrompt = `Answer the question using only the evidence below. The evidence consists of
entity relationships and document summaries from a knowledge graph. Compile a
single coherent answer; do not mention the evidence list itself.

Question: %s

Evidence:
%s`

const compactAnswersPrompt = `Combine the partial answers below into one coherent answer to the question.

Question: %s

Partial answers:
%s`

// Service answers queries against the lexical index, the vector index and
// the knowledge graph. The vector-query mode is fixed at construction, one
// retriever per mode, never per call.
type Service struct {
	embedder Embedder
	store    SearchStore
	graph    GraphReader
	llm      LLM
	reranker Reranker
	mode     config.RetrievalMode
	alpha    float32
	topK     int
	logger   *QueryLogger
}

func NewService(
	embedder Embedder,
	store SearchStore,
	graph GraphReader,
	llm LLM,
	reranker Reranker,
	mode config.RetrievalMode,
	alpha float32,
	topK int,
	logger *QueryLogger,
) *Service {
	if topK <= 0 {
		topK = 10
	}
	return &Service{
		embedder: embedder,
		store:    store,
		graph:    graph,
		llm:      llm,
		reranker: reranker,
		mode:     mode,
		alpha:    alpha,
		topK:     topK,
		logger:   logger,
	}
}

// FullTextSearch runs an exact/full-text query against the lexical index and
// returns the raw provider hits, unranked beyond the provider's own scoring.
func (s *Service) FullTextSearch(ctx context.Context, query string) ([]SearchResult, error) {
	start := time.Now()
	results, err := s.store.BM25Search(ctx, query, s.topK)
	if err != nil {
		return nil, err
	}
	s.log("fulltext", query, len(results), time.Since(start))
	return results, nil
}

// SemanticSearch embeds the query and retrieves top-matching chunks in the
// configured mode: pure vector, hybrid vector+lexical fusion, or hybrid with
// a semantic re-ranking pass.
func (s *Service) SemanticSearch(ctx context.Context, query string) ([]SearchResult, error) {
	start := time.Now()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	switch s.mode {
	case config.ModeDefault:
		results, err = s.store.NearVector(ctx, vec, s.topK)
	case config.ModeHybrid:
		results, err = s.store.Hybrid(ctx, query, vec, s.alpha, s.topK)
	case config.ModeSemanticHybrid:
		results, err = s.store.Hybrid(ctx, query, vec, s.alpha, s.topK)
		if err == nil && s.reranker != nil && len(results) > 0 {
			results, err = s.rerank(ctx, query, results)
		}
	default:
		return nil, fmt.Errorf("unknown retrieval mode %q", s.mode)
	}
	if err != nil {
		return nil, err
	}

	s.log("semantic", query, len(results), time.Since(start))
	return results, nil
}

// SearchGraph traverses the knowledge graph and synthesizes a textual answer
// from the matched triples and their summary nodes. No matches yield an
// empty answer, not an error; the model is not called in that case.
func (s *Service) SearchGraph(ctx context.Context, query string) (string, error) {
	start := time.Now()

	evidence, err := s.graph.MatchEvidence(ctx, query, graphEvidenceLimit)
	if err != nil {
		return "", err
	}
	if len(evidence) == 0 {
		slog.InfoContext(ctx, "graph search found no evidence", "query_length", len(query))
		s.log("graph", query, 0, time.Since(start))
		return "", nil
	}

	answer, err := s.treeSummarize(ctx, query, formatEvidence(evidence))
	if err != nil {
		return "", err
	}

	s.log("graph", query, len(evidence), time.Since(start))
	return answer, nil
}

// AskOverDoc bypasses retrieval and asks the language-model provider
// directly. Escape hatch, not the primary path.
func (s *Service) AskOverDoc(ctx context.Context, query string) (string, error) {
	start := time.Now()
	answer, err := s.llm.Generate(ctx, query)
	if err != nil {
		return "", err
	}
	s.log("ask", query, 1, time.Since(start))
	return answer, nil
}

func (s *Service) rerank(ctx context.Context, query string, results []SearchResult) ([]SearchResult, error) {
	contents := make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Content
	}

	indices, err := s.reranker.Rerank(ctx, query, contents)
	if err != nil {
		return nil, err
	}

	reranked := make([]SearchResult, 0, len(indices))
	for _, idx := range indices {
		if idx < len(results) {
			reranked = append(reranked, results[idx])
		}
	}
	return reranked, nil
}

// treeSummarize reduces evidence snippets to one answer: batches are
// summarized independently and the partial answers collapsed until a single
// response remains.
func (s *Service) treeSummarize(ctx context.Context, query string, snippets []string) (string, error) {
	prompt := synthesizeAnswerPrompt
	for len(snippets) > evidenceBatchSize {
		var partials []string
		for start := 0; start < len(snippets); start += evidenceBatchSize {
			end := min(start+evidenceBatchSize, len(snippets))
			out, err := s.llm.Generate(ctx, fmt.Sprintf(prompt, query, strings.Join(snippets[start:end], "\n")))
			if err != nil {
				return "", err
			}
			partials = append(partials, out)
		}
		snippets = partials
		prompt = compactAnswersPrompt
	}
	return s.llm.Generate(ctx, fmt.Sprintf(prompt, query, strings.Join(snippets, "\n")))
}

func formatEvidence(evidence []Evidence) []string {
	snippets := make([]string, 0, len(evidence))
	seenSummaries := make(map[string]struct{})
	for _, ev := range evidence {
		snippets = append(snippets, fmt.Sprintf("- %s %s %s", ev.Subject, ev.Relation, ev.Object))
		if ev.Summary == "" {
			continue
		}
		if _, dup := seenSummaries[ev.Summary]; dup {
			continue
		}
		seenSummaries[ev.Summary] = struct{}{}
		snippets = append(snippets, "Summary: "+ev.Summary)
	}
	return snippets
}

func (s *Service) log(operation, query string, numResults int, duration time.Duration) {
	if s.logger == nil {
		return
	}
	s.logger.Log(QueryLogEntry{
		Operation:  operation,
		Query:      query,
		NumResults: numResults,
		Duration:   duration,
	})
}
