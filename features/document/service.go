package document

import (
	"context"
	"fmt"
	"log/slog"

	"knowledgehub/internal/extract"
	"knowledgehub/internal/retry"
	"knowledgehub/internal/text"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type LexicalIndex interface {
	UploadEntry(ctx context.Context, entry IndexEntry) error
}

type VectorIndex interface {
	InsertChunks(ctx context.Context, chunks []Chunk) error
}

type GraphStore interface {
	UpsertTripletAndNode(ctx context.Context, triple extract.Triple, node SummaryNode) error
}

type Summarizer interface {
	Summarize(ctx context.Context, fullText, summaryQuery string) (string, error)
}

type RelationExtractor interface {
	Extract(ctx context.Context, input string) ([]extract.Triple, error)
}

type Repository interface {
	Save(ctx context.Context, rec *Record) error
	MarkIndexed(ctx context.Context, id string, chunkCount int) error
	MarkFailed(ctx context.Context, id, errMsg string) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
}

// Service owns the two ingestion paths: the flat lexical+vector index write
// and the best-effort graph enrichment.
type Service struct {
	repo          Repository
	lexical       LexicalIndex
	vector        VectorIndex
	graph         GraphStore
	embedder      Embedder
	summarizer    Summarizer
	extractor     RelationExtractor
	chunkSize     int
	retryAttempts int
}

func NewService(
	repo Repository,
	lexical LexicalIndex,
	vector VectorIndex,
	graph GraphStore,
	embedder Embedder,
	summarizer Summarizer,
	extractor RelationExtractor,
	chunkSize int,
	retryAttempts int,
) *Service {
	if chunkSize <= 0 {
		chunkSize = text.DefaultChunkSize
	}
	return &Service{
		repo:          repo,
		lexical:       lexical,
		vector:        vector,
		graph:         graph,
		embedder:      embedder,
		summarizer:    summarizer,
		extractor:     extractor,
		chunkSize:     chunkSize,
		retryAttempts: retryAttempts,
	}
}

// InsertIndex writes a document to the lexical and vector stores. The two
// writes are independent: a vector-side failure after the lexical upload
// leaves the document partially indexed, and the registry row records that
// as a failed ingestion. Reusing a doc id accumulates chunks next to the
// previous generation's; nothing is deleted on re-ingest.
func (s *Service) InsertIndex(ctx context.Context, rawText, docID string, meta Metadata) (Document, error) {
	doc := NewDocument(docID, rawText, meta)

	rec := &Record{DocID: doc.ID, Meta: meta, Status: StatusPending}
	if err := s.repo.Save(ctx, rec); err != nil {
		return Document{}, fmt.Errorf("save registry record: %w", err)
	}

	if err := s.lexical.UploadEntry(ctx, IndexEntry{ID: doc.ID, Text: doc.Text, Meta: meta}); err != nil {
		s.fail(ctx, rec.ID, err)
		return Document{}, fmt.Errorf("lexical upload: %w", err)
	}

	pieces := text.SplitSentences(doc.Text, s.chunkSize)
	chunks := make([]Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunk, err := NewChunk(doc.ID, i, piece, meta)
		if err != nil {
			s.fail(ctx, rec.ID, err)
			return Document{}, err
		}

		var vec []float32
		embed := func() error {
			var embedErr error
			vec, embedErr = s.embedder.Embed(ctx, chunk.Text)
			return embedErr
		}
		if err := retry.Do(ctx, s.retryAttempts, embed); err != nil {
			s.fail(ctx, rec.ID, err)
			return Document{}, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		chunk.Embedding = vec
		chunks = append(chunks, chunk)
	}

	if len(chunks) > 0 {
		if err := s.vector.InsertChunks(ctx, chunks); err != nil {
			s.fail(ctx, rec.ID, err)
			return Document{}, fmt.Errorf("vector insert: %w", err)
		}
	}

	if err := s.repo.MarkIndexed(ctx, rec.ID, len(chunks)); err != nil {
		slog.WarnContext(ctx, "failed to mark record indexed", "error", err, "doc_id", doc.ID)
	}

	slog.InfoContext(ctx, "document indexed", "doc_id", doc.ID, "chunks", len(chunks))
	return doc, nil
}

// HandleGraphDocument summarizes the text, extracts relation triples from
// the summary and upserts each triple with its summary node. A document that
// yields zero triples performs zero graph writes and is retrievable via
// lexical/vector search only; graph ingestion is enrichment, not a required
// path.
func (s *Service) HandleGraphDocument(ctx context.Context, rawText string, meta Metadata) error {
	summary, err := s.summarizer.Summarize(ctx, rawText, "")
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	triples, err := s.extractor.Extract(ctx, summary)
	if err != nil {
		return fmt.Errorf("extract relations: %w", err)
	}
	if len(triples) == 0 {
		slog.InfoContext(ctx, "no entity pairs found, skipping graph write")
		return nil
	}

	node := SummaryNode{Text: summary, Meta: meta}
	for _, triple := range triples {
		if err := s.graph.UpsertTripletAndNode(ctx, triple, node); err != nil {
			return fmt.Errorf("upsert triple (%s, %s, %s): %w", triple.Subject, triple.Relation, triple.Object, err)
		}
	}

	slog.InfoContext(ctx, "graph document ingested", "triples", len(triples))
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.repo.List(ctx)
}

func (s *Service) fail(ctx context.Context, recID string, cause error) {
	if err := s.repo.MarkFailed(ctx, recID, cause.Error()); err != nil {
		slog.WarnContext(ctx, "failed to mark record failed", "error", err, "record_id", recID)
	}
}
