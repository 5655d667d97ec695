package document_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"knowledgehub/features/document"
	"knowledgehub/internal/extract"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) Save(ctx context.Context, rec *document.Record) error {
	args := m.Called(ctx, rec)
	rec.ID = "rec-" + rec.DocID
	return args.Error(0)
}

func (m *MockRepo) MarkIndexed(ctx context.Context, id string, chunkCount int) error {
	return m.Called(ctx, id, chunkCount).Error(0)
}

func (m *MockRepo) MarkFailed(ctx context.Context, id, errMsg string) error {
	return m.Called(ctx, id, errMsg).Error(0)
}

func (m *MockRepo) Get(ctx context.Context, id string) (*document.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Record), args.Error(1)
}

func (m *MockRepo) List(ctx context.Context) ([]document.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Record), args.Error(1)
}

type MockLexical struct{ mock.Mock }

func (m *MockLexical) UploadEntry(ctx context.Context, entry document.IndexEntry) error {
	return m.Called(ctx, entry).Error(0)
}

type MockVector struct{ mock.Mock }

func (m *MockVector) InsertChunks(ctx context.Context, chunks []document.Chunk) error {
	return m.Called(ctx, chunks).Error(0)
}

type MockGraphStore struct{ mock.Mock }

func (m *MockGraphStore) UpsertTripletAndNode(ctx context.Context, triple extract.Triple, node document.SummaryNode) error {
	return m.Called(ctx, triple, node).Error(0)
}

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockSummarizer struct{ mock.Mock }

func (m *MockSummarizer) Summarize(ctx context.Context, fullText, summaryQuery string) (string, error) {
	args := m.Called(ctx, fullText, summaryQuery)
	return args.String(0), args.Error(1)
}

type MockExtractor struct{ mock.Mock }

func (m *MockExtractor) Extract(ctx context.Context, input string) ([]extract.Triple, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]extract.Triple), args.Error(1)
}

type fixture struct {
	repo       *MockRepo
	lexical    *MockLexical
	vector     *MockVector
	graph      *MockGraphStore
	embedder   *MockEmbedder
	summarizer *MockSummarizer
	extractor  *MockExtractor
	service    *document.Service
}

func newFixture(chunkSize int) *fixture {
	f := &fixture{
		repo:       &MockRepo{},
		lexical:    &MockLexical{},
		vector:     &MockVector{},
		graph:      &MockGraphStore{},
		embedder:   &MockEmbedder{},
		summarizer: &MockSummarizer{},
		extractor:  &MockExtractor{},
	}
	f.service = document.NewService(
		f.repo, f.lexical, f.vector, f.graph,
		f.embedder, f.summarizer, f.extractor,
		chunkSize, 1,
	)
	return f
}

func TestInsertIndex_OneEntryAndOneVectorPerChunk(t *testing.T) {
	f := newFixture(40)
	// Three sentences that cannot share a 40-byte chunk pairwise.
	text := "Alpha beta gamma delta epsilon one two. Zeta eta theta iota kappa three four. Lambda mu nu xi omicron five six seven."

	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.lexical.On("UploadEntry", mock.Anything, mock.Anything).Return(nil)
	f.embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.1, 0.2, 0.3}, nil)
	f.vector.On("InsertChunks", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("MarkIndexed", mock.Anything, mock.Anything, 3).Return(nil)

	doc, err := f.service.InsertIndex(context.Background(), text, "doc-1", document.Metadata{Author: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)

	f.lexical.AssertNumberOfCalls(t, "UploadEntry", 1)
	entry := f.lexical.Calls[0].Arguments.Get(1).(document.IndexEntry)
	assert.Equal(t, "doc-1", entry.ID)
	assert.Equal(t, text, entry.Text, "lexical entry carries the full unchunked text")

	f.vector.AssertNumberOfCalls(t, "InsertChunks", 1)
	chunks := f.vector.Calls[0].Arguments.Get(1).([]document.Chunk)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, "doc-1", chunk.SourceDocID)
		assert.Len(t, chunk.Embedding, 3, "every chunk carries one embedding of the configured dimensionality")
		assert.LessOrEqual(t, len(chunk.Text), 40)
	}
	f.repo.AssertExpectations(t)
}

func TestInsertIndex_GeneratesDocIDWhenEmpty(t *testing.T) {
	f := newFixture(1024)

	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.lexical.On("UploadEntry", mock.Anything, mock.Anything).Return(nil)
	f.embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	f.vector.On("InsertChunks", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("MarkIndexed", mock.Anything, mock.Anything, 1).Return(nil)

	doc, err := f.service.InsertIndex(context.Background(), "Short text.", "", document.Metadata{})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
}

func TestInsertIndex_ReingestionAccumulates(t *testing.T) {
	f := newFixture(1024)

	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.lexical.On("UploadEntry", mock.Anything, mock.Anything).Return(nil)
	f.embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	f.vector.On("InsertChunks", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("MarkIndexed", mock.Anything, mock.Anything, 1).Return(nil)

	_, err := f.service.InsertIndex(context.Background(), "Same text.", "doc-1", document.Metadata{})
	require.NoError(t, err)
	_, err = f.service.InsertIndex(context.Background(), "Same text.", "doc-1", document.Metadata{})
	require.NoError(t, err)

	// Nothing is replaced on re-ingest: a second generation of the same doc id
	// writes a second lexical entry and a second chunk batch.
	f.lexical.AssertNumberOfCalls(t, "UploadEntry", 2)
	f.vector.AssertNumberOfCalls(t, "InsertChunks", 2)
	f.repo.AssertNumberOfCalls(t, "Save", 2)
}

func TestInsertIndex_LexicalFailureMarksFailed(t *testing.T) {
	f := newFixture(1024)

	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.lexical.On("UploadEntry", mock.Anything, mock.Anything).Return(errors.New("index down"))
	f.repo.On("MarkFailed", mock.Anything, "rec-doc-1", mock.Anything).Return(nil)

	_, err := f.service.InsertIndex(context.Background(), "Some text.", "doc-1", document.Metadata{})
	assert.ErrorContains(t, err, "lexical upload")
	f.embedder.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
	f.vector.AssertNotCalled(t, "InsertChunks", mock.Anything, mock.Anything)
	f.repo.AssertExpectations(t)
}

func TestInsertIndex_EmbedFailureMarksFailed(t *testing.T) {
	f := newFixture(1024)

	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.lexical.On("UploadEntry", mock.Anything, mock.Anything).Return(nil)
	f.embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("quota"))
	f.repo.On("MarkFailed", mock.Anything, "rec-doc-1", mock.Anything).Return(nil)

	_, err := f.service.InsertIndex(context.Background(), "Some text.", "doc-1", document.Metadata{})
	assert.ErrorContains(t, err, "embed chunk 0")
	f.vector.AssertNotCalled(t, "InsertChunks", mock.Anything, mock.Anything)
	f.repo.AssertExpectations(t)
}

func TestInsertIndex_VectorFailureMarksFailed(t *testing.T) {
	f := newFixture(1024)

	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.lexical.On("UploadEntry", mock.Anything, mock.Anything).Return(nil)
	f.embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	f.vector.On("InsertChunks", mock.Anything, mock.Anything).Return(errors.New("batch rejected"))
	f.repo.On("MarkFailed", mock.Anything, "rec-doc-1", mock.Anything).Return(nil)

	_, err := f.service.InsertIndex(context.Background(), "Some text.", "doc-1", document.Metadata{})
	assert.ErrorContains(t, err, "vector insert")
	f.repo.AssertExpectations(t)
}

func TestHandleGraphDocument_ZeroTriplesWritesNothing(t *testing.T) {
	f := newFixture(1024)

	f.summarizer.On("Summarize", mock.Anything, "it was raining all week.", "").Return("Rain fell.", nil)
	f.extractor.On("Extract", mock.Anything, "Rain fell.").Return([]extract.Triple{}, nil)

	err := f.service.HandleGraphDocument(context.Background(), "it was raining all week.", document.Metadata{})
	assert.NoError(t, err, "a document without entity pairs is a valid empty outcome")
	f.graph.AssertNotCalled(t, "UpsertTripletAndNode", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleGraphDocument_UpsertsEachTripleWithSharedSummary(t *testing.T) {
	f := newFixture(1024)

	triples := []extract.Triple{
		{Subject: "Rome", Relation: "fought", Object: "Carthage"},
		{Subject: "Carthage", Relation: "lost to", Object: "Rome"},
	}
	f.summarizer.On("Summarize", mock.Anything, mock.Anything, "").Return("Rome fought Carthage.", nil)
	f.extractor.On("Extract", mock.Anything, "Rome fought Carthage.").Return(triples, nil)
	f.graph.On("UpsertTripletAndNode", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	meta := document.Metadata{Topic: "history"}
	err := f.service.HandleGraphDocument(context.Background(), "Rome fought Carthage. Carthage lost.", meta)
	require.NoError(t, err)

	f.graph.AssertNumberOfCalls(t, "UpsertTripletAndNode", 2)
	for i, call := range f.graph.Calls {
		assert.Equal(t, triples[i], call.Arguments.Get(1).(extract.Triple))
		node := call.Arguments.Get(2).(document.SummaryNode)
		assert.Equal(t, "Rome fought Carthage.", node.Text)
		assert.Equal(t, "history", node.Meta.Topic)
	}
}

func TestHandleGraphDocument_SummarizeErrorPropagates(t *testing.T) {
	f := newFixture(1024)

	f.summarizer.On("Summarize", mock.Anything, mock.Anything, "").Return("", errors.New("model offline"))

	err := f.service.HandleGraphDocument(context.Background(), "Any text.", document.Metadata{})
	assert.ErrorContains(t, err, "summarize")
	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestHandleGraphDocument_UpsertErrorPropagates(t *testing.T) {
	f := newFixture(1024)

	f.summarizer.On("Summarize", mock.Anything, mock.Anything, "").Return("Rome fought Carthage.", nil)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return([]extract.Triple{
		{Subject: "Rome", Relation: "fought", Object: "Carthage"},
	}, nil)
	f.graph.On("UpsertTripletAndNode", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("neo down"))

	err := f.service.HandleGraphDocument(context.Background(), "Rome fought Carthage.", document.Metadata{})
	assert.ErrorContains(t, err, "upsert triple")
	assert.True(t, strings.Contains(err.Error(), "neo down"))
}
