package document

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrMissingSourceDoc = errors.New("chunk requires a source document id")

// Metadata is the recognized set of document attributes plus an open
// extension slot for caller-supplied keys. The user field carries the opaque
// uploader identifier handed over by the identity layer; it is never
// validated here.
type Metadata struct {
	Author   string            `json:"author,omitempty"`
	Topic    string            `json:"topic,omitempty"`
	Director string            `json:"director,omitempty"`
	Filename string            `json:"filename,omitempty"`
	User     string            `json:"user,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// Map flattens the metadata into the snapshot form stored alongside index
// and graph records. Empty recognized keys are omitted; Extra keys never
// shadow recognized ones.
func (m Metadata) Map() map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range m.Extra {
		out[key] = value
	}
	if m.Author != "" {
		out["author"] = m.Author
	}
	if m.Topic != "" {
		out["topic"] = m.Topic
	}
	if m.Director != "" {
		out["director"] = m.Director
	}
	if m.Filename != "" {
		out["filename"] = m.Filename
	}
	if m.User != "" {
		out["user"] = m.User
	}
	return out
}

// Document is a unit of ingested content. Immutable once indexed; it is only
// ever superseded by re-ingestion, never mutated in place.
type Document struct {
	ID   string   `json:"id"`
	Text string   `json:"-"`
	Meta Metadata `json:"metadata"`
}

// NewDocument assigns a fresh identifier when id is empty.
func NewDocument(id, text string, meta Metadata) Document {
	if id == "" {
		id = uuid.New().String()
	}
	return Document{ID: id, Text: text, Meta: meta}
}

// Chunk is a bounded-size slice of a document's text, ordered within it.
type Chunk struct {
	Text        string
	SourceDocID string
	Index       int
	Meta        Metadata
	Embedding   []float32
}

// NewChunk enforces that every chunk carries a back-reference to its source
// document.
func NewChunk(sourceDocID string, index int, text string, meta Metadata) (Chunk, error) {
	if sourceDocID == "" {
		return Chunk{}, ErrMissingSourceDoc
	}
	return Chunk{Text: text, SourceDocID: sourceDocID, Index: index, Meta: meta}, nil
}

// IndexEntry is the persisted lexical-index record: one per document, keyed
// by the document id, holding the full text and a metadata snapshot.
type IndexEntry struct {
	ID   string
	Text string
	Meta Metadata
}

// SummaryNode anchors extracted triples in the graph store: the abstractive
// summary text for a document plus its metadata. One node may be shared by
// many triples.
type SummaryNode struct {
	Text string
	Meta Metadata
}

// Record is the registry row written for every ingestion call. doc_id is not
// unique across rows: re-ingestion under a reused id adds a row, keeping the
// chunk-accumulation behavior observable.
type Record struct {
	ID         string    `json:"id"`
	DocID      string    `json:"doc_id"`
	Meta       Metadata  `json:"metadata"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	StatusPending = "pending"
	StatusIndexed = "indexed"
	StatusFailed  = "failed"
)
