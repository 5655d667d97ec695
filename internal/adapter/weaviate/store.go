package weaviate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"knowledgehub/features/document"
	"knowledgehub/internal/retrieval"
)

const (
	ClassIndexEntry    = "IndexEntry"
	ClassDocumentChunk = "DocumentChunk"
)

// Store persists lexical entries and embedded chunks in Weaviate and serves
// the three retrieval query shapes. The two classes are written
// independently; there is no cross-class transaction.
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// UploadEntry stores one full-text record per document in the lexical class.
// The document id lives in the docId property, not the object id, so callers
// may reuse arbitrary identifiers without UUID constraints.
func (s *Store) UploadEntry(ctx context.Context, entry document.IndexEntry) error {
	props := map[string]interface{}{
		"docId":   entry.ID,
		"content": entry.Text,
	}
	for key, value := range entry.Meta.Map() {
		props[key] = value
	}

	_, err := s.client.Data().Creator().
		WithClassName(ClassIndexEntry).
		WithProperties(props).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("upload index entry %s: %w", entry.ID, err)
	}
	return nil
}

// InsertChunks batch-writes embedded chunks. Re-inserting chunks for an
// already-ingested docId accumulates objects; nothing is replaced.
func (s *Store) InsertChunks(ctx context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	objects := make([]*models.Object, 0, len(chunks))
	for _, chunk := range chunks {
		props := map[string]interface{}{
			"content":    chunk.Text,
			"docId":      chunk.SourceDocID,
			"chunkIndex": chunk.Index,
		}
		for key, value := range chunk.Meta.Map() {
			props[key] = value
		}
		objects = append(objects, &models.Object{
			Class:      ClassDocumentChunk,
			Properties: props,
			Vector:     chunk.Embedding,
		})
	}

	resp, err := s.client.Batch().ObjectsBatcher().
		WithObjects(objects...).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("insert chunk batch: %w", err)
	}
	for _, obj := range resp {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("insert chunk batch: %s", obj.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// BM25Search runs a keyword query against the lexical class and returns the
// provider-scored hits unchanged.
func (s *Store) BM25Search(ctx context.Context, query string, limit int) ([]retrieval.SearchResult, error) {
	bm25 := s.client.GraphQL().Bm25ArgBuilder().WithQuery(query)

	res, err := s.client.GraphQL().Get().
		WithClassName(ClassIndexEntry).
		WithBM25(bm25).
		WithLimit(limit).
		WithFields(entryFields()...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	return parseResults(res, ClassIndexEntry)
}

// NearVector retrieves the chunks closest to the query vector. The score is
// reported as 1-distance so higher remains better across all modes.
func (s *Store) NearVector(ctx context.Context, vector []float32, limit int) ([]retrieval.SearchResult, error) {
	near := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	res, err := s.client.GraphQL().Get().
		WithClassName(ClassDocumentChunk).
		WithNearVector(near).
		WithLimit(limit).
		WithFields(chunkFields()...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	return parseResults(res, ClassDocumentChunk)
}

// Hybrid fuses BM25 and vector rankings over the chunk class; alpha weights
// the vector side.
func (s *Store) Hybrid(ctx context.Context, query string, vector []float32, alpha float32, limit int) ([]retrieval.SearchResult, error) {
	hybrid := s.client.GraphQL().HybridArgumentBuilder().
		WithQuery(query).
		WithVector(vector).
		WithAlpha(alpha)

	res, err := s.client.GraphQL().Get().
		WithClassName(ClassDocumentChunk).
		WithHybrid(hybrid).
		WithLimit(limit).
		WithFields(chunkFields()...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	return parseResults(res, ClassDocumentChunk)
}

func metadataFields() []graphql.Field {
	return []graphql.Field{
		{Name: "author"},
		{Name: "topic"},
		{Name: "director"},
		{Name: "filename"},
		{Name: "user"},
	}
}

func entryFields() []graphql.Field {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "docId"},
	}
	fields = append(fields, metadataFields()...)
	return append(fields, additionalFields())
}

func chunkFields() []graphql.Field {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "docId"},
		{Name: "chunkIndex"},
	}
	fields = append(fields, metadataFields()...)
	return append(fields, additionalFields())
}

func additionalFields() graphql.Field {
	return graphql.Field{Name: "_additional", Fields: []graphql.Field{
		{Name: "id"},
		{Name: "score"},
		{Name: "distance"},
	}}
}

func parseResults(res *models.GraphQLResponse, className string) ([]retrieval.SearchResult, error) {
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	rows, ok := data[className].([]interface{})
	if !ok {
		return nil, nil
	}

	var results []retrieval.SearchResult
	for _, row := range rows {
		props, ok := row.(map[string]interface{})
		if !ok {
			continue
		}

		result := retrieval.SearchResult{Metadata: make(map[string]interface{})}
		for key, value := range props {
			switch key {
			case "content":
				result.Content, _ = value.(string)
			case "docId":
				result.DocID, _ = value.(string)
			case "chunkIndex":
				if idx, ok := value.(float64); ok {
					result.Metadata[key] = int(idx)
				}
			case "_additional":
				additional, ok := value.(map[string]interface{})
				if !ok {
					continue
				}
				if id, ok := additional["id"].(string); ok {
					result.ID = id
				}
				result.Score = parseScore(additional)
			default:
				if str, ok := value.(string); ok && str != "" {
					result.Metadata[key] = str
				}
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// parseScore tolerates the provider returning the score as either a string
// or a number. nearVector responses carry distance instead, reported here as
// 1-distance.
func parseScore(additional map[string]interface{}) float32 {
	switch score := additional["score"].(type) {
	case string:
		if score != "" {
			if f, err := strconv.ParseFloat(score, 64); err == nil {
				return float32(f)
			}
		}
	case float64:
		if score != 0 {
			return float32(score)
		}
	}
	if distance, ok := additional["distance"].(float64); ok {
		return float32(1 - distance)
	}
	return 0
}
