package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

func metadataProperties() []*models.Property {
	return []*models.Property{
		{Name: "author", DataType: []string{"text"}},
		{Name: "topic", DataType: []string{"text"}},
		{Name: "director", DataType: []string{"text"}},
		{Name: "filename", DataType: []string{"string"}}, // exact match
		{Name: "user", DataType: []string{"string"}},     // exact match
	}
}

func classes() []*models.Class {
	entryProps := []*models.Property{
		{Name: "content", DataType: []string{"text"}},
		{Name: "docId", DataType: []string{"string"}}, // exact match
	}
	chunkProps := []*models.Property{
		{Name: "content", DataType: []string{"text"}},
		{Name: "docId", DataType: []string{"string"}}, // exact match
		{Name: "chunkIndex", DataType: []string{"int"}},
	}

	return []*models.Class{
		{
			Class:       "IndexEntry",
			Description: "Full text of an ingested document, keyword searchable",
			Vectorizer:  "none",
			Properties:  append(entryProps, metadataProperties()...),
		},
		{
			Class:       "DocumentChunk",
			Description: "An embedded chunk of a document",
			Vectorizer:  "none",
			Properties:  append(chunkProps, metadataProperties()...),
		},
	}
}

// EnsureSchema creates the lexical and chunk classes if absent and adds any
// properties missing from an existing class. Vectors are supplied by the
// application, so both classes run with vectorizer "none".
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	for _, class := range classes() {
		if err := ensureClass(ctx, client, class); err != nil {
			return err
		}
	}
	return nil
}

func ensureClass(ctx context.Context, client SchemaClient, class *models.Class) error {
	exists, err := client.ClassExists(ctx, class.Class)
	if err != nil {
		return err
	}
	if !exists {
		return client.CreateClass(ctx, class)
	}

	existing, err := client.GetClass(ctx, class.Class)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range existing.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range class.Properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, class.Class, p); err != nil {
				return err
			}
		}
	}

	return nil
}
