package config_test

import (
	"errors"
	"testing"

	"knowledgehub/internal/config"

	"github.com/stretchr/testify/assert"
)

func valid() config.Config {
	return config.Config{
		DBHost:        "localhost",
		DBName:        "db",
		WeaviateHost:  "localhost:8080",
		Neo4jURI:      "neo4j://localhost:7687",
		GeminiAPIKey:  "key",
		EmbeddingDim:  1536,
		RetrievalMode: "hybrid",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
		errIs   error
	}{
		{
			name:   "Valid Config",
			mutate: func(c *config.Config) {},
		},
		{
			name:    "Missing DBHost",
			mutate:  func(c *config.Config) { c.DBHost = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:    "Missing WeaviateHost",
			mutate:  func(c *config.Config) { c.WeaviateHost = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:    "Missing Neo4jURI",
			mutate:  func(c *config.Config) { c.Neo4jURI = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:    "Missing GeminiAPIKey",
			mutate:  func(c *config.Config) { c.GeminiAPIKey = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:    "Zero Embedding Dim",
			mutate:  func(c *config.Config) { c.EmbeddingDim = 0 },
			wantErr: true,
		},
		{
			name:    "Unknown Retrieval Mode",
			mutate:  func(c *config.Config) { c.RetrievalMode = "fuzzy" },
			wantErr: true,
		},
		{
			name:   "Semantic Hybrid Mode",
			mutate: func(c *config.Config) { c.RetrievalMode = "semantic_hybrid" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errIs != nil {
					assert.True(t, errors.Is(err, tt.errIs))
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
