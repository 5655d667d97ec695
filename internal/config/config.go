package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

// RetrievalMode selects how SemanticSearch queries the vector index.
// It is fixed once at startup; a retriever never changes mode per call.
type RetrievalMode string

const (
	ModeDefault        RetrievalMode = "default"
	ModeHybrid         RetrievalMode = "hybrid"
	ModeSemanticHybrid RetrievalMode = "semantic_hybrid"
)

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"knowledgehub"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"knowledgehub"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	Neo4jURI      string `envconfig:"NEO4J_URI" default:"neo4j://localhost:7687"`
	Neo4jUser     string `envconfig:"NEO4J_USERNAME" default:"neo4j"`
	Neo4jPass     string `envconfig:"NEO4J_PASSWORD"`
	Neo4jDatabase string `envconfig:"NEO4J_DATABASE" default:"neo4j"`

	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	GenerationModel string `envconfig:"GENERATION_MODEL" default:"gemini-1.5-flash"`
	EmbeddingModel  string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	EmbeddingDim    int    `envconfig:"EMBEDDING_DIM" default:"1536"`

	RetrievalMode  string  `envconfig:"RETRIEVAL_MODE" default:"hybrid"`
	SearchAlpha    float32 `envconfig:"SEARCH_ALPHA" default:"0.5"`
	SearchTopK     int     `envconfig:"SEARCH_TOP_K" default:"10"`
	RerankProvider string  `envconfig:"RERANK_PROVIDER"`
	RerankAPIKey   string  `envconfig:"RERANK_API_KEY"`

	IndexChunkSize         int  `envconfig:"INDEX_CHUNK_SIZE" default:"1024"`
	SummaryChunkSize       int  `envconfig:"SUMMARY_CHUNK_SIZE" default:"4096"`
	SummaryPacingMs        int  `envconfig:"SUMMARY_PACING_MS" default:"500"`
	SummarySynthesizeFinal bool `envconfig:"SUMMARY_SYNTHESIZE_FINAL" default:"false"`

	RetryAttempts int `envconfig:"RETRY_ATTEMPTS" default:"3"`

	ServerPort    int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath  string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may come from the shell instead; a missing .env is not an error.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.WeaviateHost == "" {
		return fmt.Errorf("%w: WEAVIATE_HOST", ErrMissingRequired)
	}
	if c.Neo4jURI == "" {
		return fmt.Errorf("%w: NEO4J_URI", ErrMissingRequired)
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("invalid EMBEDDING_DIM %d: must be a positive fixed dimensionality", c.EmbeddingDim)
	}
	switch RetrievalMode(c.RetrievalMode) {
	case ModeDefault, ModeHybrid, ModeSemanticHybrid:
	default:
		return fmt.Errorf("invalid RETRIEVAL_MODE %q: must be default, hybrid or semantic_hybrid", c.RetrievalMode)
	}
	return nil
}

func (c *Config) Mode() RetrievalMode {
	return RetrievalMode(c.RetrievalMode)
}
