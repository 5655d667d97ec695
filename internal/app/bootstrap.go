package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/generative-ai-go/genai"
	_ "github.com/lib/pq"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"knowledgehub/internal/adapter/gemini"
	graphstore "knowledgehub/internal/adapter/neo4j"
	wstore "knowledgehub/internal/adapter/weaviate"
	"knowledgehub/internal/config"
	"knowledgehub/internal/vector"
)

// Dependencies holds the external connections the service runs on.
type Dependencies struct {
	DB     *sql.DB
	Store  *wstore.Store
	Graph  *graphstore.Store
	Gemini *genai.Client

	neo4jDriver neo4j.DriverWithContext
}

// Close releases all connections. Safe to call on a partially constructed
// value; nil members are skipped.
func (d *Dependencies) Close(ctx context.Context) {
	if d.Gemini != nil {
		if err := d.Gemini.Close(); err != nil {
			slog.Warn("failed to close gemini client", "error", err)
		}
	}
	if d.neo4jDriver != nil {
		if err := d.neo4jDriver.Close(ctx); err != nil {
			slog.Warn("failed to close neo4j driver", "error", err)
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			slog.Warn("failed to close db", "error", err)
		}
	}
}

// Bootstrap connects to Postgres, Weaviate, Neo4j and Gemini, applies
// migrations and ensures the vector schema. Connection setup retries because
// the backing containers usually come up alongside the service.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second

	// Database
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.PingContext(ctx); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Migrations
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return nil, fmt.Errorf("migration up error: %w", err)
	}

	// Weaviate
	wCfg := weaviate.Config{Host: cfg.WeaviateHost, Scheme: cfg.WeaviateScheme}
	wClient, err := weaviate.NewClient(wCfg)
	if err != nil {
		return nil, fmt.Errorf("weaviate client error: %w", err)
	}
	if err := ensureSchemaWithRetry(ctx, vector.NewWeaviateClientAdapter(wClient), cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		return nil, fmt.Errorf("weaviate schema error: %w", err)
	}

	// Neo4j
	neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver error: %w", err)
	}
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err = neo4jDriver.VerifyConnectivity(ctx); err == nil {
			break
		}
		slog.Warn("failed to reach neo4j, retrying...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("neo4j connectivity error: %w", err)
	}

	// Gemini
	genaiClient, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("gemini client error: %w", err)
	}

	return &Dependencies{
		DB:          db,
		Store:       wstore.NewStore(wClient),
		Graph:       graphstore.NewStore(neo4jDriver, cfg.Neo4jDatabase),
		Gemini:      genaiClient,
		neo4jDriver: neo4jDriver,
	}, nil
}

func ensureSchemaWithRetry(ctx context.Context, client vector.SchemaClient, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = vector.EnsureSchema(ctx, client); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}
