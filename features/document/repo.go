package document

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, rec *Record) error {
	query := `INSERT INTO documents (doc_id, filename, author, topic, director, uploaded_by, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		rec.DocID, rec.Meta.Filename, rec.Meta.Author, rec.Meta.Topic, rec.Meta.Director, rec.Meta.User, StatusPending,
	).Scan(&rec.ID)
}

func (r *PostgresRepo) MarkIndexed(ctx context.Context, id string, chunkCount int) error {
	query := `UPDATE documents SET status = $1, chunk_count = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, StatusIndexed, chunkCount, id)
	return err
}

func (r *PostgresRepo) MarkFailed(ctx context.Context, id, errMsg string) error {
	query := `UPDATE documents SET status = $1, error = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, StatusFailed, errMsg, id)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Record, error) {
	rec := &Record{}
	query := `SELECT id, doc_id, filename, author, topic, director, uploaded_by, status, chunk_count, error, created_at, updated_at
	          FROM documents WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.DocID, &rec.Meta.Filename, &rec.Meta.Author, &rec.Meta.Topic, &rec.Meta.Director,
		&rec.Meta.User, &rec.Status, &rec.ChunkCount, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Record, error) {
	query := `SELECT id, doc_id, filename, author, topic, director, uploaded_by, status, chunk_count, error, created_at, updated_at
	          FROM documents ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.DocID, &rec.Meta.Filename, &rec.Meta.Author, &rec.Meta.Topic, &rec.Meta.Director,
			&rec.Meta.User, &rec.Status, &rec.ChunkCount, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountByDocID reports how many ingestion generations exist for one doc id.
// Re-ingestion accumulates rather than replaces, so this can exceed 1.
func (r *PostgresRepo) CountByDocID(ctx context.Context, docID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM documents WHERE doc_id = $1`
	err := r.db.QueryRowContext(ctx, query, docID).Scan(&count)
	return count, err
}
