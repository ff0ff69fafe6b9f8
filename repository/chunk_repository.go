package repository

import (
	"context"
	"fmt"

	"gradia-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// ChunkRepository persists reference-chunk embeddings per bucket so repeated
// grading requests against the same bucket skip re-embedding. It backs the
// rag.ChunkCache interface.
type ChunkRepository struct {
	db *pgxpool.Pool
}

// NewChunkRepository creates a new chunk repository.
func NewChunkRepository(db *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// NewPool connects to Postgres with pgvector types registered on every
// connection.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Fetch loads the cached chunks and embeddings for a bucket in source order.
// An unknown bucket returns empty results, not an error.
func (r *ChunkRepository) Fetch(ctx context.Context, bucket string) ([]models.ReferenceChunk, [][]float64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT chunk_text, source_order, embedding
		FROM reference_chunks
		WHERE bucket = $1
		ORDER BY source_order`, bucket)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query reference chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.ReferenceChunk
	var vectors [][]float64
	for rows.Next() {
		var chunk models.ReferenceChunk
		var embedding pgvector.Vector
		if err := rows.Scan(&chunk.Text, &chunk.SourceOrder, &embedding); err != nil {
			return nil, nil, fmt.Errorf("failed to scan reference chunk: %w", err)
		}
		chunks = append(chunks, chunk)
		vectors = append(vectors, toFloat64(embedding.Slice()))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating reference chunks: %w", err)
	}
	return chunks, vectors, nil
}

// Save replaces the cached chunks for a bucket with the given set.
func (r *ChunkRepository) Save(ctx context.Context, bucket string, chunks []models.ReferenceChunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reference_chunks WHERE bucket = $1`, bucket); err != nil {
		return fmt.Errorf("failed to clear bucket cache: %w", err)
	}

	for i, chunk := range chunks {
		_, err := tx.Exec(ctx, `
			INSERT INTO reference_chunks (id, bucket, source_order, chunk_text, embedding)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), bucket, chunk.SourceOrder, chunk.Text, pgvector.NewVector(toFloat32(vectors[i])))
		if err != nil {
			return fmt.Errorf("failed to insert reference chunk: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Clear drops the cached chunks for a bucket.
func (r *ChunkRepository) Clear(ctx context.Context, bucket string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM reference_chunks WHERE bucket = $1`, bucket); err != nil {
		return fmt.Errorf("failed to clear bucket cache: %w", err)
	}
	return nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = float64(v[i])
	}
	return out
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i := range v {
		out[i] = float32(v[i])
	}
	return out
}
