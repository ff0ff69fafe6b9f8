package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		log.Fatal("DATABASE_URL must be set")
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	// Enable pgvector extension
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
	} else {
		log.Println("✓ pgvector extension enabled")
	}

	// Create the reference_chunks table
	schemaSQL := `
CREATE TABLE IF NOT EXISTS reference_chunks (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    bucket TEXT NOT NULL,
    source_order INTEGER NOT NULL,
    chunk_text TEXT NOT NULL,
    embedding vector(768),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalf("Failed to create reference_chunks table: %v", err)
	}
	log.Println("✓ Created reference_chunks table")

	indexSQL := `CREATE INDEX IF NOT EXISTS idx_reference_chunks_bucket ON reference_chunks (bucket)`
	if _, err := pool.Exec(ctx, indexSQL); err != nil {
		log.Fatalf("Failed to create bucket index: %v", err)
	}
	log.Println("✓ Created bucket index")

	log.Println("Schema setup complete")
}
