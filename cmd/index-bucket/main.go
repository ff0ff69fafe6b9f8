package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log"
	"os"
	"strings"

	"gradia-backend/models"
	"gradia-backend/rag"
	"gradia-backend/repository"
	"gradia-backend/storage"

	"github.com/joho/godotenv"
)

// index-bucket embeds every PDF in a bucket and writes the chunks and
// vectors into the Postgres cache, so grading requests against that
// bucket skip the per-request embedding pass.
func main() {
	bucket := flag.String("bucket", "", "bucket to index")
	chunkSize := flag.Int("chunk-size", rag.DefaultChunkSize, "chunk window in characters")
	flag.Parse()

	if *bucket == "" {
		log.Fatal("Usage: index-bucket -bucket <name>")
	}

	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		log.Fatal("DATABASE_URL must be set")
	}

	ctx := context.Background()

	db, err := repository.NewPool(ctx, connString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	repo := repository.NewChunkRepository(db)

	store, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	embedder, err := rag.NewGeminiEmbedderFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}

	names, err := store.ListFiles(ctx, *bucket)
	if err != nil {
		log.Fatalf("Failed to list bucket %q: %v", *bucket, err)
	}

	collected := collectChunks(ctx, store, *bucket, names, *chunkSize)
	if len(collected) == 0 {
		log.Fatalf("No PDF content found in bucket %q", *bucket)
	}
	log.Printf("Embedding %d chunks from bucket %q", len(collected), *bucket)

	index, err := rag.BuildIndex(ctx, embedder, collected)
	if err != nil {
		log.Fatalf("Failed to embed chunks: %v", err)
	}

	if err := repo.Save(ctx, *bucket, collected, index.Vectors()); err != nil {
		log.Fatalf("Failed to save chunks: %v", err)
	}
	log.Printf("✓ Indexed %d chunks for bucket %q", len(collected), *bucket)
}

func collectChunks(ctx context.Context, store storage.Storage, bucket string, names []string, chunkSize int) []models.ReferenceChunk {
	var out []models.ReferenceChunk
	for _, name := range names {
		if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			continue
		}
		body, err := store.Download(ctx, bucket, name)
		if err != nil {
			log.Fatalf("Failed to download %q: %v", name, err)
		}
		data, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			log.Fatalf("Failed to read %q: %v", name, err)
		}
		text, err := rag.ExtractPDFText(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			log.Printf("Warning: skipping %q: %v", name, err)
			continue
		}
		for _, chunk := range rag.SplitChunks(text, chunkSize) {
			chunk.SourceOrder = len(out)
			out = append(out, chunk)
		}
	}
	return out
}
