package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"gradia-backend/handlers"
	"gradia-backend/rag"
	"gradia-backend/repository"
	"gradia-backend/service"
	"gradia-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	ctx := context.Background()

	// Initialize storage
	fileStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Println("Storage initialized")

	// Initialize embedder
	embedder, err := initEmbedder()
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}

	// Optional chunk cache, used when a database is configured
	retrieverOpts := []rag.RetrieverOption{
		rag.WithDocumentSource(fileStorage),
		rag.WithEmbedder(embedder),
	}
	if connString := os.Getenv("DATABASE_URL"); connString != "" {
		db, err := repository.NewPool(ctx, connString)
		if err != nil {
			log.Fatal("Failed to initialize Postgres:", err)
		}
		defer db.Close()
		retrieverOpts = append(retrieverOpts, rag.WithChunkCache(repository.NewChunkRepository(db)))
		log.Println("Postgres chunk cache enabled")
	}
	if raw := os.Getenv("RETRIEVAL_TOP_K"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k <= 0 {
			log.Fatalf("Invalid RETRIEVAL_TOP_K: %q", raw)
		}
		retrieverOpts = append(retrieverOpts, rag.WithTopK(k))
	}
	retriever := rag.NewRetriever(retrieverOpts...)

	// Initialize Gemini client
	geminiClient, err := initGemini(ctx)
	if err != nil {
		log.Fatal("Failed to initialize Gemini:", err)
	}
	defer geminiClient.Close()

	// Initialize services
	gradingService := service.NewGradingService(
		service.WithRetriever(retriever),
		service.WithModelClient(service.NewGeminiModel(geminiClient, os.Getenv("GEMINI_MODEL"))),
	)

	codeEvalService := service.NewCodeEvalService(
		service.WithJudgeAPIKey(os.Getenv("JUDGE0_API_KEY")),
	)

	// Initialize handlers
	gradingHandler := handlers.NewGradingHandler(gradingService)
	storageHandler := handlers.NewStorageHandler(fileStorage)
	codeEvalHandler := handlers.NewCodeEvalHandler(codeEvalService)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes, guarded by the API key
	api := r.Group("/api")
	api.Use(handlers.APIKeyAuth(os.Getenv("GRADIA_API_KEY"), os.Getenv("GRADIA_API_KEY_HASH")))
	{
		api.GET("/", func(c *gin.Context) {
			c.String(200, "The Gradia Grading System is up and running :)")
		})

		// Grading endpoints
		api.POST("/grading/grade", gradingHandler.GradeAnswer)
		api.POST("/grading/grade-code", gradingHandler.GradeCode)

		// Storage endpoints
		api.POST("/storage/create-bucket", storageHandler.CreateBucket)
		api.DELETE("/storage/delete-bucket", storageHandler.DeleteBucket)
		api.POST("/storage/list-files", storageHandler.ListFiles)
		api.POST("/storage/upload-file", storageHandler.UploadFile)
		api.DELETE("/storage/delete-file", storageHandler.DeleteFile)
		api.POST("/storage/download-file", storageHandler.DownloadFile)

		// Code evaluation endpoints
		api.GET("/code-eval/get-languages", codeEvalHandler.GetLanguages)
		api.POST("/code-eval/submit", codeEvalHandler.Submit)

		// OCR is optional: Vision credentials may not be configured
		if ocrService, err := service.NewOCRService(ctx); err != nil {
			log.Printf("Warning: OCR disabled, Vision client init failed: %v", err)
		} else {
			defer ocrService.Close()
			ocrHandler := handlers.NewOCRHandler(ocrService)
			api.POST("/ocr/extract-text", ocrHandler.ExtractText)
		}
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func initEmbedder() (rag.Embedder, error) {
	if os.Getenv("EMBEDDING_PROVIDER") == "openai" {
		return rag.NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_EMBEDDING_MODEL"))
	}
	return rag.NewGeminiEmbedderFromEnv()
}

func initGemini(ctx context.Context) (*genai.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	log.Println("Gemini client initialized")
	return client, nil
}
