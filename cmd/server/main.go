package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/api"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/config"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/media"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/pipeline"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/storage"
	"github.com/saad-git-007/LLM-powered-audio-transcriber/internal/transcribe"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	// Optional secrets file, the primary credential channel
	if secrets := os.Getenv("SECRETS_FILE"); secrets != "" {
		if err := godotenv.Load(secrets); err != nil {
			log.Printf("Warning: could not load secrets file %s: %v", secrets, err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.OpenAIKey == "" {
		log.Println("OPENAI_API_KEY not set; clients must supply a key per request")
	}

	// Set Gin mode (default to release mode)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	store := storage.NewStore(cfg.UploadDir)
	normalizer := media.NewNormalizer(cfg.FFmpegPath)
	chunker := media.NewChunker(cfg.FFmpegPath, cfg.ChunkDuration)
	pipe := pipeline.New(normalizer, chunker, store)

	factory := func(apiKey string) transcribe.Provider {
		return transcribe.NewOpenAIProvider(apiKey, cfg.Model, cfg.Language)
	}
	handlers := api.NewHandlers(cfg, store, pipe, factory)

	r := gin.Default()
	r.Use(corsMiddleware())
	api.RegisterRoutes(r, handlers)

	log.Printf("Audio transcriber running on :%s (model: %s, chunk: %v)", cfg.Port, cfg.Model, cfg.ChunkDuration)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// corsMiddleware adds permissive CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-API-Key, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
