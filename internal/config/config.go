package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          string
	OpenAIKey     string
	Model         string
	Language      string
	ChunkDuration time.Duration
	MaxUploadSize int64
	UploadDir     string
	FFmpegPath    string
}

// Load loads configuration from environment variables.
// The OpenAI key is deliberately not required here: a run may supply one
// through the interactive fallback channel instead (see ResolveAPIKey).
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		Model:         getEnv("TRANSCRIBE_MODEL", "gpt-4o-mini-transcribe"),
		Language:      getEnv("TRANSCRIBE_LANGUAGE", "en"),
		ChunkDuration: time.Duration(getEnvInt("CHUNK_MINUTES", 10)) * time.Minute,
		MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_MB", 100)) << 20,
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		FFmpegPath:    getEnv("FFMPEG_PATH", "ffmpeg"),
	}

	return cfg, nil
}

// ResolveAPIKey resolves the transcription credential with a fixed order:
// the configured key (secrets file / environment) wins, otherwise the
// caller-supplied fallback. An empty result means the run cannot start.
func (c *Config) ResolveAPIKey(fallback string) string {
	if c.OpenAIKey != "" {
		return c.OpenAIKey
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
