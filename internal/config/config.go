package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// LLM (script generation)
	LLMProvider string // "openai" (default, any OpenAI-compatible endpoint) or "gemini"
	OpenAIKey   string // also used for Whisper word-level transcription
	OpenAIBase  string // base URL override for OpenAI-compatible providers
	OpenAIModel string
	GeminiKey   string
	GeminiModel string

	// Azure Speech (preferred TTS provider)
	AzureSpeechKey    string
	AzureSpeechRegion string

	// ElevenLabs (alternate TTS provider, used when Azure key is not set)
	ElevenLabsKey     string
	ElevenLabsVoiceID string

	// Pexels (stock footage search + download)
	PexelsAPIKey string

	// Directories
	OutputDir string
	TempDir   string

	// Audio
	BackgroundMusicPath string // Default background music file (empty = no music)

	// Supabase publish (optional — empty URL disables publishing)
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseStorageBucket string

	// Worker
	MaxConcurrentJobs int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:               getEnv("API_PORT", "8080"),
		WorkerEnabled:         getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:         getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins:    getEnv("CORS_ALLOWED_ORIGINS", ""),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", "redis://localhost:6379"),
		LLMProvider:           getEnv("LLM_PROVIDER", "openai"),
		OpenAIKey:             getEnv("OPENAI_API_KEY", ""),
		OpenAIBase:            getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiKey:             getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AzureSpeechKey:        getEnv("AZURE_SPEECH_KEY", ""),
		AzureSpeechRegion:     getEnv("AZURE_SPEECH_REGION", "eastus"),
		ElevenLabsKey:         getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:     getEnv("ELEVENLABS_VOICE_ID", ""),
		PexelsAPIKey:          getEnv("PEXELS_API_KEY", ""),
		OutputDir:             getEnv("OUTPUT_DIR", "./output"),
		TempDir:               getEnv("TEMP_DIR", "./temp"),
		BackgroundMusicPath:   getEnv("BACKGROUND_MUSIC_PATH", ""),
		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "clipsmith-videos"),
		MaxConcurrentJobs:     getEnvInt("MAX_CONCURRENT_JOBS", 2),
	}

	// Validate required fields. Missing external-service credentials are an
	// environmental error and must fail startup, never a running job.
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.PexelsAPIKey == "" {
		return nil, fmt.Errorf("PEXELS_API_KEY is required for stock footage search")
	}

	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q (want openai or gemini)", cfg.LLMProvider)
	}

	// At least one TTS provider must be configured
	if cfg.AzureSpeechKey == "" && cfg.ElevenLabsKey == "" {
		return nil, fmt.Errorf("either AZURE_SPEECH_KEY or ELEVENLABS_API_KEY is required for TTS")
	}

	// Whisper transcription shares the OpenAI key; without it the pipeline
	// still runs but produces no subtitles, so it's a warning, not an error.

	return cfg, nil
}

// PublishEnabled reports whether finished videos should be uploaded to
// object storage in addition to the local output directory.
func (c *Config) PublishEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
