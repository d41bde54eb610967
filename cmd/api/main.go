package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipsmith/clipsmith/internal/api"
	"github.com/clipsmith/clipsmith/internal/config"
	"github.com/clipsmith/clipsmith/internal/db"
	"github.com/clipsmith/clipsmith/internal/queue"
	"github.com/clipsmith/clipsmith/internal/services"
	"github.com/clipsmith/clipsmith/internal/storage"
	"github.com/clipsmith/clipsmith/internal/worker"
)

func main() {
	log.Println("Starting Clipsmith API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("Connected to database")

	// Connect to Redis queue
	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	// Initialize storage publisher when configured
	var stor *storage.Storage
	if cfg.PublishEnabled() {
		stor = storage.New(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)
		log.Printf("Publishing enabled (bucket: %s)", cfg.SupabaseStorageBucket)
	} else {
		log.Println("Publishing disabled, finished videos stay in the output directory")
	}

	// Create API handler
	handler := api.NewHandler(database, q, stor)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set, API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start worker if enabled
	var workerCtx context.Context
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background processing...")

		ffmpegSvc := services.NewFFmpegService(cfg.TempDir)
		composer := services.NewComposer(ffmpegSvc, cfg.OutputDir)
		pexelsSvc := services.NewPexelsService(cfg.PexelsAPIKey)

		// Script provider selection
		var scriptSvc services.ScriptService
		switch cfg.LLMProvider {
		case "gemini":
			scriptSvc = services.NewGeminiScriptService(cfg.GeminiKey, cfg.GeminiModel)
			log.Printf("Script provider: Gemini (model: %s)", cfg.GeminiModel)
		default:
			scriptSvc = services.NewOpenAIScriptService(cfg.OpenAIKey, cfg.OpenAIBase, cfg.OpenAIModel)
			log.Printf("Script provider: OpenAI-compatible (model: %s)", cfg.OpenAIModel)
		}

		// TTS provider — Azure Speech preferred, ElevenLabs as the alternate
		var ttsSvc services.TTSService
		if cfg.AzureSpeechKey != "" {
			ttsSvc = services.NewAzureTTSService(cfg.AzureSpeechKey, cfg.AzureSpeechRegion, cfg.TempDir)
			log.Printf("TTS provider: Azure Speech (region: %s)", cfg.AzureSpeechRegion)
		} else {
			ttsSvc = services.NewElevenLabsService(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID, cfg.TempDir)
			log.Println("TTS provider: ElevenLabs")
		}

		// Subtitle alignment needs the OpenAI key for Whisper; without it the
		// pipeline renders without subtitles.
		var aligner *services.TranscriptAligner
		if cfg.OpenAIKey != "" {
			aligner = services.NewTranscriptAligner(cfg.OpenAIKey, ffmpegSvc)
		} else {
			log.Println("WARNING: No OPENAI_API_KEY, videos will render without subtitles")
		}

		w := worker.New(database, q, stor, scriptSvc, ttsSvc, aligner, pexelsSvc, ffmpegSvc, composer, cfg.BackgroundMusicPath)

		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Shutdown worker
	if workerCancel != nil {
		workerCancel()
	}

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
