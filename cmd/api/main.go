package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/roleplay-engine/internal/config"
	"github.com/jwebster45206/roleplay-engine/internal/engine"
	"github.com/jwebster45206/roleplay-engine/internal/handlers"
	"github.com/jwebster45206/roleplay-engine/internal/logger"
	"github.com/jwebster45206/roleplay-engine/internal/middleware"
	"github.com/jwebster45206/roleplay-engine/internal/services"
	"github.com/jwebster45206/roleplay-engine/internal/services/events"
	"github.com/jwebster45206/roleplay-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Roleplay Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	var llmService services.LLMService
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		gemini, err := services.NewGeminiService(context.Background(), cfg.GeminiAPIKey, cfg.ModelName, log)
		if err != nil {
			log.Error("Failed to create Gemini client", "error", err)
			os.Exit(1)
		}
		defer func() { _ = gemini.Close() }()
		llmService = gemini
	case config.ProviderAnthropic:
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log)
	case config.ProviderOpenAI:
		llmService = services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName, cfg.OpenAIBaseURL, log)
	case config.ProviderMock:
		log.Warn("Using mock LLM provider; stories will not advance meaningfully")
		llmService = services.NewMockLLMAPI()
	}
	log.Info("LLM provider configured", "provider", cfg.LLMProvider)

	saves, err := storage.OpenSaveStore(cfg.SQLitePath, log)
	if err != nil {
		log.Error("Failed to open save store", "error", err, "path", cfg.SQLitePath)
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.GameStateTTL, saves, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := llmService.InitModel(ctx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	locker := services.NewRedisLocker(store.Client(), cfg.LockTTL, log)
	broadcaster := events.NewBroadcaster(store.Client(), log)

	eng := engine.New(store, llmService, log,
		engine.WithLocker(locker),
		engine.WithPublisher(broadcaster),
		engine.WithHistoryLimit(cfg.HistoryLimit),
		engine.WithOracleTimeout(cfg.OracleTimeout),
	)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, locker, log)
	mux.Handle("/health", healthHandler)

	gameStateHandler := handlers.NewGameStateHandler(eng, log)
	mux.Handle("/v1/gamestate", gameStateHandler)
	mux.Handle("/v1/gamestate/", gameStateHandler)

	savesHandler := handlers.NewSavesHandler(eng, log)
	mux.Handle("/v1/saves", savesHandler)
	mux.Handle("/v1/saves/", savesHandler)

	setupsHandler := handlers.NewSetupsHandler(eng, log)
	mux.Handle("/v1/setups", setupsHandler)
	mux.Handle("/v1/setups/", setupsHandler)

	assistHandler := handlers.NewAssistHandler(eng, log)
	mux.Handle("/v1/suggestions", assistHandler)
	mux.Handle("/v1/entities/extract", assistHandler)

	mux.Handle("/v1/events/gamestate/", handlers.NewEventsHandler(broadcaster, log))

	handler := middleware.Chain(mux, middleware.Recover(log), middleware.Logger(log))
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: event streams stay open and oracle calls carry their own timeout
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
