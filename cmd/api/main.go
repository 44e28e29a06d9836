package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/datableed/decision-engine/internal/config"
	"github.com/datableed/decision-engine/internal/engine"
	"github.com/datableed/decision-engine/internal/events"
	"github.com/datableed/decision-engine/internal/handlers"
	"github.com/datableed/decision-engine/internal/logger"
	"github.com/datableed/decision-engine/internal/middleware"
	"github.com/datableed/decision-engine/internal/services"
	"github.com/datableed/decision-engine/internal/storage"
	"github.com/datableed/decision-engine/internal/tracker"
	"github.com/datableed/decision-engine/pkg/clock"
)

func main() {
	// Best-effort: a missing .env is fine in deployed environments.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Decision Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"dialogue_provider", cfg.DialogueProvider)

	var dialogue services.DialogueService
	switch strings.ToLower(cfg.DialogueProvider) {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Error("OpenAI API key is required when using openai provider")
			os.Exit(1)
		}
		dialogue = services.NewOpenAIDialogue(cfg.OpenAIAPIKey, cfg.OpenAIModel, log)
		log.Info("Using OpenAI dialogue provider", "model", cfg.OpenAIModel)
	case "mock":
		dialogue = services.NewMockDialogue()
		log.Info("Using mock dialogue provider")
	case "none":
		dialogue = nil
	default:
		log.Error("Invalid dialogue provider specified", "provider", cfg.DialogueProvider, "supported", []string{"openai", "mock", "none"})
		os.Exit(1)
	}

	store := storage.NewRedisStore(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	contentStore, err := storage.NewContentStore(cfg.DataDir, log)
	if err != nil {
		log.Error("Failed to load character content", "error", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	}
	log.Info("Character content loaded", "characters", contentStore.ListCharacters())

	bus := events.NewBus()
	forwarder := events.NewForwarder(store, log)
	forwarder.Attach(bus)

	sched := clock.NewReal()
	trk := tracker.New(store, contentStore, bus, sched, log)
	if err := trk.Hydrate(storageCtx); err != nil {
		log.Error("Failed to hydrate progress from storage", "error", err)
		os.Exit(1)
	}

	realtimeEngine := engine.NewRealtimeEngine(contentStore, trk, bus, sched, log)
	investigationEngine := engine.NewInvestigationEngine(contentStore, trk, bus, sched, log)
	puzzleEngine := engine.NewPuzzleEngine(contentStore, trk, bus, sched, log)
	router := engine.NewRouter(contentStore, trk, bus, realtimeEngine, investigationEngine, puzzleEngine, dialogue, sched, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, strings.ToLower(cfg.DialogueProvider), log))
	mux.Handle("/v1/characters", handlers.NewCharactersHandler(contentStore, log))

	progressHandler := handlers.NewProgressHandler(trk, log)
	mux.Handle("/v1/progress/", progressHandler)

	decisionsHandler := handlers.NewDecisionsHandler(router, log)
	mux.Handle("/v1/decisions/", decisionsHandler)

	realtimeHandler := handlers.NewRealtimeHandler(realtimeEngine, log)
	mux.Handle("/v1/realtime/", realtimeHandler)

	investigationHandler := handlers.NewInvestigationHandler(investigationEngine, log)
	mux.Handle("/v1/investigations/", investigationHandler)

	puzzleHandler := handlers.NewPuzzleHandler(puzzleEngine, log)
	mux.Handle("/v1/puzzles/", puzzleHandler)

	handler := middleware.Logger(log, mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
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

	// Drain pending progress writes before closing the store.
	trk.Flush()
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
