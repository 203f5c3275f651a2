package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bookpeek/archive"
	"bookpeek/books"
	"bookpeek/config"
	"bookpeek/excerpt"
	"bookpeek/fallback"
	"bookpeek/locator"
	"bookpeek/viewer"
	"bookpeek/vision"
)

func main() {
	// =========
	// Config
	// =========
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// =========
	// Logging
	// =========
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// =========
	// Vision model
	// =========
	model, err := vision.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		logger.Fatal("failed to create model client", zap.Error(err))
	}
	classifier := vision.NewPageClassifier(model, logger)
	transcriber := vision.NewPageTranscriber(model, logger)
	generator := vision.NewExcerptGenerator(model, logger)

	// =========
	// Bibliographic resolver
	// =========
	vocab := books.DefaultVocabulary()
	if cfg.VocabularyPath != "" {
		vocab, err = books.LoadVocabulary(cfg.VocabularyPath)
		if err != nil {
			logger.Fatal("failed to load vocabulary", zap.Error(err))
		}
	}
	booksClient := books.NewClient(cfg.GoogleBooksKey)
	resolver := books.NewResolver(booksClient, books.NewKeywordPolicy(vocab), logger)

	// =========
	// Page locator
	// =========
	var sink locator.CaptureSink = locator.NoopSink{}
	switch {
	case cfg.CaptureDBPath != "":
		boltSink, err := locator.NewBoltSink(cfg.CaptureDBPath)
		if err != nil {
			logger.Fatal("failed to open capture db", zap.Error(err))
		}
		defer boltSink.Close()
		sink = boltSink
	case cfg.CaptureDir != "":
		sink = locator.DirSink{Dir: cfg.CaptureDir}
	}

	loc := locator.New(
		viewer.NewChromeFactory(logger),
		classifier,
		sink,
		locator.Config{
			MaxAttempts:       cfg.MaxPageAttempts,
			FictionExtraPages: cfg.FictionExtraPages,
		},
		logger,
	)

	// =========
	// Fallback cascade + service
	// =========
	cascade := fallback.NewCascade(booksClient, archive.NewClient(), generator, logger)
	service := excerpt.NewService(resolver, loc, transcriber, cascade, cfg.TextOnly, logger)

	// =========
	// HTTP handler func
	// =========
	extracth := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var guess books.Guess
		if err := json.NewDecoder(r.Body).Decode(&guess); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if strings.TrimSpace(guess.Title) == "" && strings.TrimSpace(guess.ISBN) == "" {
			http.Error(w, "missing title or isbn", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		result := service.LocateAndExtract(ctx, guess)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.Error("failed to encode response", zap.Error(err))
		}
	}

	http.HandleFunc("/extract", extracth)
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	logger.Info("starting server", zap.Int("port", cfg.AppPort))
	log.Fatal(http.ListenAndServe(":"+strconv.Itoa(cfg.AppPort), nil))
}
