package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds everything the process reads from the environment. Missing
// required credentials are a fatal configuration error, surfaced at startup
// and never retried per-request.
type Config struct {
	AppPort           int
	OpenAIAPIKey      string
	OpenAIModel       string
	GoogleBooksKey    string
	CaptureDBPath     string
	CaptureDir        string
	VocabularyPath    string
	MaxPageAttempts   int
	FictionExtraPages int
	TextOnly          bool
}

func Load() (*Config, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable OPENAI_API_KEY is required but not set")
	}

	cfg := &Config{
		AppPort:           8080,
		OpenAIAPIKey:      apiKey,
		OpenAIModel:       "gpt-4o",
		GoogleBooksKey:    os.Getenv("GOOGLE_BOOKS_API_KEY"),
		CaptureDBPath:     os.Getenv("CAPTURE_DB_PATH"),
		CaptureDir:        os.Getenv("CAPTURE_DIR"),
		VocabularyPath:    os.Getenv("VOCABULARY_PATH"),
		MaxPageAttempts:   15,
		FictionExtraPages: 1,
	}

	if v := os.Getenv("APP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid APP_PORT %q: %w", v, err)
		}
		cfg.AppPort = port
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAIModel = v
	}
	if v := os.Getenv("MAX_PAGE_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_PAGE_ATTEMPTS %q: %w", v, err)
		}
		cfg.MaxPageAttempts = n
	}
	if v := os.Getenv("FICTION_EXTRA_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FICTION_EXTRA_PAGES %q: %w", v, err)
		}
		cfg.FictionExtraPages = n
	}
	if v := os.Getenv("TEXT_ONLY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TEXT_ONLY %q: %w", v, err)
		}
		cfg.TextOnly = b
	}

	return cfg, nil
}
