package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration. Missing required fields
// abort startup before the server accepts traffic.
type Config struct {
	Port       string
	CORSOrigin string

	SearchEndpoint   string `validate:"required,url"`
	SearchAPIKey     string `validate:"required"`
	SearchIndex      string `validate:"required"`
	SearchChunkField string `validate:"required"`
	SemanticConfig   string
	AnswerCount      int `validate:"gte=1,lte=10"`

	ChatEndpoint    string `validate:"required,url"`
	ChatAPIKey      string // empty selects bearer-token auth
	ChatBearerToken string
	ChatAPIVersion  string `validate:"required"`
	ChatModel       string `validate:"required"`
	ChatMaxTokens   int    `validate:"gt=0"`
	EmbeddingModel  string

	RateLimitRPS   float64
	RateLimitBurst int
}

func loadConfig() (Config, error) {
	// .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg := Config{
		Port:       envOr("PORT", "8080"),
		CORSOrigin: envOr("CORS_ORIGIN", "*"),

		SearchEndpoint:   os.Getenv("SEARCH_ENDPOINT"),
		SearchAPIKey:     os.Getenv("SEARCH_API_KEY"),
		SearchIndex:      os.Getenv("SEARCH_INDEX"),
		SearchChunkField: envOr("SEARCH_CHUNK_FIELD", "chunk"),
		SemanticConfig:   os.Getenv("SEARCH_SEMANTIC_CONFIG"),
		AnswerCount:      envInt("SEARCH_ANSWER_COUNT", 3),

		ChatEndpoint:    os.Getenv("CHAT_ENDPOINT"),
		ChatAPIKey:      os.Getenv("CHAT_API_KEY"),
		ChatBearerToken: os.Getenv("CHAT_BEARER_TOKEN"),
		ChatAPIVersion:  envOr("CHAT_API_VERSION", "2024-02-01"),
		ChatModel:       os.Getenv("CHAT_MODEL"),
		ChatMaxTokens:   envInt("CHAT_MAX_TOKENS", 800),
		EmbeddingModel:  os.Getenv("EMBEDDING_MODEL"),

		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 20),
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.ChatAPIKey == "" && cfg.ChatBearerToken == "" {
		return Config{}, fmt.Errorf("config: one of CHAT_API_KEY or CHAT_BEARER_TOKEN is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
