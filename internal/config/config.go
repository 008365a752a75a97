package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Provider identifies an LLM or embedding backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// LLM (classification; response composition happens outside this service)
	LLMProvider     Provider
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	BedrockRegion   string

	// Embedding
	EmbedProvider  Provider
	EmbedModel     string
	EmbedDimension int

	// Retrieval tunables
	TopK            int
	ScanFactor      int
	MaxScan         int
	SimilarityDelta float64
	MaxExcerptChars int

	// Quick replies
	MaxQuickReplies int
	SuggestionLimit int

	// Conversation context
	HistoryLimit int
	ContextTTL   time.Duration

	// Server
	ListenAddr string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "bodhibot"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "dharma"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:     Provider(getEnv("BODHIBOT_LLM_PROVIDER", string(ProviderOllama))),
		LLMModel:        getEnv("BODHIBOT_LLM_MODEL", "qwen2.5:7b"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		BedrockRegion:   getEnv("AWS_REGION", "us-east-1"),

		EmbedProvider:  Provider(getEnv("BODHIBOT_EMBED_PROVIDER", string(ProviderOllama))),
		EmbedModel:     getEnv("BODHIBOT_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("BODHIBOT_EMBED_DIMENSION", 384),

		TopK:            getEnvInt("BODHIBOT_TOP_K", 3),
		ScanFactor:      getEnvInt("BODHIBOT_SCAN_FACTOR", 5),
		MaxScan:         getEnvInt("BODHIBOT_MAX_SCAN", 50),
		SimilarityDelta: getEnvFloat("BODHIBOT_SIMILARITY_DELTA", 0.02),
		MaxExcerptChars: getEnvInt("BODHIBOT_MAX_EXCERPT_CHARS", 150),

		MaxQuickReplies: getEnvInt("BODHIBOT_MAX_QUICK_REPLIES", 13),
		SuggestionLimit: getEnvInt("BODHIBOT_SUGGESTION_LIMIT", 3),

		HistoryLimit: getEnvInt("BODHIBOT_HISTORY_LIMIT", 5),
		ContextTTL:   getEnvDuration("BODHIBOT_CONTEXT_TTL", 72*time.Hour),

		ListenAddr: getEnv("BODHIBOT_LISTEN_ADDR", ":8791"),

		LogFile:  getEnv("BODHIBOT_LOG_FILE", "/tmp/bodhibot.log"),
		LogLevel: parseLogLevel(getEnv("BODHIBOT_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

