package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	GitHubHandle     string
	GitHubToken      string
	GitHubAPIURL     string
	GitHubGraphQLURL string

	// SnapshotSource is a local path or http(s) URL of the fallback
	// document.
	SnapshotSource string

	ListenAddr string
	LogLevel   string

	SurrealURL  string
	SurrealNS   string
	SurrealDB   string
	SurrealUser string
	SurrealPass string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		GitHubHandle:     os.Getenv("GITHUB_HANDLE"),
		GitHubToken:      os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL:     os.Getenv("GITHUB_API_URL"),
		GitHubGraphQLURL: os.Getenv("GITHUB_GRAPHQL_URL"),

		SnapshotSource: os.Getenv("SNAPSHOT_SOURCE"),

		ListenAddr: os.Getenv("LISTEN_ADDR"),
		LogLevel:   os.Getenv("LOG_LEVEL"),

		SurrealURL:  os.Getenv("SURREAL_URL"),
		SurrealNS:   os.Getenv("SURREAL_NS"),
		SurrealDB:   os.Getenv("SURREAL_DB"),
		SurrealUser: os.Getenv("SURREAL_USER"),
		SurrealPass: os.Getenv("SURREAL_PASS"),

		LLMBaseURL: os.Getenv("LLM_BASE_URL"),
		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMModel:   os.Getenv("LLM_MODEL"),
	}

	// The SDK appends /rpc automatically
	cfg.SurrealURL = strings.TrimSuffix(cfg.SurrealURL, "/rpc")
	cfg.SurrealURL = strings.TrimSuffix(cfg.SurrealURL, "/")

	if cfg.GitHubHandle == "" {
		cfg.GitHubHandle = "akito-ando"
	}
	if cfg.GitHubAPIURL == "" {
		cfg.GitHubAPIURL = "https://api.github.com"
	}
	if cfg.GitHubGraphQLURL == "" {
		cfg.GitHubGraphQLURL = strings.TrimSuffix(cfg.GitHubAPIURL, "/") + "/graphql"
	}
	if cfg.SnapshotSource == "" {
		cfg.SnapshotSource = "docs/api/github.json"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = "gpt-4o-mini"
	}

	return cfg
}

// ParseLogLevel maps debug/info/warn/error to a slog level, defaulting to
// info. The bool reports whether the input was recognised.
func ParseLogLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// NewLogger returns a text logger at the given level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	lvl, ok := ParseLogLevel(level)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	if !ok {
		logger.Warn("Invalid LOG_LEVEL, using INFO", "value", level)
	}
	return logger
}
