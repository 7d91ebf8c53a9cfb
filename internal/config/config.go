package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Database    DatabaseConfig   `json:"database"`
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	LogConfig   logger.LogConfig `json:"log_config"`
	FileStore   FileStoreConfig  `json:"file_store"`
	AI          AIConfig         `json:"ai"`
	Chunking    ChunkingConfig   `json:"chunking"`
	Retrieval   RetrievalConfig  `json:"retrieval"`
	Mail        MailConfig       `json:"mail"`
	CORSOrigins []string         `json:"cors_origins"`
	// Minimum interval between calls to the same route from the same
	// client, in milliseconds. 0 disables rate limiting.
	RateLimitMs int `json:"rate_limit_ms"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	// Providers maps a provider name (openai/deepseek/gemini/anthropic)
	// to its provider-specific arguments (api_key, base_url, ...).
	Providers map[string]interface{} `json:"providers"`
	Embed     EmbedConfig            `json:"embed"`
	// Timeout bounds a single generation call, in seconds.
	Timeout int `json:"timeout"`
}

type EmbedConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	// Dimension is the output length of the embedding model. Vectors of
	// any other length are rejected at insert time.
	Dimension     int  `json:"dimension"`
	CacheSize     int  `json:"cache_size"`
	CacheTTLMin   int  `json:"cache_ttl_minutes"`
	EnableDBCache bool `json:"enable_db_cache"`
}

type ChunkingConfig struct {
	UploadChunkSize int `json:"upload_chunk_size"`
	IngestChunkSize int `json:"ingest_chunk_size"`
}

type RetrievalConfig struct {
	TopK      int `json:"top_k"`
	TimeoutMs int `json:"timeout_ms"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.AI.Embed.Provider == "" {
		return nil, fmt.Errorf("ai.embed.provider is required")
	}
	if cfg.AI.Embed.Model == "" {
		return nil, fmt.Errorf("ai.embed.model is required")
	}
	if cfg.AI.Embed.Dimension <= 0 {
		return nil, fmt.Errorf("ai.embed.dimension is required")
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 120
	}
	if cfg.Chunking.UploadChunkSize <= 0 {
		cfg.Chunking.UploadChunkSize = 200
	}
	if cfg.Chunking.IngestChunkSize <= 0 {
		cfg.Chunking.IngestChunkSize = 1000
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.TimeoutMs <= 0 {
		cfg.Retrieval.TimeoutMs = 15000
	}
	return &cfg, nil
}
