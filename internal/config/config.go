package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	JWTIssuer     string           `json:"jwt_issuer"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	FileStore     FileStoreConfig  `json:"file_store"`
	AI            AIConfig         `json:"ai"`
	RateLimit     RateLimitConfig  `json:"rate_limit"`
	Quota         QuotaConfig      `json:"quota"`
	Upload        UploadConfig     `json:"upload"`
	Jobs          JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	Generators     []AIProviderConfig `json:"generators"`
	Embedders      []AIProviderConfig `json:"embedders"`
	Timeout        int                `json:"timeout"`
	EmbedCacheSize int                `json:"embed_cache_size"`
	EmbedCacheTTL  int                `json:"embed_cache_ttl"`
	EmbedDBCache   bool               `json:"embed_db_cache"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type RateLimitConfig struct {
	Backend       string      `json:"backend"`
	Requests      int         `json:"requests"`
	WindowSeconds int         `json:"window_seconds"`
	Redis         RedisConfig `json:"redis"`
}

type QuotaConfig struct {
	ChatLimit         int `json:"chat_limit"`
	SummarizeLimit    int `json:"summarize_limit"`
	InsightLimit      int `json:"insight_limit"`
	PresentationLimit int `json:"presentation_limit"`
}

type UploadConfig struct {
	MaxSizeMB int `json:"max_size_mb"`
	MaxPages  int `json:"max_pages"`
}

type JobsConfig struct {
	IngestSpec             string `json:"ingest_spec"`
	IngestBatch            int    `json:"ingest_batch"`
	EmbedCacheCleanupSpec  string `json:"embed_cache_cleanup_spec"`
	EmbedCacheMaxAgeDays   int    `json:"embed_cache_max_age_days"`
	IngestEmbedConcurrency int    `json:"ingest_embed_concurrency"`
	IngestLeaseSeconds     int    `json:"ingest_lease_seconds"`
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
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "readify"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	switch strings.ToLower(cfg.FileStore.Type) {
	case "local", "s3":
	default:
		return fmt.Errorf("file_store.type must be local or s3")
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 10000
	}
	if cfg.AI.EmbedCacheTTL == 0 {
		cfg.AI.EmbedCacheTTL = 2 * 60 * 60
	}
	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = "memory"
	}
	switch cfg.RateLimit.Backend {
	case "memory":
	case "redis":
		if cfg.RateLimit.Redis.Addr == "" {
			return fmt.Errorf("rate_limit.redis.addr is required for redis backend")
		}
	default:
		return fmt.Errorf("rate_limit.backend must be memory or redis")
	}
	if cfg.RateLimit.Requests <= 0 {
		cfg.RateLimit.Requests = 10
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		cfg.RateLimit.WindowSeconds = 10
	}
	if cfg.Quota.ChatLimit <= 0 {
		cfg.Quota.ChatLimit = 20
	}
	if cfg.Quota.SummarizeLimit <= 0 {
		cfg.Quota.SummarizeLimit = 3
	}
	if cfg.Quota.InsightLimit <= 0 {
		cfg.Quota.InsightLimit = 3
	}
	if cfg.Quota.PresentationLimit <= 0 {
		cfg.Quota.PresentationLimit = 3
	}
	if cfg.Upload.MaxSizeMB <= 0 {
		cfg.Upload.MaxSizeMB = 4
	}
	if cfg.Upload.MaxPages <= 0 {
		cfg.Upload.MaxPages = 25
	}
	if cfg.Jobs.IngestSpec == "" {
		cfg.Jobs.IngestSpec = "@every 15s"
	}
	if cfg.Jobs.IngestBatch <= 0 {
		cfg.Jobs.IngestBatch = 5
	}
	if cfg.Jobs.IngestEmbedConcurrency <= 0 {
		cfg.Jobs.IngestEmbedConcurrency = 4
	}
	if cfg.Jobs.IngestLeaseSeconds <= 0 {
		cfg.Jobs.IngestLeaseSeconds = 10 * 60
	}
	if cfg.Jobs.EmbedCacheCleanupSpec == "" {
		cfg.Jobs.EmbedCacheCleanupSpec = "0 3 * * *"
	}
	if cfg.Jobs.EmbedCacheMaxAgeDays <= 0 {
		cfg.Jobs.EmbedCacheMaxAgeDays = 30
	}
	return nil
}
