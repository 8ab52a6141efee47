package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port       int              `json:"port"`
	LogConfig  logger.LogConfig `json:"log_config"`
	StaticDir  string           `json:"static_dir"`
	CORSAllow  []string         `json:"cors_allowlist"`
	Docs       DocSourceConfig  `json:"docs"`
	AI         AIConfig         `json:"ai"`
	Index      IndexConfig      `json:"index"`
	RAG        RAGConfig        `json:"rag"`
	RescanCron string           `json:"rescan_cron"`
}

// DocSourceConfig selects where course documents are loaded from. Data holds
// backend-specific arguments (local dir, s3 bucket, ...).
type DocSourceConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider       string            `json:"provider"`
	GenerateModel  string            `json:"generate_model"`
	EmbedModel     string            `json:"embed_model"`
	Timeout        int               `json:"timeout"`
	EmbedCacheSize int               `json:"embed_cache_size"`
	EmbedCacheTTL  int               `json:"embed_cache_ttl_minutes"`
	Data           interface{}       `json:"data"`
	Fallbacks      []AIBackendConfig `json:"fallbacks"`
}

// AIBackendConfig is a secondary generation/embedding backend tried when the
// one before it fails. Models left empty inherit the primary ones.
type AIBackendConfig struct {
	Provider      string      `json:"provider"`
	GenerateModel string      `json:"generate_model"`
	EmbedModel    string      `json:"embed_model"`
	Data          interface{} `json:"data"`
}

// IndexConfig selects the vector index backend. Data holds backend-specific
// arguments (postgres dsn, ...).
type IndexConfig struct {
	Backend string      `json:"backend"`
	Data    interface{} `json:"data"`
}

type RAGConfig struct {
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`
	TopK         int `json:"top_k"`
	MaxHistory   int `json:"max_history"`
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
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.GenerateModel == "" {
		return nil, fmt.Errorf("ai.generate_model is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	for i := range cfg.AI.Fallbacks {
		fb := &cfg.AI.Fallbacks[i]
		if fb.Provider == "" {
			return nil, fmt.Errorf("ai.fallbacks[%d].provider is required", i)
		}
		if fb.GenerateModel == "" {
			fb.GenerateModel = cfg.AI.GenerateModel
		}
		if fb.EmbedModel == "" {
			fb.EmbedModel = cfg.AI.EmbedModel
		}
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Docs.Type == "" {
		cfg.Docs.Type = "local"
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "memory"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 800
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 100
	}
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return nil, fmt.Errorf("rag.chunk_overlap must be smaller than rag.chunk_size")
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 5
	}
	if cfg.RAG.TopK < 0 {
		return nil, fmt.Errorf("rag.top_k must be positive")
	}
	if cfg.RAG.MaxHistory == 0 {
		cfg.RAG.MaxHistory = 4
	}
	return &cfg, nil
}
