package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	VaultPath   string `yaml:"vault_path"`
	StoreKind   string `yaml:"store_kind"`
	PostgresDSN string `yaml:"postgres_dsn"`

	OllamaURL        string `yaml:"ollama_url"`
	OllamaGenModel   string `yaml:"ollama_gen_model"`
	OllamaEmbedModel string `yaml:"ollama_embed_model"`

	ResultLimit         int     `yaml:"result_limit"`
	MMRLambda           float64 `yaml:"mmr_lambda"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	EmbedBatchSize      int     `yaml:"embed_batch_size"`
	EmbedsPerSecond     float64 `yaml:"embeds_per_second"`
	SnippetLength       int     `yaml:"snippet_length"`
	MaxChunkSize        int     `yaml:"max_chunk_size"`
	HyDEMinDocLength    int     `yaml:"hyde_min_doc_length"`
	ReflectionMaxRounds int     `yaml:"reflection_max_rounds"`

	NATSEnabled bool   `yaml:"nats_enabled"`
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	MetricsPort string `yaml:"metrics_port"`
}

// Load reads configuration from the environment with an optional YAML
// overlay named by RAG_CONFIG_FILE. Environment values win over the
// overlay; both win over the built-in defaults.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("RAG_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envString("LOG_FORMAT", cfg.LogFormat)

	cfg.VaultPath = envString("VAULT_PATH", cfg.VaultPath)
	cfg.StoreKind = envString("STORE_KIND", cfg.StoreKind)
	cfg.PostgresDSN = envString("POSTGRES_DSN", cfg.PostgresDSN)

	cfg.OllamaURL = envString("OLLAMA_URL", cfg.OllamaURL)
	cfg.OllamaGenModel = envString("OLLAMA_GEN_MODEL", cfg.OllamaGenModel)
	cfg.OllamaEmbedModel = envString("OLLAMA_EMBED_MODEL", cfg.OllamaEmbedModel)

	cfg.ResultLimit = envInt("RAG_RESULT_LIMIT", cfg.ResultLimit)
	cfg.MMRLambda = envFloat("RAG_MMR_LAMBDA", cfg.MMRLambda)
	cfg.SimilarityThreshold = envFloat("RAG_SIMILARITY_THRESHOLD", cfg.SimilarityThreshold)
	cfg.EmbedBatchSize = envInt("RAG_EMBED_BATCH_SIZE", cfg.EmbedBatchSize)
	cfg.EmbedsPerSecond = envFloat("RAG_EMBEDS_PER_SECOND", cfg.EmbedsPerSecond)
	cfg.SnippetLength = envInt("RAG_SNIPPET_LENGTH", cfg.SnippetLength)
	cfg.MaxChunkSize = envInt("RAG_MAX_CHUNK_SIZE", cfg.MaxChunkSize)
	cfg.HyDEMinDocLength = envInt("RAG_HYDE_MIN_DOC_LENGTH", cfg.HyDEMinDocLength)
	cfg.ReflectionMaxRounds = envInt("RAG_REFLECTION_MAX_ROUNDS", cfg.ReflectionMaxRounds)

	cfg.NATSEnabled = envBool("NATS_ENABLED", cfg.NATSEnabled)
	cfg.NATSURL = envString("NATS_URL", cfg.NATSURL)
	cfg.NATSSubject = envString("NATS_SUBJECT", cfg.NATSSubject)

	cfg.MetricsPort = envString("METRICS_PORT", cfg.MetricsPort)

	return cfg, nil
}

func defaults() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "json",

		VaultPath: "./data/vault",
		StoreKind: "localfs",

		OllamaURL:        "http://localhost:11434",
		OllamaGenModel:   "llama3.1:8b",
		OllamaEmbedModel: "nomic-embed-text",

		ResultLimit:         10,
		MMRLambda:           0.6,
		SimilarityThreshold: 0.5,
		EmbedBatchSize:      5,
		SnippetLength:       500,
		MaxChunkSize:        1000,
		HyDEMinDocLength:    50,
		ReflectionMaxRounds: 2,

		NATSURL:     "nats://localhost:4222",
		NATSSubject: "rag.progress",

		MetricsPort: "9090",
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
