package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/careerdex/internal/domain/search/request"
)

// Supported database drivers.
const (
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
	DriverValkey   = "valkey"
	DriverPgvector = "pgvector"
)

// Supported embedding providers.
const (
	ProviderHashing = "hashing"
	ProviderOpenAI  = "openai"
)

// Config holds the careerdex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Engine    EngineConfig    `yaml:"engine"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int `yaml:"max_body_bytes"`
}

// DatabaseConfig selects and configures the document store backend.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // bolt, redis, valkey, pgvector
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"` // bolt file
	DSN              string   `yaml:"dsn"`  // pgvector connection string
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds vector index settings for the redis/valkey backend.
type IndexConfig struct {
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
	FilterableFields []string `yaml:"filterable_fields"`
}

// EngineConfig holds retrieval defaults.
type EngineConfig struct {
	CallTimeoutSec int  `yaml:"call_timeout_sec"`
	ChunkSize      int  `yaml:"chunk_size"`
	ChunkOverlap   *int `yaml:"chunk_overlap"`
}

// Overlap returns the chunk overlap, zero when unset.
func (e EngineConfig) Overlap() int {
	if e.ChunkOverlap == nil {
		return 0
	}
	return *e.ChunkOverlap
}

// CallTimeout returns the per-call deadline.
func (e EngineConfig) CallTimeout() time.Duration {
	return time.Duration(e.CallTimeoutSec) * time.Second
}

// IngestConfig locates the portfolio data files.
type IngestConfig struct {
	DataDir   string            `yaml:"data_dir"`
	Patterns  map[string]string `yaml:"patterns"` // kind -> doublestar glob
	BatchDocs int               `yaml:"batch_docs"`
}

// StorageConfig holds key and table naming.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig selects the embedding provider and its decorators.
type EmbeddingConfig struct {
	Provider            string                    `yaml:"provider"` // hashing, openai
	Providers           map[string]ProviderConfig `yaml:"providers"`
	Model               string                    `yaml:"model"`
	Dimensions          int                       `yaml:"dimensions"`
	DocumentInstruction string                    `yaml:"document_instruction"`
	QueryInstruction    string                    `yaml:"query_instruction"`
	MaxBatchSize        int                       `yaml:"max_batch_size"`
	RateLimitRPS        float64                   `yaml:"rate_limit_rps"` // 0 disables
	RateLimitBurst      int                       `yaml:"rate_limit_burst"`
	Cache               bool                      `yaml:"cache"`
}

// ProviderConfig holds remote provider credentials.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Load reads configuration from a YAML file by environment name (local, docker, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 9002
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 45
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 8 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverBolt
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/careerdex.db"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.FilterableFields == nil {
		c.Index.FilterableFields = []string{
			"type", "company", "title", "name", "role", "category", "proficiency_level", "chunk_index",
		}
	}
	if c.Engine.CallTimeoutSec <= 0 {
		c.Engine.CallTimeoutSec = 30
	}
	if c.Engine.ChunkSize <= 0 {
		c.Engine.ChunkSize = 500
	}
	if c.Engine.ChunkOverlap == nil {
		overlap := min(request.DefaultChunkOverlap, c.Engine.ChunkSize/10)
		c.Engine.ChunkOverlap = &overlap
	}
	if c.Ingest.DataDir == "" {
		c.Ingest.DataDir = "data/experience"
	}
	if c.Ingest.BatchDocs <= 0 {
		c.Ingest.BatchDocs = 16
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "careerdex:"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderHashing
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.MaxBatchSize <= 0 {
		c.Embedding.MaxBatchSize = 256
	}
	if c.Embedding.RateLimitBurst <= 0 {
		c.Embedding.RateLimitBurst = 1
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverPgvector:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	case DriverBolt:
	default:
		return fmt.Errorf("database.driver must be bolt, redis, valkey or pgvector, got %q", c.Database.Driver)
	}

	if c.Engine.ChunkSize > request.MaxChunkSize {
		return fmt.Errorf("engine.chunk_size must be at most %d, got %d", request.MaxChunkSize, c.Engine.ChunkSize)
	}
	if overlap := c.Engine.Overlap(); overlap < 0 || overlap >= c.Engine.ChunkSize {
		return fmt.Errorf("engine.chunk_overlap must be in [0, %d), got %d", c.Engine.ChunkSize, overlap)
	}

	switch c.Embedding.Provider {
	case ProviderHashing:
	case ProviderOpenAI:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for provider %q", ProviderOpenAI)
		}
		if _, ok := c.Embedding.Providers[ProviderOpenAI]; !ok {
			return fmt.Errorf("embedding.providers.%s is required", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("embedding.provider must be hashing or openai, got %q", c.Embedding.Provider)
	}
	if c.Embedding.RateLimitRPS < 0 {
		return fmt.Errorf("embedding.rate_limit_rps must not be negative")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to this source file, for tests and go run
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
