package careerdex

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/careerdex/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg      config.Config
	embedder Embedder

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithBolt stores everything in a single bbolt file. This is the default
// (data/careerdex.db).
func WithBolt(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverBolt
		c.cfg.Database.Path = path
	})
}

// WithValkey connects to a Valkey instance with valkey-search.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverValkey
		c.cfg.Database.Addrs = []string{addr}
		c.cfg.Database.Password = password
	})
}

// WithRedis connects to a Redis 8+ instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverRedis
		c.cfg.Database.Addrs = []string{addr}
		c.cfg.Database.Password = password
	})
}

// WithPgvector connects to Postgres with the vector extension.
func WithPgvector(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverPgvector
		c.cfg.Database.DSN = dsn
	})
}

// WithEmbedder replaces the built-in offline hashing embedder.
// Its vectors must match WithVectorDimensions.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI embeds through an OpenAI-compatible endpoint. baseURL may be empty.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.Provider = config.ProviderOpenAI
		c.cfg.Embedding.Model = model
		c.cfg.Embedding.Providers = map[string]config.ProviderConfig{
			config.ProviderOpenAI: {APIKey: apiKey, BaseURL: baseURL},
		}
	})
}

// WithVectorDimensions sets the embedding size. Defaults to 384.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.Dimensions = dim
	})
}

// WithInstructions sets the query and document instruction prefixes.
func WithInstructions(query, document string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.QueryInstruction = query
		c.cfg.Embedding.DocumentInstruction = document
	})
}

// WithEmbeddingCache memoizes embeddings in the store (bolt, Valkey and Redis).
func WithEmbeddingCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.Cache = true
	})
}

// WithRateLimit caps embedding calls per second.
func WithRateLimit(rps float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.RateLimitRPS = rps
		c.cfg.Embedding.RateLimitBurst = burst
	})
}

// WithHNSW configures the Valkey/Redis vector index. Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Index.HNSWM = m
		c.cfg.Index.HNSWEFConstruct = efConstruct
	})
}

// WithFilterableFields declares the metadata keys Valkey/Redis can filter on.
func WithFilterableFields(fields ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Index.FilterableFields = fields
	})
}

// WithChunking sets the default chunk size and overlap in characters. Defaults: 500/50.
func WithChunking(size, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Engine.ChunkSize = size
		c.cfg.Engine.ChunkOverlap = &overlap
	})
}

// WithCallTimeout bounds every tool call. Default: 30s.
func WithCallTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Engine.CallTimeoutSec = max(1, int(d.Round(time.Second)/time.Second))
	})
}

// WithDataDir points Init and Load at the portfolio data files.
func WithDataDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Ingest.DataDir = dir
	})
}

// WithKeyPrefix namespaces keys (Valkey/Redis) and tables (pgvector). Default: "careerdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Storage.KeyPrefix = prefix
	})
}

// WithLogger enables logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
