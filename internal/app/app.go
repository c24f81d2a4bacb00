// Package app is the composition root shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/careerdex/internal/config"
	dbRedis "github.com/kailas-cloud/careerdex/internal/db/redis"
	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/store"
	"github.com/kailas-cloud/careerdex/internal/ingest/loader"
	"github.com/kailas-cloud/careerdex/internal/metrics"
	"github.com/kailas-cloud/careerdex/internal/repository/bolt"
	"github.com/kailas-cloud/careerdex/internal/repository/embcache"
	"github.com/kailas-cloud/careerdex/internal/repository/metered"
	"github.com/kailas-cloud/careerdex/internal/repository/pgvector"
	"github.com/kailas-cloud/careerdex/internal/repository/valkey"
	chiTransport "github.com/kailas-cloud/careerdex/internal/transport/chi"
	"github.com/kailas-cloud/careerdex/internal/transport/hashing"
	openaiEmb "github.com/kailas-cloud/careerdex/internal/transport/openai"
	"github.com/kailas-cloud/careerdex/internal/usecase/bootstrap"
	embeddinguc "github.com/kailas-cloud/careerdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/careerdex/internal/usecase/health"
	"github.com/kailas-cloud/careerdex/internal/usecase/index"
	"github.com/kailas-cloud/careerdex/internal/usecase/search"
	"github.com/kailas-cloud/careerdex/internal/usecase/similar"
	"github.com/kailas-cloud/careerdex/internal/usecase/skills"
	"github.com/kailas-cloud/careerdex/internal/usecase/tool"
)

// kvStore backs the embedding cache.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// App holds the wired services.
type App struct {
	Config config.Config
	Logger *zap.Logger

	Store         store.DocumentStore
	DocEmbedder   domain.Embedder
	QueryEmbedder domain.Embedder

	Search    *search.Service
	Similar   *similar.Service
	Index     *index.Service
	Skills    *skills.Service
	Bootstrap *bootstrap.Service
	Health    *healthuc.Service
	Tools     *tool.Facade
}

// New opens the configured store and builds every service on top of it.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	return NewWithProvider(ctx, cfg, nil, logger)
}

// NewWithProvider is New with a caller supplied embedding provider in place of
// embedding.provider. The cache, rate limiter and instrumentation still apply.
func NewWithProvider(
	ctx context.Context, cfg config.Config, provider domain.Embedder, logger *zap.Logger,
) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Register()

	docs, kv, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to document store", zap.String("driver", cfg.Database.Driver))

	base, err := buildEmbedder(cfg, kv, provider, logger)
	if err != nil {
		_ = docs.Close()
		return nil, err
	}

	return Wire(cfg, docs, base, logger), nil
}

// Wire assembles the services over an already open store and embedder chain.
// Instruction prefixes from the config are applied here.
func Wire(cfg config.Config, docs store.DocumentStore, base domain.Embedder, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	docEmbedder := withInstruction(base, cfg.Embedding.DocumentInstruction)
	queryEmbedder := withInstruction(base, cfg.Embedding.QueryInstruction)

	searchSvc := search.New(docs, queryEmbedder)
	similarSvc := similar.New(searchSvc)
	indexSvc := index.New(docs, docEmbedder, index.NewIDGenerator())
	skillsSvc := skills.New(docs)

	bootSvc := bootstrap.New(docs, indexSvc, newLoader(cfg, logger), bootstrap.Config{
		ChunkSize:    cfg.Engine.ChunkSize,
		ChunkOverlap: cfg.Engine.Overlap(),
		BatchDocs:    cfg.Ingest.BatchDocs,
	}, logger)

	return &App{
		Config:        cfg,
		Logger:        logger,
		Store:         docs,
		DocEmbedder:   docEmbedder,
		QueryEmbedder: queryEmbedder,
		Search:        searchSvc,
		Similar:       similarSvc,
		Index:         indexSvc,
		Skills:        skillsSvc,
		Bootstrap:     bootSvc,
		Health:        healthuc.New(docs, embeddingHealth{embedder: base}, docs),
		Tools: tool.New(searchSvc, indexSvc, similarSvc, skillsSvc, tool.Config{
			CallTimeout:  cfg.Engine.CallTimeout(),
			ChunkSize:    cfg.Engine.ChunkSize,
			ChunkOverlap: cfg.Engine.Overlap(),
		}),
	}
}

// Handler returns the HTTP router.
func (a *App) Handler() http.Handler {
	srv := chiTransport.NewServer(a.Tools, a.Health, a.Bootstrap, a.Logger)
	return srv.Router(chiTransport.Options{
		APIKeys:      a.Config.Auth.APIKeys,
		MaxBodyBytes: int64(a.Config.HTTP.MaxBodyBytes),
	})
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.DocumentStore, kvStore, error) {
	dim := cfg.Embedding.Dimensions
	switch cfg.Database.Driver {
	case config.DriverBolt:
		s, err := bolt.Open(cfg.Database.Path, dim)
		if err != nil {
			return nil, nil, err
		}
		return metered.Wrap(s, config.DriverBolt), s, nil

	case config.DriverRedis, config.DriverValkey:
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create %s client: %w", cfg.Database.Driver, err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := rs.WaitForReady(ctx, timeout); err != nil {
			rs.Close()
			return nil, nil, fmt.Errorf("%s not ready: %w", cfg.Database.Driver, err)
		}
		repo, err := valkey.New(rs, valkey.Config{
			KeyPrefix: cfg.Storage.KeyPrefix,
			VectorDim: dim,
			HNSW: valkey.HNSWConfig{
				M:           cfg.Index.HNSWM,
				EFConstruct: cfg.Index.HNSWEFConstruct,
			},
			FilterableFields: cfg.Index.FilterableFields,
		})
		if err != nil {
			rs.Close()
			return nil, nil, err
		}
		return metered.Wrap(repo, cfg.Database.Driver), rs, nil

	case config.DriverPgvector:
		s, err := pgvector.Open(ctx, pgvector.Config{
			DSN:         cfg.Database.DSN,
			TablePrefix: tablePrefix(cfg.Storage.KeyPrefix),
			VectorDim:   dim,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Embedding.Cache {
			logger.Info("Embedding cache is not available on pgvector, continuing without it")
		}
		return metered.Wrap(s, config.DriverPgvector), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// tablePrefix turns a key prefix like "careerdex:" into "careerdex_".
func tablePrefix(keyPrefix string) string {
	return strings.NewReplacer(":", "_", "-", "_", ".", "_").Replace(keyPrefix)
}

// buildEmbedder assembles provider -> rate limiter -> cache -> instrumentation.
// Cache hits never wait for a rate limit token.
// Wire adds instruction prefixes on top, so cache keys include them.
func buildEmbedder(cfg config.Config, kv kvStore, provider domain.Embedder, logger *zap.Logger) (domain.Embedder, error) {
	ec := cfg.Embedding

	var (
		providerName = ec.Provider
		model        = ec.Model
	)
	switch {
	case provider != nil:
		providerName = "custom"
		if model == "" {
			model = providerName
		}
	case ec.Provider == config.ProviderHashing:
		h, err := hashing.NewEmbedder(ec.Dimensions)
		if err != nil {
			return nil, err
		}
		provider = h
		model = fmt.Sprintf("hashing-%d", ec.Dimensions)
	case ec.Provider == config.ProviderOpenAI:
		pc := ec.Providers[config.ProviderOpenAI]
		provider = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     pc.APIKey,
			BaseURL:    pc.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   config.ProviderOpenAI,
			Logger:     logger,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", ec.Provider)
	}

	embedder := provider
	if ec.RateLimitRPS > 0 {
		embedder = embeddinguc.NewRateLimitedEmbedder(embedder, ec.RateLimitRPS, ec.RateLimitBurst)
	}
	cached := ec.Cache && kv != nil
	if cached {
		embedder = embcache.New(embedder, kv, cfg.Storage.KeyPrefix+model, metrics.EmbeddingCacheTotal, logger)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, providerName, model, ec.MaxBatchSize, logger)

	logger.Info("Embedder created",
		zap.String("provider", providerName),
		zap.String("model", model),
		zap.Int("dimensions", ec.Dimensions),
		zap.Bool("cache", cached),
		zap.Float64("rate_limit_rps", ec.RateLimitRPS),
	)
	return embedder, nil
}

func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

func newLoader(cfg config.Config, logger *zap.Logger) *loader.Loader {
	patterns := make(map[loader.Kind]string, len(cfg.Ingest.Patterns))
	for name, pattern := range cfg.Ingest.Patterns {
		kind, err := loader.ParseKind(name)
		if err != nil {
			logger.Warn("Ignoring ingest pattern for unknown kind", zap.String("kind", name))
			continue
		}
		patterns[kind] = pattern
	}
	return loader.New(cfg.Ingest.DataDir, patterns, logger)
}

// embeddingHealth adapts an embedder to health.EmbeddingChecker.
type embeddingHealth struct {
	embedder domain.Embedder
}

func (h embeddingHealth) HealthCheck(ctx context.Context) error {
	hc, ok := h.embedder.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}
