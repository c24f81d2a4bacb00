// Package valkey stores collections and records in Redis-protocol hashes and
// answers nearest-neighbour queries through an FT vector index per collection.
package valkey

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/careerdex/internal/db"
)

var fieldNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// store is the consumer interface over db.Store.
//
//nolint:interfacebloat // records need hash, index and search operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	Ping(ctx context.Context) error
	Close()
}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Config configures the repository.
type Config struct {
	KeyPrefix string
	VectorDim int
	HNSW      HNSWConfig
	// FilterableFields are metadata keys mirrored into TAG fields. Only these can be filtered on.
	FilterableFields []string
}

// Repo is the Redis/Valkey-backed document store.
type Repo struct {
	store      store
	prefix     string
	dim        int
	hnsw       HNSWConfig
	filterable map[string]bool
	tagFields  []string
}

// New creates the repository.
func New(s store, cfg Config) (*Repo, error) {
	if cfg.VectorDim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", cfg.VectorDim)
	}
	r := &Repo{
		store:      s,
		prefix:     cfg.KeyPrefix,
		dim:        cfg.VectorDim,
		hnsw:       HNSWConfig{M: 16, EFConstruct: 200},
		filterable: make(map[string]bool, len(cfg.FilterableFields)),
	}
	if cfg.HNSW.M > 0 {
		r.hnsw.M = cfg.HNSW.M
	}
	if cfg.HNSW.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.HNSW.EFConstruct
	}
	for _, f := range cfg.FilterableFields {
		if !fieldNameRegex.MatchString(f) || strings.HasPrefix(f, "__") {
			return nil, fmt.Errorf("filterable field %q is not a valid identifier", f)
		}
		if !r.filterable[f] {
			r.filterable[f] = true
			r.tagFields = append(r.tagFields, f)
		}
	}
	return r, nil
}

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Close releases the connection.
func (r *Repo) Close() error {
	r.store.Close()
	return nil
}

// Key layout: {prefix}collection:{name} holds collection metadata,
// {prefix}doc:{name}:{id} holds one record, {prefix}{name}:idx is the FT index.

func (r *Repo) metaKey(name string) string {
	return fmt.Sprintf("%scollection:%s", r.prefix, name)
}

func (r *Repo) indexName(name string) string {
	return fmt.Sprintf("%s%s:idx", r.prefix, name)
}

func (r *Repo) recordPrefix(name string) string {
	return fmt.Sprintf("%sdoc:%s:", r.prefix, name)
}

func (r *Repo) recordKey(name, id string) string {
	return r.recordPrefix(name) + id
}
