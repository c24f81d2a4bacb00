package valkey

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/careerdex/internal/db"
	"github.com/kailas-cloud/careerdex/internal/domain"
	domcol "github.com/kailas-cloud/careerdex/internal/domain/collection"
)

// CreateCollection stores collection metadata then creates its FT index.
// An existing collection is left untouched. A failed FT.CREATE rolls the metadata back.
func (r *Repo) CreateCollection(ctx context.Context, name string) error {
	col, err := domcol.New(name, r.dim)
	if err != nil {
		return err
	}

	metaKey := r.metaKey(name)
	exists, err := r.store.Exists(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def, err := r.buildIndex(name)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if err := r.store.HSet(ctx, metaKey, collectionToHash(col)); err != nil {
		return fmt.Errorf("hset collection %s: %w", name, err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		cleanupErr := r.store.Del(ctx, metaKey)
		return errors.Join(fmt.Errorf("create index %s: %w", def.Name, err), cleanupErr)
	}
	return nil
}

func (r *Repo) buildIndex(name string) (*db.IndexDefinition, error) {
	b := db.NewIndex(r.indexName(name)).Prefix(r.recordPrefix(name))
	for _, f := range r.tagFields {
		b = b.TagWithOpts(f, tagSeparator, true)
	}
	return b.VectorHNSW(fieldVector, r.dim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).Build()
}

// Collection loads collection metadata.
func (r *Repo) Collection(ctx context.Context, name string) (domcol.Collection, error) {
	m, err := r.store.HGetAll(ctx, r.metaKey(name))
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(m) == 0 {
		return domcol.Collection{}, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return collectionFromHash(m, r.dim)
}

// Collections returns the names of all collections, sorted.
func (r *Repo) Collections(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}
	prefix := r.metaKey("")
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, prefix))
	}
	sort.Strings(names)
	return names, nil
}

// Count returns the number of records in a collection.
func (r *Repo) Count(ctx context.Context, name string) (int, error) {
	if _, err := r.Collection(ctx, name); err != nil {
		return 0, err
	}
	keys, err := r.store.Scan(ctx, r.recordPrefix(name)+"*")
	if err != nil {
		return 0, fmt.Errorf("scan records %s: %w", name, err)
	}
	return len(keys), nil
}

// Reset drops every collection together with its index and records.
func (r *Repo) Reset(ctx context.Context) error {
	names, err := r.Collections(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := r.dropCollection(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) dropCollection(ctx context.Context, name string) error {
	if err := r.store.DropIndex(ctx, r.indexName(name)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", name, err)
	}

	keys, err := r.store.Scan(ctx, r.recordPrefix(name)+"*")
	if err != nil {
		return fmt.Errorf("scan records %s: %w", name, err)
	}
	for start := 0; start < len(keys); start += deleteBatch {
		end := min(start+deleteBatch, len(keys))
		if err := r.store.Del(ctx, keys[start:end]...); err != nil {
			return fmt.Errorf("delete records %s: %w", name, err)
		}
	}

	if err := r.store.Del(ctx, r.metaKey(name)); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	return nil
}

const deleteBatch = 500
