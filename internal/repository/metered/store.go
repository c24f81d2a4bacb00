// Package metered records operation latency for any document store backend.
package metered

import (
	"context"
	"time"

	"github.com/kailas-cloud/careerdex/internal/domain/record"
	"github.com/kailas-cloud/careerdex/internal/domain/store"
	"github.com/kailas-cloud/careerdex/internal/metrics"
)

// Store decorates a backend with store_operation_duration_seconds.
type Store struct {
	inner   store.DocumentStore
	backend string
}

// Wrap decorates inner. backend is the metric label (bolt, redis, pgvector).
func Wrap(inner store.DocumentStore, backend string) *Store {
	return &Store{inner: inner, backend: backend}
}

// Unwrap returns the decorated backend.
func (s *Store) Unwrap() store.DocumentStore { return s.inner }

func (s *Store) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StoreOpDuration.WithLabelValues(s.backend, op, status).Observe(time.Since(start).Seconds())
}

// CreateCollection implements store.DocumentStore.
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	start := time.Now()
	err := s.inner.CreateCollection(ctx, name)
	s.observe("create_collection", start, err)
	return err
}

// Add implements store.DocumentStore.
func (s *Store) Add(ctx context.Context, collection string, records []record.Record) error {
	start := time.Now()
	err := s.inner.Add(ctx, collection, records)
	s.observe("add", start, err)
	return err
}

// GetAll implements store.DocumentStore.
func (s *Store) GetAll(ctx context.Context, collection string, inc record.Include) ([]record.Record, error) {
	start := time.Now()
	recs, err := s.inner.GetAll(ctx, collection, inc)
	s.observe("get_all", start, err)
	return recs, err
}

// Query implements store.DocumentStore.
func (s *Store) Query(ctx context.Context, collection string, q record.Query) ([]record.Match, error) {
	start := time.Now()
	matches, err := s.inner.Query(ctx, collection, q)
	s.observe("query", start, err)
	return matches, err
}

// Count implements store.DocumentStore.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	start := time.Now()
	n, err := s.inner.Count(ctx, collection)
	s.observe("count", start, err)
	return n, err
}

// Collections implements store.DocumentStore.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := s.inner.Collections(ctx)
	s.observe("collections", start, err)
	return names, err
}

// Reset implements store.DocumentStore.
func (s *Store) Reset(ctx context.Context) error {
	start := time.Now()
	err := s.inner.Reset(ctx)
	s.observe("reset", start, err)
	return err
}

// Ping implements store.DocumentStore.
func (s *Store) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close implements store.DocumentStore.
func (s *Store) Close() error {
	return s.inner.Close()
}
