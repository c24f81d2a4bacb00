// Package pgvector stores collections as PostgreSQL tables with a pgvector
// embedding column and answers queries with the cosine distance operator.
package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/careerdex/internal/domain"
	domcol "github.com/kailas-cloud/careerdex/internal/domain/collection"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/domain/record"
)

// Config configures the store.
type Config struct {
	DSN         string
	TablePrefix string
	VectorDim   int
}

// Store implements the document store on PostgreSQL + pgvector.
type Store struct {
	pool   *pgxpool.Pool
	prefix string
	dim    int
}

// Open connects and makes sure the extension and the registry table exist.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.VectorDim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", cfg.VectorDim)
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &Store{pool: pool, prefix: cfg.TablePrefix, dim: cfg.VectorDim}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		name TEXT PRIMARY KEY,
		vector_dim INTEGER NOT NULL,
		created_at BIGINT NOT NULL
	)`, s.registryTable())
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create registry table: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) registryTable() string {
	return pgx.Identifier{s.prefix + "collections"}.Sanitize()
}

func (s *Store) recordTable(name string) string {
	return pgx.Identifier{s.prefix + "records_" + strings.ReplaceAll(name, "-", "_")}.Sanitize()
}

// CreateCollection creates the record table and registers it. Existing collections are untouched.
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	col, err := domcol.New(name, s.dim)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	table := s.recordTable(name)
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb
		)`, table, col.VectorDim()),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			pgx.Identifier{s.prefix + "records_" + strings.ReplaceAll(name, "-", "_") + "_embedding_idx"}.Sanitize(), table),
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	}

	insert := fmt.Sprintf(`INSERT INTO %s (name, vector_dim, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING`, s.registryTable())
	if _, err := tx.Exec(ctx, insert, name, col.VectorDim(), col.CreatedAt()); err != nil {
		return fmt.Errorf("register collection %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) collection(ctx context.Context, name string) (domcol.Collection, error) {
	var dim int
	var createdAt int64
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT vector_dim, created_at FROM %s WHERE name = $1", s.registryTable()), name)
	if err := row.Scan(&dim, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domcol.Collection{}, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
		}
		return domcol.Collection{}, fmt.Errorf("load collection %s: %w", name, err)
	}
	return domcol.Reconstruct(name, dim, createdAt), nil
}

// Collections returns the names of all collections, sorted.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT name FROM %s ORDER BY name", s.registryTable()))
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

// Count returns the number of records in a collection.
func (s *Store) Count(ctx context.Context, name string) (int, error) {
	if _, err := s.collection(ctx, name); err != nil {
		return 0, err
	}
	var n int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", s.recordTable(name))).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	return n, nil
}

// Reset drops every record table and empties the registry.
func (s *Store) Reset(ctx context.Context) error {
	names, err := s.Collections(ctx)
	if err != nil {
		return err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, name := range names {
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+s.recordTable(name)); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	if _, err := tx.Exec(ctx, "DELETE FROM "+s.registryTable()); err != nil {
		return fmt.Errorf("clear registry: %w", err)
	}
	return tx.Commit(ctx)
}

// Add upserts records in one transaction.
func (s *Store) Add(ctx context.Context, name string, records []record.Record) error {
	col, err := s.collection(ctx, name)
	if err != nil {
		return err
	}
	if err := record.CheckDim(records, col.VectorDim()); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stmt := fmt.Sprintf(`INSERT INTO %s (id, document, embedding, metadata) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			document = EXCLUDED.document,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`, s.recordTable(name))

	batch := &pgx.Batch{}
	for _, rec := range records {
		md := rec.Metadata
		if md == nil {
			md = metadata.Metadata{}
		}
		raw, err := json.Marshal(md)
		if err != nil {
			return fmt.Errorf("marshal metadata %s: %w", rec.ID, err)
		}
		batch.Queue(stmt, rec.ID, rec.Document, pgv.NewVector(rec.Embedding), raw)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert records %s: %w", name, err)
	}
	return tx.Commit(ctx)
}

// GetAll returns every record in insertion order.
func (s *Store) GetAll(ctx context.Context, name string, inc record.Include) ([]record.Record, error) {
	if _, err := s.collection(ctx, name); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, buildSelectAllSQL(s.recordTable(name), inc))
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", name, err)
	}
	defer rows.Close()

	out := []record.Record{}
	for rows.Next() {
		var (
			rec  record.Record
			raw  []byte
			vec  pgv.Vector
			dest = []any{&rec.ID}
		)
		if inc.Documents {
			dest = append(dest, &rec.Document)
		}
		if inc.Metadata {
			dest = append(dest, &raw)
		}
		if inc.Embeddings {
			dest = append(dest, &vec)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		if inc.Metadata {
			if err := json.Unmarshal(raw, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("metadata %s: %w", rec.ID, err)
			}
		}
		if inc.Embeddings {
			rec.Embedding = vec.Slice()
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Query ranks records by cosine distance after applying the metadata filter.
func (s *Store) Query(ctx context.Context, name string, q record.Query) ([]record.Match, error) {
	col, err := s.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(q.Vector) != col.VectorDim() {
		return nil, fmt.Errorf("%w: query has %d, collection expects %d",
			domain.ErrVectorDimMismatch, len(q.Vector), col.VectorDim())
	}

	sql, args := buildQuerySQL(s.recordTable(name), q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	matches := []record.Match{}
	for rows.Next() {
		var m record.Match
		var raw []byte
		if err := rows.Scan(&m.ID, &m.Document, &raw, &m.Distance); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		if err := json.Unmarshal(raw, &m.Metadata); err != nil {
			return nil, fmt.Errorf("metadata %s: %w", m.ID, err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func buildSelectAllSQL(table string, inc record.Include) string {
	cols := []string{"id"}
	if inc.Documents {
		cols = append(cols, "document")
	}
	if inc.Metadata {
		cols = append(cols, "metadata")
	}
	if inc.Embeddings {
		cols = append(cols, "embedding")
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY seq", strings.Join(cols, ", "), table)
}

// buildQuerySQL renders the KNN statement. Filter keys and values are bound
// parameters compared against the text form of the JSONB value.
func buildQuerySQL(table string, q record.Query) (string, []any) {
	args := []any{pgv.NewVector(q.Vector)}
	var where []string
	for _, c := range q.Filter.Must() {
		args = append(args, c.Key(), c.Value())
		where = append(where, fmt.Sprintf("metadata->>$%d = $%d", len(args)-1, len(args)))
	}
	args = append(args, q.TopK)

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT id, document, metadata, embedding <=> $1 AS distance FROM %s", table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY distance, seq LIMIT $%d", len(args))
	return b.String(), args
}
