// Package bolt is a single-file document store on bbolt. Vectors are held in
// memory per collection and searched by brute-force cosine distance.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/careerdex/internal/db"
	"github.com/kailas-cloud/careerdex/internal/domain"
	domcol "github.com/kailas-cloud/careerdex/internal/domain/collection"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/domain/record"
)

var (
	bucketCollections = []byte("__collections")
	bucketEmbCache    = []byte("__emb_cache")
)

const recordBucketPrefix = "col:"

// Store implements the document store on bbolt.
type Store struct {
	db  *bbolt.DB
	dim int

	mu   sync.RWMutex
	cols map[string]*collectionData
}

type collectionData struct {
	meta    domcol.Collection
	records map[string]*entry
}

type entry struct {
	seq uint64
	rec record.Record
}

type storedCollection struct {
	Name      string `json:"name"`
	VectorDim int    `json:"vector_dim"`
	CreatedAt int64  `json:"created_at"`
}

type storedRecord struct {
	Seq      uint64            `json:"s"`
	Document string            `json:"d"`
	Vector   []float32         `json:"v"`
	Metadata metadata.Metadata `json:"m,omitempty"`
}

// Open opens or creates the database file and loads every collection into memory.
func Open(path string, dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dim)
	}

	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db %s: %w", path, err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketCollections, bucketEmbCache} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}

	s := &Store{db: bdb, dim: dim, cols: make(map[string]*collectionData)}
	if err := s.load(); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("load collections: %w", err)
	}
	return s, nil
}

func (s *Store) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCollections).ForEach(func(k, v []byte) error {
			var sc storedCollection
			if err := json.Unmarshal(v, &sc); err != nil {
				return fmt.Errorf("collection %s: %w", k, err)
			}
			cd := &collectionData{
				meta:    domcol.Reconstruct(sc.Name, sc.VectorDim, sc.CreatedAt),
				records: make(map[string]*entry),
			}
			if b := tx.Bucket(recordBucket(sc.Name)); b != nil {
				err := b.ForEach(func(id, raw []byte) error {
					var sr storedRecord
					if err := json.Unmarshal(raw, &sr); err != nil {
						return fmt.Errorf("record %s/%s: %w", sc.Name, id, err)
					}
					cd.records[string(id)] = &entry{seq: sr.Seq, rec: record.Record{
						ID:        string(id),
						Document:  sr.Document,
						Embedding: sr.Vector,
						Metadata:  sr.Metadata,
					}}
					return nil
				})
				if err != nil {
					return err
				}
			}
			s.cols[sc.Name] = cd
			return nil
		})
	})
}

func recordBucket(name string) []byte {
	return []byte(recordBucketPrefix + name)
}

// Ping checks that the database is open.
func (s *Store) Ping(_ context.Context) error {
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateCollection creates a collection. An existing collection is left untouched.
func (s *Store) CreateCollection(_ context.Context, name string) error {
	col, err := domcol.New(name, s.dim)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cols[name]; ok {
		return nil
	}

	raw, err := json.Marshal(storedCollection{Name: name, VectorDim: col.VectorDim(), CreatedAt: col.CreatedAt()})
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(recordBucket(name)); err != nil {
			return err
		}
		return tx.Bucket(bucketCollections).Put([]byte(name), raw)
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}

	s.cols[name] = &collectionData{meta: col, records: make(map[string]*entry)}
	return nil
}

// Collections returns the names of all collections, sorted.
func (s *Store) Collections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.cols))
	for name := range s.cols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Count returns the number of records in a collection.
func (s *Store) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cd, err := s.collection(name)
	if err != nil {
		return 0, err
	}
	return len(cd.records), nil
}

// Reset drops every collection.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		for name := range s.cols {
			if err := tx.DeleteBucket(recordBucket(name)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return fmt.Errorf("delete bucket %s: %w", name, err)
			}
		}
		if err := tx.DeleteBucket(bucketCollections); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketCollections)
		return err
	})
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	s.cols = make(map[string]*collectionData)
	return nil
}

// collection must be called with s.mu held.
func (s *Store) collection(name string) (*collectionData, error) {
	cd, ok := s.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return cd, nil
}

// Get reads an embedding cache entry. A miss is db.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketEmbCache).Get([]byte(key))
		if v == nil {
			return db.ErrKeyNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// Set writes an embedding cache entry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbCache).Put([]byte(key), value)
	})
}
