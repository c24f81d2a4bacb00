package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/record"
)

// Add writes records in one transaction. Existing ids are overwritten in place
// and keep their original position.
func (s *Store) Add(_ context.Context, name string, records []record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cd, err := s.collection(name)
	if err != nil {
		return err
	}
	if err := record.CheckDim(records, cd.meta.VectorDim()); err != nil {
		return err
	}

	staged := make([]*entry, len(records))
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(recordBucket(name))
		if b == nil {
			return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
		}
		for i, rec := range records {
			seq, err := nextSeq(b, cd, rec.ID)
			if err != nil {
				return err
			}
			raw, err := json.Marshal(storedRecord{
				Seq:      seq,
				Document: rec.Document,
				Vector:   rec.Embedding,
				Metadata: rec.Metadata,
			})
			if err != nil {
				return fmt.Errorf("marshal record %s: %w", rec.ID, err)
			}
			if err := b.Put([]byte(rec.ID), raw); err != nil {
				return err
			}
			staged[i] = &entry{seq: seq, rec: rec}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add records %s: %w", name, err)
	}

	for _, e := range staged {
		cd.records[e.rec.ID] = e
	}
	return nil
}

func nextSeq(b *bbolt.Bucket, cd *collectionData, id string) (uint64, error) {
	if old, ok := cd.records[id]; ok {
		return old.seq, nil
	}
	return b.NextSequence()
}

// GetAll returns every record of a collection in insertion order.
func (s *Store) GetAll(_ context.Context, name string, inc record.Include) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cd, err := s.collection(name)
	if err != nil {
		return nil, err
	}

	entries := make([]*entry, 0, len(cd.records))
	for _, e := range cd.records {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]record.Record, len(entries))
	for i, e := range entries {
		out[i] = inc.Apply(e.rec)
	}
	return out, nil
}

// Query returns the top-k records by cosine distance among those passing the filter.
func (s *Store) Query(_ context.Context, name string, q record.Query) ([]record.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cd, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	if len(q.Vector) != cd.meta.VectorDim() {
		return nil, fmt.Errorf("%w: query has %d, collection expects %d",
			domain.ErrVectorDimMismatch, len(q.Vector), cd.meta.VectorDim())
	}

	type scored struct {
		e    *entry
		dist float64
	}
	candidates := make([]scored, 0, len(cd.records))
	for _, e := range cd.records {
		if !q.Filter.Matches(e.rec.Metadata) {
			continue
		}
		candidates = append(candidates, scored{e: e, dist: 1 - cosineSimilarity(q.Vector, e.rec.Embedding)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].e.seq < candidates[j].e.seq
	})

	k := min(q.TopK, len(candidates))
	matches := make([]record.Match, k)
	for i := range k {
		rec := candidates[i].e.rec
		matches[i] = record.Match{
			ID:       rec.ID,
			Document: rec.Document,
			Metadata: rec.Metadata,
			Distance: candidates[i].dist,
		}
	}
	return matches, nil
}

// cosineSimilarity returns 0 when either vector has zero norm.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
