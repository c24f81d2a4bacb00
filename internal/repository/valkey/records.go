package valkey

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/careerdex/internal/db"
	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/record"
	"github.com/kailas-cloud/careerdex/internal/domain/search/filter"
)

// Add writes records in one pipelined round-trip. Existing ids are overwritten.
func (r *Repo) Add(ctx context.Context, name string, records []record.Record) error {
	col, err := r.Collection(ctx, name)
	if err != nil {
		return err
	}
	if err := record.CheckDim(records, col.VectorDim()); err != nil {
		return err
	}

	items := make([]db.HashSetItem, len(records))
	for i, rec := range records {
		fields, err := recordToHash(rec, r.tagFields)
		if err != nil {
			return err
		}
		items[i] = db.HashSetItem{Key: r.recordKey(name, rec.ID), Fields: fields}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset records %s: %w", name, err)
	}
	return nil
}

// GetAll returns every record of a collection ordered by id.
func (r *Repo) GetAll(ctx context.Context, name string, inc record.Include) ([]record.Record, error) {
	if _, err := r.Collection(ctx, name); err != nil {
		return nil, err
	}

	keys, err := r.store.Scan(ctx, r.recordPrefix(name)+"*")
	if err != nil {
		return nil, fmt.Errorf("scan records %s: %w", name, err)
	}
	if len(keys) == 0 {
		return []record.Record{}, nil
	}
	sort.Strings(keys)

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall records %s: %w", name, err)
	}

	out := make([]record.Record, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		if m[fieldID] == "" {
			m[fieldID] = strings.TrimPrefix(keys[i], r.recordPrefix(name))
		}
		rec, err := recordFromHash(m, inc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Query runs a filtered KNN search and returns matches nearest first.
func (r *Repo) Query(ctx context.Context, name string, q record.Query) ([]record.Match, error) {
	col, err := r.Collection(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(q.Vector) != col.VectorDim() {
		return nil, fmt.Errorf("%w: query has %d, collection expects %d",
			domain.ErrVectorDimMismatch, len(q.Vector), col.VectorDim())
	}
	if err := r.checkFilter(q.Filter); err != nil {
		return nil, err
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(name),
		Filters:      q.Filter,
		Vector:       q.Vector,
		K:            q.TopK,
		ReturnFields: []string{fieldID, fieldContent, fieldMetadata},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", name, err)
	}

	prefix := r.recordPrefix(name)
	matches := make([]record.Match, 0, len(res.Entries))
	for _, e := range res.Entries {
		md, err := decodeMetadata(e.Fields[fieldMetadata])
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.Key, err)
		}
		id := e.Fields[fieldID]
		if id == "" {
			id = strings.TrimPrefix(e.Key, prefix)
		}
		matches = append(matches, record.Match{
			ID:       id,
			Document: e.Fields[fieldContent],
			Metadata: md,
			Distance: e.Distance,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > q.TopK {
		matches = matches[:q.TopK]
	}
	return matches, nil
}

func (r *Repo) checkFilter(expr filter.Expression) error {
	for _, c := range expr.Must() {
		if !r.filterable[c.Key()] {
			return fmt.Errorf("%w: metadata key %q is not indexed for filtering", domain.ErrInvalidFilter, c.Key())
		}
	}
	return nil
}
