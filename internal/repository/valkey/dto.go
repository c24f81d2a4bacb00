package valkey

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/careerdex/internal/domain/collection"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/domain/record"
)

// Reserved record hash fields. Metadata keys cannot start with "__".
const (
	fieldID       = "__id"
	fieldContent  = "__content"
	fieldVector   = "__vector"
	fieldMetadata = "__metadata"
)

// tagSeparator never appears in canonical values used for equality.
const tagSeparator = "\x1f"

func collectionToHash(col collection.Collection) map[string]string {
	return map[string]string{
		"name":       col.Name(),
		"vector_dim": strconv.Itoa(col.VectorDim()),
		"created_at": strconv.FormatInt(col.CreatedAt(), 10),
	}
}

func collectionFromHash(m map[string]string, defaultDim int) (collection.Collection, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return collection.Collection{}, fmt.Errorf("invalid created_at: %w", err)
	}
	dim := defaultDim
	if s := m["vector_dim"]; s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			dim = parsed
		}
	}
	return collection.Reconstruct(m["name"], dim, createdAt), nil
}

// recordToHash flattens a record. Filterable metadata keys are mirrored as
// plain fields holding the canonical value so the TAG index sees them.
func recordToHash(rec record.Record, tagFields []string) (map[string]string, error) {
	fields := map[string]string{
		fieldID:      rec.ID,
		fieldContent: rec.Document,
		fieldVector:  vectorToBytes(rec.Embedding),
	}
	if len(rec.Metadata) > 0 {
		raw, err := json.Marshal(rec.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		fields[fieldMetadata] = string(raw)
	}
	for _, f := range tagFields {
		if v, ok := rec.Metadata[f]; ok {
			if s, ok := metadata.Format(v); ok {
				fields[f] = s
			}
		}
	}
	return fields, nil
}

func recordFromHash(m map[string]string, inc record.Include) (record.Record, error) {
	rec := record.Record{ID: m[fieldID]}
	if inc.Documents {
		rec.Document = m[fieldContent]
	}
	if inc.Metadata {
		md, err := decodeMetadata(m[fieldMetadata])
		if err != nil {
			return record.Record{}, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		rec.Metadata = md
	}
	if inc.Embeddings {
		v, err := bytesToVector(m[fieldVector])
		if err != nil {
			return record.Record{}, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		rec.Embedding = v
	}
	return rec, nil
}

func decodeMetadata(raw string) (metadata.Metadata, error) {
	if raw == "" {
		return metadata.Metadata{}, nil
	}
	var md metadata.Metadata
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return md, nil
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func bytesToVector(s string) ([]float32, error) {
	if len(s)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(s))
	}
	out := make([]float32, len(s)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(s[i*4 : i*4+4])))
	}
	return out, nil
}
