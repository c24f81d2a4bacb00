package metadata

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/careerdex/internal/domain"
)

// ListSeparator joins list-valued attributes into one scalar string.
const ListSeparator = ", "

// ReservedPrefix marks storage-internal field names.
const ReservedPrefix = "__"

// Metadata is a flat attribute map attached to a record. Values are scalars only.
type Metadata map[string]any

// Validate checks that every key is usable and every value is a scalar.
func (m Metadata) Validate() error {
	for k, v := range m {
		if k == "" {
			return fmt.Errorf("%w: empty key", domain.ErrInvalidMetadata)
		}
		if strings.HasPrefix(k, ReservedPrefix) {
			return fmt.Errorf("%w: key %q uses reserved prefix %q", domain.ErrInvalidMetadata, k, ReservedPrefix)
		}
		if !IsScalar(v) {
			return fmt.Errorf("%w: value of %q must be a string, number or bool, got %T",
				domain.ErrInvalidMetadata, k, v)
		}
	}
	return nil
}

// Clone returns a shallow copy. Values are scalars, so the copy is independent.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// String returns the canonical string form of key, or "" when absent.
func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := Format(v)
	return s
}

// IsScalar reports whether v can be stored as a metadata value.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// Format renders a scalar in the canonical form used for equality filtering:
// integral numbers without a decimal point, other floats in shortest form.
func Format(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.FormatInt(int64(x), 10), true
	case int8:
		return strconv.FormatInt(int64(x), 10), true
	case int16:
		return strconv.FormatInt(int64(x), 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint8:
		return strconv.FormatUint(uint64(x), 10), true
	case uint16:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float32:
		return formatFloat(float64(x), 32), true
	case float64:
		return formatFloat(x, 64), true
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return formatFloat(f, 64), true
		}
		return x.String(), true
	default:
		return "", false
	}
}

func formatFloat(f float64, bits int) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// JoinList flattens a list attribute into one scalar string.
func JoinList(items []string) string {
	return strings.Join(items, ListSeparator)
}

// SplitList reverses JoinList. Tokens are trimmed and empty tokens dropped.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ListSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
