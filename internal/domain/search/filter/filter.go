package filter

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
)

// MaxConditions is the maximum number of equality conditions per expression.
const MaxConditions = 32

// Expression is a conjunction of metadata equality conditions.
// A record matches when every condition matches.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must ...Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("%w: too many filter conditions (max %d)", domain.ErrInvalidFilter, MaxConditions)
	}
	seen := make(map[string]bool, len(must))
	for _, c := range must {
		if seen[c.key] {
			return Expression{}, fmt.Errorf("%w: duplicate filter key %q", domain.ErrInvalidFilter, c.key)
		}
		seen[c.key] = true
	}
	return Expression{must: must}, nil
}

// FromMap builds an expression from a {key: scalar} map. Conditions are ordered by key.
func FromMap(m map[string]any) (Expression, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(keys))
	for _, k := range keys {
		c, err := NewMatch(k, m[k])
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}
	return NewExpression(conds...)
}

// Must returns the conditions.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Matches evaluates the expression against record metadata.
func (e Expression) Matches(md metadata.Metadata) bool {
	for _, c := range e.must {
		v, ok := md[c.key]
		if !ok {
			return false
		}
		s, ok := metadata.Format(v)
		if !ok || s != c.value {
			return false
		}
	}
	return true
}

// Condition is a single metadata equality clause.
type Condition struct {
	key   string
	value string
}

// NewMatch creates an equality condition. The value is stored in canonical form
// and must not be empty.
func NewMatch(key string, value any) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("%w: filter key is required", domain.ErrInvalidFilter)
	}
	s, ok := metadata.Format(value)
	if !ok {
		return Condition{}, fmt.Errorf("%w: filter value for %q must be a string, number or bool, got %T",
			domain.ErrInvalidFilter, key, value)
	}
	if s == "" {
		return Condition{}, fmt.Errorf("%w: filter value for %q is empty", domain.ErrInvalidFilter, key)
	}
	return Condition{key: key, value: s}, nil
}

// Key returns the metadata key.
func (c Condition) Key() string { return c.key }

// Value returns the canonical value to compare against.
func (c Condition) Value() string { return c.value }
