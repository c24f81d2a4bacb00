package loader

import (
	"fmt"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/collection"
)

// Kind names one source data file and the collection it feeds.
type Kind string

// Source kinds.
const (
	WorkHistory Kind = "work_history"
	Projects    Kind = "projects"
	Skills      Kind = "skills"
)

// Kinds returns every kind in load order.
func Kinds() []Kind {
	return []Kind{WorkHistory, Projects, Skills}
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown data kind %q (want work_history, projects or skills)", domain.ErrInvalidRequest, s)
}

// Collection returns the target collection.
func (k Kind) Collection() string {
	switch k {
	case WorkHistory:
		return collection.Experience
	case Projects:
		return collection.Projects
	case Skills:
		return collection.Skills
	}
	return ""
}

// DefaultPattern is the glob used when none is configured.
func (k Kind) DefaultPattern() string {
	return string(k) + ".json"
}

// listKey is the top-level array holding the entries of a kind.
func (k Kind) listKey() string {
	return string(k)
}
