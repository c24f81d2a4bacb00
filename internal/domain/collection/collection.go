package collection

import (
	"fmt"
	"regexp"
	"time"
)

// Fixed collections created at startup.
const (
	Experience = "experience"
	Projects   = "projects"
	Skills     = "skills"
	Documents  = "documents"
)

// MaxNameLength bounds collection names so derived index and key names stay short.
const MaxNameLength = 64

var nameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Defaults returns the collections every store is initialized with.
func Defaults() []string {
	return []string{Experience, Projects, Skills, Documents}
}

// ValidateName checks a collection name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("collection name too long (max %d)", MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name %q must start with a letter and contain only a-z, 0-9, '_' or '-'", name)
	}
	return nil
}

// Collection is an immutable description of a named record namespace.
type Collection struct {
	name      string
	vectorDim int
	createdAt int64
}

// New validates and creates a collection stamped with the current time.
func New(name string, vectorDim int) (Collection, error) {
	if err := ValidateName(name); err != nil {
		return Collection{}, err
	}
	if vectorDim <= 0 {
		return Collection{}, fmt.Errorf("vector dimension must be positive, got %d", vectorDim)
	}
	return Collection{name: name, vectorDim: vectorDim, createdAt: time.Now().UnixMilli()}, nil
}

// Reconstruct restores a collection from storage without validation.
func Reconstruct(name string, vectorDim int, createdAt int64) Collection {
	return Collection{name: name, vectorDim: vectorDim, createdAt: createdAt}
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// VectorDim returns the embedding dimension of the collection.
func (c Collection) VectorDim() int { return c.vectorDim }

// CreatedAt returns the creation time in unix millis.
func (c Collection) CreatedAt() int64 { return c.createdAt }
