// Package loader reads the portfolio data files and renders every entry into
// the text and metadata that get indexed.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
)

// Batch is the rendered content of one kind.
type Batch struct {
	Kind       Kind
	Collection string
	Files      []string
	Documents  []string
	Metadata   []metadata.Metadata
}

// Loader discovers data files with glob patterns relative to a root.
type Loader struct {
	fsys     fs.FS
	patterns map[Kind]string
	logger   *zap.Logger
}

// New reads from dataDir. patterns may override the file glob per kind.
func New(dataDir string, patterns map[Kind]string, logger *zap.Logger) *Loader {
	return NewFS(os.DirFS(dataDir), patterns, logger)
}

// NewFS reads from an arbitrary filesystem.
func NewFS(fsys fs.FS, patterns map[Kind]string, logger *zap.Logger) *Loader {
	p := make(map[Kind]string, len(Kinds()))
	for _, k := range Kinds() {
		p[k] = k.DefaultPattern()
		if custom := patterns[k]; custom != "" {
			p[k] = custom
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{fsys: fsys, patterns: p, logger: logger}
}

// Load renders every entry of kind. No matching file yields an empty batch and a warning.
func (l *Loader) Load(kind Kind) (Batch, error) {
	batch := Batch{Kind: kind, Collection: kind.Collection()}

	pattern := l.patterns[kind]
	files, err := doublestar.Glob(l.fsys, pattern)
	if err != nil {
		return batch, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(files) == 0 {
		l.logger.Warn("Data file not found", zap.String("kind", string(kind)), zap.String("pattern", pattern))
		return batch, nil
	}
	sort.Strings(files)

	for _, file := range files {
		entries, err := l.readEntries(file, kind)
		if err != nil {
			return batch, err
		}
		for _, e := range entries {
			doc, md := render(kind, e)
			batch.Documents = append(batch.Documents, doc)
			batch.Metadata = append(batch.Metadata, md)
		}
		batch.Files = append(batch.Files, file)
	}

	l.logger.Info("Loaded data entries",
		zap.String("kind", string(kind)),
		zap.Int("entries", len(batch.Documents)),
		zap.Strings("files", batch.Files),
	)
	return batch, nil
}

func (l *Loader) readEntries(file string, kind Kind) ([]entry, error) {
	raw, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}
	list, ok := doc[kind.listKey()]
	if !ok {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(list))
	dec.UseNumber()
	var entries []entry
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode %s.%s: %w", file, kind.listKey(), err)
	}
	return entries, nil
}

func render(kind Kind, e entry) (string, metadata.Metadata) {
	switch kind {
	case Projects:
		return renderProject(e)
	case Skills:
		return renderSkills(e)
	default:
		return renderWorkHistory(e)
	}
}
