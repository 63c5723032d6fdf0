package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

// Loader produces a complete bundle on demand.
type Loader interface {
	Load(ctx context.Context) (Bundle, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (Bundle, error)

func (f LoaderFunc) Load(ctx context.Context) (Bundle, error) {
	return f(ctx)
}

// YAMLLoader reads one <kind>.yaml file per kind from Dir. A file holds either a
// sequence of records or a mapping with the kind name as its only list key.
// Missing files yield an empty collection.
type YAMLLoader struct {
	Dir string
}

// NewYAMLLoader creates a loader rooted at dir.
func NewYAMLLoader(dir string) *YAMLLoader {
	return &YAMLLoader{Dir: dir}
}

// Path returns the fixture file for kind.
func (l *YAMLLoader) Path(kind entity.Kind) string {
	return filepath.Join(l.Dir, string(kind)+".yaml")
}

func (l *YAMLLoader) Load(ctx context.Context) (Bundle, error) {
	b := NewBundle()
	for _, kind := range entity.Kinds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := ReadRecordsFile(l.Path(kind), kind)
		if err != nil {
			return nil, err
		}
		b[kind] = records
	}
	return b, nil
}

// ReadRecordsFile reads the records of kind from path. A missing file is not an
// error.
func ReadRecordsFile(path string, kind entity.Kind) ([]entity.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []entity.Record{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	records, err := ParseRecords(data, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// ParseRecords decodes YAML (or JSON, which YAML accepts) into records.
// Entries that are not mappings are dropped.
func ParseRecords(data []byte, kind entity.Kind) ([]entity.Record, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var list []any
	switch v := doc.(type) {
	case nil:
		return []entity.Record{}, nil
	case []any:
		list = v
	case map[string]any:
		inner, ok := v[string(kind)].([]any)
		if !ok {
			return nil, fmt.Errorf("expected a %q list", kind)
		}
		list = inner
	default:
		return nil, fmt.Errorf("expected a sequence of %s records, got %T", kind, doc)
	}

	records := make([]entity.Record, 0, len(list))
	for _, item := range list {
		if rec, ok := entity.AsRecord(item); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}
