// Package dataset holds the entity collections the simulator cross-references,
// and the loaders and cache that produce them.
package dataset

import (
	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

// Bundle maps each entity kind to its ordered collection. The simulator treats a
// bundle as read-only.
type Bundle map[entity.Kind][]entity.Record

// NewBundle returns a bundle with an empty collection for every kind.
func NewBundle() Bundle {
	b := make(Bundle, len(entity.Kinds))
	for _, k := range entity.Kinds {
		b[k] = []entity.Record{}
	}
	return b
}

// List returns the collection for kind. Unknown kinds and partial bundles yield
// an empty, non-nil slice.
func (b Bundle) List(kind entity.Kind) []entity.Record {
	if b == nil {
		return []entity.Record{}
	}
	list, ok := b[kind]
	if !ok || list == nil {
		return []entity.Record{}
	}
	return list
}

// Index builds the id lookup for kind.
func (b Bundle) Index(kind entity.Kind) map[string]entity.Record {
	return LookupByID(b.List(kind))
}

// Count returns the number of records across all kinds.
func (b Bundle) Count() int {
	n := 0
	for _, list := range b {
		n += len(list)
	}
	return n
}

// LookupByID indexes records by their string id in a single pass. Records
// without a non-empty id are left out; the first record wins on duplicates.
func LookupByID(list []entity.Record) map[string]entity.Record {
	index := make(map[string]entity.Record, len(list))
	for _, rec := range list {
		id := rec.ID()
		if id == "" {
			continue
		}
		if _, exists := index[id]; exists {
			continue
		}
		index[id] = rec
	}
	return index
}
