package balance

import (
	"github.com/fabolze/SoAWebApp-sub000/internal/dataset"
	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

// links resolves cross-entity references for one simulation call. Indexes are
// built on first use and reused for the rest of the call.
type links struct {
	bundle  dataset.Bundle
	indexes map[entity.Kind]map[string]entity.Record
}

func newLinks(bundle dataset.Bundle) *links {
	return &links{
		bundle:  bundle,
		indexes: make(map[entity.Kind]map[string]entity.Record),
	}
}

func (l *links) index(kind entity.Kind) map[string]entity.Record {
	if idx, ok := l.indexes[kind]; ok {
		return idx
	}
	idx := l.bundle.Index(kind)
	l.indexes[kind] = idx
	return idx
}

func (l *links) lookup(kind entity.Kind, id string) (entity.Record, bool) {
	if id == "" {
		return nil, false
	}
	rec, ok := l.index(kind)[id]
	return rec, ok
}
