package dataset

import (
	"testing"

	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

func TestListNeverNil(t *testing.T) {
	var nilBundle Bundle
	if got := nilBundle.List(entity.Items); got == nil {
		t.Error("List on nil bundle returned nil")
	}

	partial := Bundle{entity.Items: {{"id": "i1"}}}
	if got := partial.List(entity.Effects); got == nil || len(got) != 0 {
		t.Errorf("List(missing kind) = %v, want empty", got)
	}
	if got := partial.List("quests"); got == nil || len(got) != 0 {
		t.Errorf("List(unknown kind) = %v, want empty", got)
	}
	if got := partial.List(entity.Items); len(got) != 1 {
		t.Errorf("List(items) len = %d, want 1", len(got))
	}
}

func TestLookupByID(t *testing.T) {
	list := []entity.Record{
		{"id": "e1", "name": "first"},
		{"name": "no id"},
		{"id": ""},
		{"id": 7},
		{"id": "e1", "name": "duplicate"},
		{"id": "e2"},
	}

	index := LookupByID(list)

	if len(index) != 2 {
		t.Fatalf("index size = %d, want 2", len(index))
	}
	if got := index["e1"].String("name", ""); got != "first" {
		t.Errorf("e1 name = %q, want first (first occurrence wins)", got)
	}
	if _, ok := index["e2"]; !ok {
		t.Error("e2 missing from index")
	}
}

func TestNewBundleHasEveryKind(t *testing.T) {
	b := NewBundle()
	for _, k := range entity.Kinds {
		if _, ok := b[k]; !ok {
			t.Errorf("NewBundle missing kind %q", k)
		}
	}
	if b.Count() != 0 {
		t.Errorf("Count() = %d, want 0", b.Count())
	}
}
