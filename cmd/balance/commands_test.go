package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/fabolze/SoAWebApp-sub000/internal/config"
	"github.com/fabolze/SoAWebApp-sub000/internal/dataset"
	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"abilities", []string{"abilities"}},
		{" abilities, items ,,effects ", []string{"abilities", "items", "effects"}},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPickEntity(t *testing.T) {
	bundle := dataset.NewBundle()
	bundle[entity.Items] = []entity.Record{{"id": "sword", "name": "Sword"}}

	path := filepath.Join(t.TempDir(), "drafts.yaml")
	content := "items:\n  - id: axe\n    name: Axe\n  - id: bow\n    name: Bow\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		id      string
		file    string
		wantID  string
		wantErr bool
	}{
		{"from datasets", "sword", "", "sword", false},
		{"missing in datasets", "shield", "", "", true},
		{"no id or file", "", "", "", true},
		{"file first record", "", path, "axe", false},
		{"file by id", "bow", path, "bow", false},
		{"file missing id", "sword", path, "", true},
		{"empty file", "", filepath.Join(t.TempDir(), "none.yaml"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := pickEntity(bundle, entity.Items, tt.id, tt.file)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", rec)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.ID() != tt.wantID {
				t.Errorf("picked %q, want %q", rec.ID(), tt.wantID)
			}
		})
	}
}

func TestTruncateAndPad(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a_very_long_entity_id", 8); got != "a_very_~" {
		t.Errorf("truncate = %q, want a_very_~", got)
	}
	if got := pad("12.5", 12.5, 7); got != "   12.5" {
		t.Errorf("pad = %q, want %q", got, "   12.5")
	}
}

func newStoreConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Datasets.Source = config.SourceSQLite
	cfg.Datasets.SQLitePath = filepath.Join(t.TempDir(), "store.db")
	return cfg
}

func TestOpenStoreRejectsYAML(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Datasets.Source = config.SourceYAML
	if db, err := openStore(cfg); err == nil {
		db.Close()
		t.Error("expected error opening a store for a yaml source")
	}
}

func TestStoreCommands(t *testing.T) {
	ctx := context.Background()
	db, err := openStore(newStoreConfig(t))
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer db.Close()

	bundle := dataset.NewBundle()
	bundle[entity.Items] = []entity.Record{{"id": "sword", "name": "Sword"}, {"id": "axe", "name": "Axe"}}
	bundle[entity.Effects] = []entity.Record{{"id": "burn", "name": "Burn"}}

	n, counts, err := importBundle(ctx, db, bundle)
	if err != nil {
		t.Fatalf("importBundle: %v", err)
	}
	if n != 3 {
		t.Errorf("imported = %d, want 3", n)
	}
	if counts[entity.Items] != 2 || counts[entity.Effects] != 1 || counts[entity.Abilities] != 0 {
		t.Errorf("counts = %v, want items 2, effects 1", counts)
	}

	rec, err := storedEntity(ctx, db, entity.Items, "axe")
	if err != nil {
		t.Fatalf("storedEntity: %v", err)
	}
	if rec.String("name", "") != "Axe" {
		t.Errorf("stored name = %q, want Axe", rec.String("name", ""))
	}
	if _, err := storedEntity(ctx, db, entity.Items, "shield"); err == nil {
		t.Error("expected error for a missing stored entity")
	}

	if err := deleteStored(ctx, db, entity.Items, "axe"); err != nil {
		t.Fatalf("deleteStored: %v", err)
	}
	if err := deleteStored(ctx, db, entity.Items, "axe"); err == nil {
		t.Error("expected error deleting a record twice")
	}

	// a re-import upserts rather than duplicating
	_, counts, err = importBundle(ctx, db, bundle)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if counts[entity.Items] != 2 {
		t.Errorf("items after re-import = %d, want 2", counts[entity.Items])
	}
}
