package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestYAMLLoaderReadsEveryKind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "abilities.yaml", `
- id: slash
  name: Slash
  scaling:
    - stat: strength
      multiplier: 1.2
  effects: [burn]
- id: kick
  name: Kick
`)
	writeFile(t, dir, "effects.yaml", `
effects:
  - id: burn
    type: Damage
    value: 8
`)
	writeFile(t, dir, "items.json", `[{"id": "ignored"}]`)

	b, err := NewYAMLLoader(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(b.List(entity.Abilities)); got != 2 {
		t.Errorf("abilities = %d, want 2", got)
	}
	if got := len(b.List(entity.Effects)); got != 1 {
		t.Errorf("effects = %d, want 1", got)
	}
	if got := len(b.List(entity.Items)); got != 0 {
		t.Errorf("items = %d, want 0 (missing file)", got)
	}

	slash := b.Index(entity.Abilities)["slash"]
	scaling := slash.Records("scaling")
	if len(scaling) != 1 || scaling[0].Number("multiplier", 0) != 1.2 {
		t.Errorf("scaling = %v, want one multiplier 1.2", scaling)
	}
	if refs := slash.List("effects"); len(refs) != 1 || refs[0] != "burn" {
		t.Errorf("effects = %v, want [burn]", refs)
	}
}

func TestParseRecords(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"sequence", "- id: a\n- id: b\n", 2, false},
		{"json", `[{"id": "a"}, {"id": "b"}, {"id": "c"}]`, 3, false},
		{"wrapped", "items:\n  - id: a\n", 1, false},
		{"empty", "", 0, false},
		{"scalars dropped", "- id: a\n- 12\n- just text\n", 1, false},
		{"wrong wrapper", "spells:\n  - id: a\n", 0, true},
		{"scalar document", "hello", 0, true},
		{"broken", "- id: [a\n", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecords([]byte(tt.input), entity.Items)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRecords error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestYAMLLoaderReportsPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "characters.yaml", "- name: [unterminated\n")

	_, err := NewYAMLLoader(dir).Load(context.Background())
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "characters.yaml") {
		t.Errorf("error %q should name the file", err)
	}
}

func TestYAMLLoaderHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewYAMLLoader(t.TempDir()).Load(ctx); err == nil {
		t.Error("expected context error")
	}
}
