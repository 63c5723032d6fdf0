package balance

import (
	"math"
	"testing"

	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProcChanceBounds(t *testing.T) {
	tests := []struct {
		name   string
		effect entity.Record
		want   float64
	}{
		{"negative", entity.Record{"apply_chance": -50}, 0},
		{"above hundred", entity.Record{"apply_chance": 500}, 1},
		{"percentage", entity.Record{"apply_chance": 40}, 0.4},
		{"string", entity.Record{"apply_chance": "25"}, 0.25},
		{"status default", entity.Record{"type": "Status"}, 0.75},
		{"control default", entity.Record{"type": "Control"}, 0.75},
		{"damage default", entity.Record{"type": "Damage"}, 1},
		{"garbage", entity.Record{"apply_chance": []any{"x"}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProcChance(tt.effect)
			if !almostEqual(got, tt.want) {
				t.Errorf("ProcChance() = %v, want %v", got, tt.want)
			}
			v := EffectVectorFor(tt.effect, scenarioCatalog[0])
			if v.ProcChance < 0 || v.ProcChance > 1 {
				t.Errorf("EffectVectorFor().ProcChance = %v, want [0,1]", v.ProcChance)
			}
		})
	}
}

func TestEffectVectorRouting(t *testing.T) {
	sc := scenarioCatalog[0] // pressure 0.5, control weight 0.4

	damage := EffectVectorFor(entity.Record{"type": "Damage", "value": 10}, sc)
	// 10 * 1.25 (Damage) * 1 (Enemy) * 1 (Flat) * 1 (duration 0) * trigger None 1 * (0.85 + 0.5*0.25)
	if want := 10 * 1.25 * 0.975; !almostEqual(damage.Damage, want) {
		t.Errorf("damage.Damage = %v, want %v", damage.Damage, want)
	}
	if damage.Control != 0 || damage.Sustain != 0 {
		t.Errorf("damage effect leaked into control/sustain: %+v", damage)
	}
	if !almostEqual(damage.Economy, 0.6) {
		t.Errorf("damage.Economy = %v, want 0.6", damage.Economy)
	}

	heal := EffectVectorFor(entity.Record{"type": "Heal", "value": 10, "target": "Allies"}, sc)
	if want := 10 * 1.1 * 1.2 * 0.9; !almostEqual(heal.Sustain, want) {
		t.Errorf("heal.Sustain = %v, want %v", heal.Sustain, want)
	}

	stun := EffectVectorFor(entity.Record{"type": "Control", "value": 10, "trigger_condition": "On Hit"}, sc)
	if want := 10 * 1.1 * 0.65 * (0.9 + 0.4*0.5); !almostEqual(stun.Control, want) {
		t.Errorf("stun.Control = %v, want %v", stun.Control, want)
	}

	mod := EffectVectorFor(entity.Record{"type": "Something", "value": 10}, sc)
	base := 10 * 0.85
	if !almostEqual(mod.Damage, base*0.45) || !almostEqual(mod.Sustain, base*0.25) || !almostEqual(mod.Control, base*0.30) {
		t.Errorf("unknown type should split as Modifier, got %+v", mod)
	}
}

func TestDurationMultiplier(t *testing.T) {
	tests := []struct {
		duration float64
		want     float64
	}{
		{-1, 2.2},
		{0, 1},
		{3, 1.3},
		{10, 2},
		{50, 2},
	}
	for _, tt := range tests {
		if got := durationMultiplier(tt.duration); !almostEqual(got, tt.want) {
			t.Errorf("durationMultiplier(%v) = %v, want %v", tt.duration, got, tt.want)
		}
	}
}

func TestStackableAndDefaultValue(t *testing.T) {
	sc := scenarioCatalog[0]
	plain := EffectVectorFor(entity.Record{"type": "Heal"}, sc)
	stacked := EffectVectorFor(entity.Record{"type": "Heal", "stackable": true}, sc)
	if !almostEqual(stacked.Sustain, plain.Sustain*1.15) {
		t.Errorf("stackable sustain = %v, want %v", stacked.Sustain, plain.Sustain*1.15)
	}
	if want := 12 * 1.1 * 0.9; !almostEqual(plain.Sustain, want) {
		t.Errorf("missing value should default to 12: sustain = %v, want %v", plain.Sustain, want)
	}
}

func TestResolveEffects(t *testing.T) {
	index := map[string]entity.Record{
		"e1": {"id": "e1", "type": "Damage", "value": 5},
	}
	refs := []any{"e1", map[string]any{"effect_id": "e1"}, " e1 ", "missing", 12, ""}
	vectors, unresolved := resolveEffects(refs, index, scenarioCatalog[0])
	if len(vectors) != 3 {
		t.Errorf("resolved = %d, want 3", len(vectors))
	}
	if unresolved != 1 {
		t.Errorf("unresolved = %d, want 1", unresolved)
	}
}
