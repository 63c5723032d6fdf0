package balance

import (
	"math"
	"strings"

	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

// EffectVector decomposes one effect under one scenario.
type EffectVector struct {
	Damage     float64 `json:"damage"`
	Control    float64 `json:"control"`
	Sustain    float64 `json:"sustain"`
	Economy    float64 `json:"economy"`
	ProcChance float64 `json:"procChance"`
}

// Impact is the combined combat payload of one trigger.
func (v EffectVector) Impact() float64 {
	return v.Damage + v.Control + v.Sustain
}

// Expected is the vector scaled by its proc chance.
func (v EffectVector) Expected() EffectVector {
	return EffectVector{
		Damage:     v.Damage * v.ProcChance,
		Control:    v.Control * v.ProcChance,
		Sustain:    v.Sustain * v.ProcChance,
		Economy:    v.Economy * v.ProcChance,
		ProcChance: v.ProcChance,
	}
}

func (v *EffectVector) add(o EffectVector) {
	v.Damage += o.Damage
	v.Control += o.Control
	v.Sustain += o.Sustain
	v.Economy += o.Economy
}

const (
	defaultEffectValue     = 12.0
	permanentDuration      = 2.2
	maxCountedDuration     = 10.0
	stackableMultiplier    = 1.15
	defaultStatusChancePct = 75.0
	defaultAlwaysChancePct = 100.0
	effectEconomyPerValue  = 0.06
	modifierDamageShare    = 0.45
	modifierSustainShare   = 0.25
	modifierControlShare   = 0.30
)

// effectFields are the normalized inputs of the vector model.
type effectFields struct {
	Type          string
	Target        string
	Trigger       string
	ValueType     string
	Duration      float64
	Value         float64
	Stackable     bool
	ApplyChance   float64
	HasChance     bool
	ChanceDefault float64
}

func readEffect(effect entity.Record) effectFields {
	f := effectFields{
		Type:      effect.String("type", "Modifier"),
		Target:    effect.String("target", "Enemy"),
		Trigger:   effect.String("trigger_condition", "None"),
		ValueType: effect.String("value_type", "Flat"),
		Duration:  effect.Number("duration", 0),
		Value:     math.Abs(effect.Number("value", defaultEffectValue)),
		Stackable: effect.Bool("stackable"),
		HasChance: effect.HasNumber("apply_chance"),
	}
	if _, known := effectTypeMultipliers[f.Type]; !known {
		f.Type = "Modifier"
	}
	f.ChanceDefault = defaultAlwaysChancePct
	if f.Type == "Status" || f.Type == "Control" {
		f.ChanceDefault = defaultStatusChancePct
	}
	f.ApplyChance = effect.Number("apply_chance", f.ChanceDefault)
	return f
}

func durationMultiplier(duration float64) float64 {
	if duration < 0 {
		return permanentDuration
	}
	return 1 + clamp(duration, 0, maxCountedDuration)*0.1
}

// ProcChance converts an apply_chance percentage to a probability in [0,1].
func ProcChance(effect entity.Record) float64 {
	return clamp(readEffect(effect).ApplyChance/100, 0, 1)
}

// EffectVectorFor derives the effect vector of effect under sc.
func EffectVectorFor(effect entity.Record, sc Scenario) EffectVector {
	f := readEffect(effect)

	stack := 1.0
	if f.Stackable {
		stack = stackableMultiplier
	}
	base := f.Value *
		lookup(effectTypeMultipliers, f.Type, effectTypeMultipliers["Modifier"]) *
		lookup(targetMultipliers, f.Target, targetMultipliers["Enemy"]) *
		lookup(valueTypeMultipliers, f.ValueType, valueTypeMultipliers["Flat"]) *
		durationMultiplier(f.Duration) *
		stack
	trigger := lookup(triggerMultipliers, f.Trigger, defaultTriggerMultiplier)

	v := EffectVector{
		ProcChance: clamp(f.ApplyChance/100, 0, 1),
		Economy:    f.Value * effectEconomyPerValue,
	}
	switch f.Type {
	case "Damage", "Reflect":
		v.Damage = base * trigger * (0.85 + sc.Pressure*0.25)
	case "Heal", "Shield":
		v.Sustain = base * trigger * 0.9
	case "Control", "Status":
		v.Control = base * trigger * (0.9 + sc.ControlWeight*0.5)
	default:
		v.Damage = base * modifierDamageShare
		v.Sustain = base * modifierSustainShare
		v.Control = base * modifierControlShare
	}
	return v
}

// resolveEffects maps effect references to vectors. References may be plain ids
// or maps carrying "id" / "effect_id". Unresolved references are counted, not
// returned.
func resolveEffects(refs []any, index map[string]entity.Record, sc Scenario) (vectors []EffectVector, unresolved int) {
	for _, ref := range refs {
		id := referenceID(ref, "effect_id")
		if id == "" {
			continue
		}
		effect, ok := index[id]
		if !ok {
			unresolved++
			continue
		}
		vectors = append(vectors, EffectVectorFor(effect, sc))
	}
	return vectors, unresolved
}

// referenceID extracts an id from a string reference or a map reference.
func referenceID(ref any, altKey string) string {
	switch v := ref.(type) {
	case string:
		return strings.TrimSpace(v)
	default:
		rec, ok := entity.AsRecord(ref)
		if !ok {
			return ""
		}
		if id := rec.String(altKey, ""); id != "" {
			return id
		}
		return rec.ID()
	}
}
