package balance

import (
	"math"

	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

const (
	effectStreamOffset = 37

	minApplyChancePct = 30

	effectPowerPivot     = 30
	effectValuePivot     = 40
	effectInfluencePivot = 25
	effectDPSPivot       = 25
	effectSustainPivot   = 25
	effectControlPivot   = 25
	effectEconomyPivot   = 12
)

func evaluateEffect(effect entity.Record, _ *links, sc Scenario, runs int, seed int64) evaluation {
	v := EffectVectorFor(effect, sc)
	turns := math.Max(1, float64(sc.Turns))
	s := newSeries(runs)

	for i := 0; i < runs; i++ {
		rng := NewRNG(StreamSeed(seed, i, effectStreamOffset))
		var run EffectVector
		for t := 0; t < sc.Turns; t++ {
			if !rng.Chance(v.ProcChance) {
				continue
			}
			variance := 0.9 + rng.Float64()*0.2
			run.Damage += v.Damage * variance
			run.Control += v.Control * variance
			run.Sustain += v.Sustain * variance
			run.Economy += v.Economy
		}
		s.add("damage", run.Damage)
		s.add("control", run.Control)
		s.add("sustain", run.Sustain)
		s.add("economy", run.Economy)
		s.add("impact", run.Impact())
	}

	damage := s.mean("damage") / turns
	control := s.mean("control") / turns
	sustain := s.mean("sustain") / turns
	economy := s.mean("economy")
	impact := s.mean("impact") / turns

	var ev evaluation
	ev.Metrics = Metrics{
		Power:         Score(impact, effectPowerPivot),
		Value:         Score(impact*(1+sc.EconomyWeight)+economy*sc.EconomyWeight, effectValuePivot),
		Influence:     Score(control*(0.5+sc.ControlWeight)+sustain*0.3, effectInfluencePivot),
		DPS:           Score(damage, effectDPSPivot),
		Survivability: Score(sustain, effectSustainPivot),
		Control:       Score(control, effectControlPivot),
		Economy:       Score(economy, effectEconomyPivot),
		Consistency:   s.consistency("impact"),
	}

	identityWarnings(&ev, effect)
	f := readEffect(effect)
	if f.HasChance && f.ApplyChance < minApplyChancePct {
		ev.warn("apply_chance of %.0f%% is below %d%%; the effect rarely lands.", f.ApplyChance, minApplyChancePct)
	}
	if v.ProcChance*float64(sc.Turns) < 1 {
		ev.warn("Fewer than one expected trigger over %d turns; the effect may never fire.", sc.Turns)
	}
	if effect.HasNumber("value") && f.Value == 0 {
		ev.warn("Effect value is zero; it adds no impact.")
	}

	if f.Duration < 0 {
		ev.note("Negative duration treated as permanent.")
	}
	ev.note("Proc chance %.0f%% over %d turns.", v.ProcChance*100, sc.Turns)
	ev.note("Per trigger: damage %.1f, control %.1f, sustain %.1f, economy %.1f.", v.Damage, v.Control, v.Sustain, v.Economy)
	return ev
}
