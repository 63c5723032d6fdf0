package balance

import (
	"math"

	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

const (
	abilityStreamOffset = 11

	// abilityHitRatio converts stat budget times scaling into damage per cast.
	abilityHitRatio     = 0.12
	areaTargetBonus     = 0.25
	maxAbilityCooldown  = 10
	maxAbilityCostShare = 0.12
	lowProcThreshold    = 0.3

	abilityPowerPivot     = 45
	abilityValuePivot     = 110
	abilityInfluencePivot = 60
	abilityDPSPivot       = 40
	abilitySustainPivot   = 70
	abilityControlPivot   = 60
	abilityEconomyPivot   = 12
)

// abilityModel is the deterministic part of an ability's evaluation.
type abilityModel struct {
	scalingSum float64
	cooldown   float64
	cost       float64
	casts      int
	directHit  float64
	effects    []EffectVector
	unresolved int
	avgProc    float64
	costShare  float64
}

func newAbilityModel(ability entity.Record, l *links, sc Scenario) abilityModel {
	m := abilityModel{
		cooldown: math.Max(0, ability.Number("cooldown", 0)),
		cost:     math.Max(0, ability.Number("resource_cost", 0)),
	}

	var scaling float64
	for _, s := range ability.Records("scaling") {
		scaling += s.Number("multiplier", 0)
	}
	// negative entries offset positive ones; the net sum never goes below zero
	m.scalingSum = math.Max(0, scaling)

	targeting := ability.String("targeting", "Single")
	targetFactor := lookup(targetMultipliers, targeting, 1.0)
	if areaTargeting[targeting] && sc.TargetCount > 1 {
		targetFactor *= 1 + float64(sc.TargetCount-1)*areaTargetBonus
	}

	m.directHit = sc.StatBudget * m.scalingSum * abilityHitRatio *
		lookup(abilityTypeMultipliers, ability.String("type", "Active"), 1.0) *
		targetFactor *
		lookup(triggerMultipliers, ability.String("trigger_condition", "On Use"), defaultTriggerMultiplier)

	turns := math.Max(1, float64(sc.Turns))
	casts := math.Floor(turns / (m.cooldown + 1))
	if m.cost > 0 && sc.ResourceBudget > 0 {
		casts = math.Min(casts, math.Floor(sc.ResourceBudget/m.cost))
		m.costShare = m.cost / sc.ResourceBudget
	}
	m.casts = int(math.Max(1, casts))

	refs := ability.List("effects")
	m.effects, m.unresolved = resolveEffects(refs, l.index(entity.Effects), sc)
	if len(m.effects) > 0 {
		var total float64
		for _, v := range m.effects {
			total += v.ProcChance
		}
		m.avgProc = total / float64(len(m.effects))
	}
	return m
}

// expected is the mean vector of one cast, direct hit included as damage.
func (m abilityModel) expected() EffectVector {
	out := EffectVector{Damage: m.directHit, ProcChance: 1}
	for _, v := range m.effects {
		out.add(v.Expected())
	}
	return out
}

// staticImpact is the expected total impact across the scenario's casts.
func (m abilityModel) staticImpact() float64 {
	return m.expected().Impact() * float64(m.casts)
}

func (m abilityModel) staticVector() EffectVector {
	e := m.expected()
	n := float64(m.casts)
	return EffectVector{Damage: e.Damage * n, Control: e.Control * n, Sustain: e.Sustain * n, Economy: e.Economy * n, ProcChance: 1}
}

func evaluateAbility(ability entity.Record, l *links, sc Scenario, runs int, seed int64) evaluation {
	m := newAbilityModel(ability, l, sc)
	turns := math.Max(1, float64(sc.Turns))
	s := newSeries(runs)

	for i := 0; i < runs; i++ {
		rng := NewRNG(StreamSeed(seed, i, abilityStreamOffset))
		var run EffectVector
		for c := 0; c < m.casts; c++ {
			run.Damage += m.directHit * (0.85 + rng.Float64()*0.3)
			for _, v := range m.effects {
				if rng.Chance(v.ProcChance) {
					run.add(v)
				}
			}
		}
		s.add("dps", run.Damage/turns)
		s.add("control", run.Control)
		s.add("sustain", run.Sustain)
		s.add("economy", run.Economy)
		s.add("impact", run.Impact())
	}

	dps := s.mean("dps")
	control := s.mean("control")
	sustain := s.mean("sustain")
	economy := s.mean("economy")
	impact := s.mean("impact")
	totalCost := m.cost * float64(m.casts)
	efficiency := 1 - clamp(m.costShare, 0, 1)

	var ev evaluation
	ev.Metrics = Metrics{
		Power:         Score(dps+(control+sustain)/turns*0.5, abilityPowerPivot),
		Value:         Score(impact/(1+totalCost/math.Max(1, sc.ResourceBudget)), abilityValuePivot),
		Influence:     Score(control*(0.5+sc.ControlWeight)+sustain*0.35+economy*sc.EconomyWeight, abilityInfluencePivot),
		DPS:           Score(dps, abilityDPSPivot),
		Survivability: Score(sustain, abilitySustainPivot),
		Control:       Score(control, abilityControlPivot),
		Economy:       Score(economy*(0.5+sc.EconomyWeight)+efficiency*sc.EconomyWeight*10, abilityEconomyPivot),
		Consistency:   s.consistency("impact"),
	}

	identityWarnings(&ev, ability)
	if m.cooldown > maxAbilityCooldown {
		ev.warn("Cooldown of %.0f turns is above %d; the ability rarely comes up in a fight.", m.cooldown, maxAbilityCooldown)
	}
	if m.costShare > maxAbilityCostShare {
		ev.warn("Resource cost %.0f is more than %.0f%% of the scenario resource budget (%.0f).",
			m.cost, maxAbilityCostShare*100, sc.ResourceBudget)
	}
	if m.scalingSum == 0 {
		ev.warn("Scaling multipliers sum to zero or less; the ability deals no direct damage.")
	}
	if len(m.effects) > 0 && m.avgProc < lowProcThreshold {
		ev.warn("Linked effects land %.0f%% of the time on average; results swing heavily.", m.avgProc*100)
	}

	if len(m.effects) == 0 {
		ev.note("No linked effects found; impact comes from scaling alone.")
	} else {
		ev.note("%d linked effect(s) resolved.", len(m.effects))
	}
	if m.unresolved > 0 {
		ev.note("%d effect reference(s) did not resolve and add no impact.", m.unresolved)
	}
	ev.note("%d cast(s) over %d turns.", m.casts, sc.Turns)
	return ev
}
