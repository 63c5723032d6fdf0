package balance

import (
	"math"

	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

const (
	itemStreamOffset = 23

	attributeValueWeight = 0.8
	attributeFlagPower   = 3
	itemPriceEconomy     = 0.02
	minItemPayload       = 1

	itemPowerPivot     = 150
	itemValuePivot     = 40
	itemInfluencePivot = 50
	itemDPSPivot       = 90
	itemSustainPivot   = 80
	itemControlPivot   = 40
	itemEconomyPivot   = 15
)

// itemModel is the deterministic part of an item's evaluation.
type itemModel struct {
	rarity         string
	rarityMult     float64
	knownRarity    bool
	statPower      float64
	attributePower float64
	basePower      float64
	offense        float64
	price          float64
	effects        []EffectVector
	unresolved     int
}

func newItemModel(item entity.Record, l *links, sc Scenario) itemModel {
	m := itemModel{
		rarity: item.String("rarity", "Common"),
		price:  item.Number("base_price", 0),
	}
	m.rarityMult, m.knownRarity = rarityMultipliers[m.rarity]
	if !m.knownRarity {
		m.rarityMult = rarityMultipliers["Common"]
	}

	for _, mod := range item.Records("stat_modifiers") {
		m.statPower += math.Abs(mod.Number("value", 0)) *
			lookup(valueTypeMultipliers, mod.String("value_type", "Flat"), valueTypeMultipliers["Flat"])
	}
	for _, attr := range item.List("attributes") {
		if rec, ok := entity.AsRecord(attr); ok {
			m.attributePower += math.Abs(rec.Number("value", 0)) * attributeValueWeight
			continue
		}
		if id, ok := attr.(string); ok && id != "" {
			m.attributePower += attributeFlagPower
		}
	}

	itemType := item.String("type", "")
	m.basePower = (m.statPower + m.attributePower) * m.rarityMult *
		lookup(itemTypeMultipliers, itemType, defaultItemTypeMultiplier)
	m.offense = lookup(itemOffenseShare, itemType, defaultItemOffenseShare)
	m.effects, m.unresolved = resolveEffects(item.List("effects"), l.index(entity.Effects), sc)
	return m
}

func evaluateItem(item entity.Record, l *links, sc Scenario, runs int, seed int64) evaluation {
	m := newItemModel(item, l, sc)
	s := newSeries(runs)

	for i := 0; i < runs; i++ {
		rng := NewRNG(StreamSeed(seed, i, itemStreamOffset))
		impact := m.basePower * (0.9 + rng.Float64()*0.2)
		run := EffectVector{
			Damage:  impact * m.offense,
			Sustain: impact * (1 - m.offense),
		}
		for t := 0; t < sc.Turns; t++ {
			for _, v := range m.effects {
				if rng.Chance(v.ProcChance) {
					run.add(v)
				}
			}
		}
		run.Economy += math.Max(0, m.price) * itemPriceEconomy * (0.5 + sc.EconomyWeight) * (0.92 + rng.Float64()*0.16)

		power := run.Impact()
		s.add("power", power)
		s.add("damage", run.Damage)
		s.add("sustain", run.Sustain)
		s.add("control", run.Control)
		s.add("economy", run.Economy)
		s.add("value", power*100/math.Max(1, m.price))
	}

	control := s.mean("control")
	economy := s.mean("economy")

	var ev evaluation
	ev.Metrics = Metrics{
		Power:         Score(s.mean("power"), itemPowerPivot),
		Value:         Score(s.mean("value"), itemValuePivot),
		Influence:     Score(m.rarityMult*10+control*(0.5+sc.ControlWeight)+economy*sc.EconomyWeight, itemInfluencePivot),
		DPS:           Score(s.mean("damage"), itemDPSPivot),
		Survivability: Score(s.mean("sustain"), itemSustainPivot),
		Control:       Score(control, itemControlPivot),
		Economy:       Score(economy, itemEconomyPivot),
		Consistency:   s.consistency("power"),
	}

	identityWarnings(&ev, item)
	if m.price <= 0 {
		ev.warn("base_price is zero or negative; value cannot be weighed against cost.")
	}
	if m.statPower+m.attributePower < minItemPayload && len(m.effects) == 0 {
		ev.warn("Item has almost no mechanical payload (stats, attributes or effects).")
	}

	if !m.knownRarity {
		ev.note("Unknown rarity %q treated as Common.", m.rarity)
	} else {
		ev.note("Rarity %s multiplies power by %.2f.", m.rarity, m.rarityMult)
	}
	if len(m.effects) == 0 {
		ev.note("No linked effects found.")
	}
	if m.unresolved > 0 {
		ev.note("%d effect reference(s) did not resolve and add no impact.", m.unresolved)
	}
	return ev
}
