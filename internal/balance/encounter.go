package balance

import (
	"math"
	"strings"

	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

const (
	encounterStreamOffset = 97

	minCombatParticipants = 2
	reputationRewardValue = 2
	xpRewardValue         = 0.1

	encounterPowerPivot     = 300
	encounterValuePivot     = 400
	encounterInfluencePivot = 100
	encounterDPSPivot       = 40
	encounterSustainPivot   = 200
	encounterControlPivot   = 80
	encounterEconomyPivot   = 300
)

// lootDrop is one resolved loot entry of an encounter's rewards.
type lootDrop struct {
	worth  float64
	chance float64
}

// encounterRewards is the reward payload, read from either a rewards map or a
// list of typed reward records.
type encounterRewards struct {
	loot       []lootDrop
	lootRefs   int
	currency   float64
	reputation float64
	xp         float64
}

func (r encounterRewards) empty() bool {
	return r.lootRefs == 0 && r.currency == 0 && r.reputation == 0 && r.xp == 0
}

// fixedValue is everything except loot, which is rolled per run.
func (r encounterRewards) fixedValue() float64 {
	return math.Abs(r.currency) + math.Abs(r.reputation)*reputationRewardValue + math.Abs(r.xp)*xpRewardValue
}

func (r encounterRewards) expectedLoot() float64 {
	var total float64
	for _, d := range r.loot {
		total += d.worth * d.chance
	}
	return total
}

func (r *encounterRewards) addLoot(entry entity.Record, l *links) {
	r.lootRefs++
	item, ok := l.lookup(entity.Items, entry.String("item_id", entry.String("id", "")))
	if !ok {
		return
	}
	qty := math.Max(0, entry.Number("quantity", entry.Number("amount", 1)))
	rarity := lookup(rarityMultipliers, item.String("rarity", "Common"), rarityMultipliers["Common"])
	chance := clamp(entry.Number("drop_chance", entry.Number("chance", 100))/100, 0, 1)
	r.loot = append(r.loot, lootDrop{
		worth:  math.Max(0, item.Number("base_price", 0)) * qty * rarity,
		chance: chance,
	})
}

func readRewards(encounter entity.Record, l *links) encounterRewards {
	var r encounterRewards
	if rewards, ok := encounter.Record("rewards"); ok {
		for _, entry := range rewards.List("loot") {
			if rec, ok := entity.AsRecord(entry); ok {
				r.addLoot(rec, l)
			} else if id, ok := entry.(string); ok {
				r.addLoot(entity.Record{"item_id": id}, l)
			}
		}
		r.currency = rewards.Number("currency", rewards.Number("gold", 0))
		r.reputation = rewards.Number("reputation", 0)
		r.xp = rewards.Number("xp", rewards.Number("experience", 0))
		return r
	}

	for _, reward := range encounter.Records("rewards") {
		amount := reward.Number("amount", reward.Number("value", 0))
		switch strings.ToLower(reward.String("type", "")) {
		case "loot", "item":
			r.addLoot(reward, l)
		case "currency", "gold":
			r.currency += amount
		case "reputation":
			r.reputation += amount
		case "xp", "experience":
			r.xp += amount
		}
	}
	return r
}

// participant is one resolved line of an encounter's roster.
type participant struct {
	threat  float64
	control float64
	count   float64
}

func resolveParticipant(ref any, l *links, sc Scenario) (participant, bool) {
	p := participant{count: 1}
	var characterID, profileID string
	if rec, ok := entity.AsRecord(ref); ok {
		characterID = rec.String("character_id", "")
		profileID = rec.String("combat_profile_id", "")
		p.count = math.Max(0, rec.Number("count", rec.Number("quantity", 1)))
	} else {
		characterID = referenceID(ref, "character_id")
	}

	if character, ok := l.lookup(entity.Characters, characterID); ok {
		m := newCharacterModel(character, l, sc)
		p.threat = m.basePower
		p.control = m.controlBase()
		return p, true
	}
	if profile, ok := l.lookup(entity.CombatProfiles, profileID); ok {
		m := newProfileModel(profile, l, sc)
		p.threat = m.threatBase
		p.control = m.controlBase()
		return p, true
	}
	return p, false
}

func evaluateEncounter(encounter entity.Record, l *links, sc Scenario, runs int, seed int64) evaluation {
	refs := encounter.List("participants")
	var threatBase, controlBase, headcount float64
	resolved := 0
	for _, ref := range refs {
		p, ok := resolveParticipant(ref, l, sc)
		headcount += p.count
		if !ok {
			continue
		}
		resolved++
		threatBase += p.threat * p.count
		controlBase += p.control * p.count
	}
	rewards := readRewards(encounter, l)

	turns := math.Max(1, float64(sc.Turns))
	pressure := 0.9 + sc.Pressure*0.2
	primary := "threat"
	if threatBase <= 0 {
		primary = "value"
	}
	s := newSeries(runs)

	for i := 0; i < runs; i++ {
		rng := NewRNG(StreamSeed(seed, i, encounterStreamOffset))
		threat := threatBase * (0.85 + rng.Float64()*0.3) * pressure
		var loot float64
		for _, d := range rewards.loot {
			if rng.Chance(d.chance) {
				loot += d.worth
			}
		}
		s.add("threat", threat)
		s.add("control", controlBase*(0.9+rng.Float64()*0.2))
		s.add("loot", loot)
		s.add("value", (loot+rewards.fixedValue())*(0.95+rng.Float64()*0.1))
	}

	threat := s.mean("threat")
	value := s.mean("value")

	var ev evaluation
	ev.Metrics = Metrics{
		Power:         Score(threat, encounterPowerPivot),
		Value:         Score(value, encounterValuePivot),
		Influence:     Score(math.Abs(rewards.reputation)*reputationRewardValue+threat*0.1*(0.5+sc.ControlWeight), encounterInfluencePivot),
		DPS:           Score(threat/turns, encounterDPSPivot),
		Survivability: Score(threat*0.5, encounterSustainPivot),
		Control:       Score(s.mean("control"), encounterControlPivot),
		Economy:       Score((s.mean("loot")+math.Abs(rewards.currency))*(0.5+sc.EconomyWeight), encounterEconomyPivot),
		Consistency:   s.consistency(primary),
	}

	identityWarnings(&ev, encounter)
	kind := strings.ToLower(encounter.String("type", encounter.String("encounter_type", "Combat")))
	if len(refs) == 0 {
		ev.warn("Encounter has no participants.")
	} else if strings.Contains(kind, "combat") && headcount < minCombatParticipants {
		ev.warn("Combat encounter has %.0f participant(s); fewer than %d makes a thin fight.", headcount, minCombatParticipants)
	}
	if rewards.empty() {
		ev.warn("Encounter grants no rewards.")
	}

	ev.note("Resolved %d of %d participants.", resolved, len(refs))
	ev.note("Rewards: loot %.0f expected, currency %.0f, reputation %.0f, xp %.0f.",
		rewards.expectedLoot(), rewards.currency, rewards.reputation, rewards.xp)
	if primary == "value" {
		ev.note("No participant threat; consistency follows reward value.")
	}
	return ev
}
