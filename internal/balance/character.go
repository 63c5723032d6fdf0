package balance

import (
	"maps"
	"math"
	"slices"

	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

const (
	characterStreamOffset = 71

	levelPowerPerLevel  = 6
	profileThreatShare  = 0.6
	characterStatWeight = 0.2
	characterAbilityCut = 0.2
	unprofiledLevelCap  = 10
	inventoryItemWorth  = 2

	characterPowerPivot     = 150
	characterValuePivot     = 120
	characterInfluencePivot = 80
	characterDPSPivot       = 15
	characterSustainPivot   = 90
	characterControlPivot   = 60
	characterEconomyPivot   = 60
)

// characterModel is the deterministic part of a character's evaluation.
type characterModel struct {
	level      float64
	levelPower float64
	profileID  string
	profile    profileModel
	hasProfile bool
	statPower  float64
	abilities  EffectVector
	unresolved int
	basePower  float64
}

func newCharacterModel(character entity.Record, l *links, sc Scenario) characterModel {
	m := characterModel{
		level:     character.Number("level", 1),
		profileID: character.String("combat_profile_id", ""),
	}
	m.levelPower = math.Max(0, m.level) * levelPowerPerLevel

	if profile, ok := l.lookup(entity.CombatProfiles, m.profileID); ok {
		m.profile = newProfileModel(profile, l, sc)
		m.hasProfile = true
	}

	// stats is either a stat -> value map or a list of {stat, value} records.
	// Map keys are summed in sorted order so runs stay bit-identical.
	if stats, ok := character.Record("stats"); ok {
		for _, key := range slices.Sorted(maps.Keys(stats)) {
			m.statPower += math.Abs(stats.Number(key, 0)) * characterStatWeight
		}
	}
	for _, stat := range character.Records("stats") {
		m.statPower += math.Abs(stat.Number("value", 0)) * characterStatWeight
	}

	for _, ref := range character.List("abilities") {
		ability, ok := l.lookup(entity.Abilities, referenceID(ref, "ability_id"))
		if !ok {
			m.unresolved++
			continue
		}
		m.abilities.add(newAbilityModel(ability, l, sc).staticVector())
	}

	m.basePower = m.levelPower + m.profileThreat() + m.statPower + m.abilities.Impact()*characterAbilityCut
	return m
}

func (m characterModel) profileThreat() float64 {
	if !m.hasProfile {
		return 0
	}
	return m.profile.threatBase * profileThreatShare
}

// controlBase is the control from the character's own abilities plus its share
// of the linked profile's.
func (m characterModel) controlBase() float64 {
	control := m.abilities.Control * characterAbilityCut
	if m.hasProfile {
		control += m.profile.controlBase() * profileThreatShare
	}
	return control
}

// offenseShare splits base power into damage and sustain using the linked
// profile when there is one.
func (m characterModel) offenseShare() float64 {
	if m.hasProfile {
		total := m.profile.offenseBase() + m.profile.defenseBase()
		if total > 0 {
			return m.profile.offenseBase() / total
		}
	}
	return 0.5
}

func evaluateCharacter(character entity.Record, l *links, sc Scenario, runs int, seed int64) evaluation {
	m := newCharacterModel(character, l, sc)
	turns := math.Max(1, float64(sc.Turns))
	offense := m.offenseShare()
	reputation := character.Number("reputation", 0)
	wealth := math.Max(0, character.Number("gold", character.Number("currency", 0)))
	inventory := float64(len(character.List("inventory")))
	s := newSeries(runs)

	for i := 0; i < runs; i++ {
		rng := NewRNG(StreamSeed(seed, i, characterStreamOffset))
		power := m.basePower * (0.88 + rng.Float64()*0.24)
		s.add("power", power)
		s.add("dps", power*offense/turns)
		s.add("sustain", power*(1-offense))
		s.add("control", m.controlBase()*(0.9+rng.Float64()*0.2))
		s.add("economy", (wealth*0.05+inventory*inventoryItemWorth+m.abilities.Economy)*(0.95+rng.Float64()*0.1))
	}

	power := s.mean("power")
	control := s.mean("control")
	economy := s.mean("economy")
	faction := 0.0
	if character.String("faction_id", "") != "" {
		faction = 10
	}

	var ev evaluation
	ev.Metrics = Metrics{
		Power:         Score(power, characterPowerPivot),
		Value:         Score(power*(1-sc.Pressure*0.25)+economy*sc.EconomyWeight, characterValuePivot),
		Influence:     Score(math.Max(0, m.level)*2+math.Abs(reputation)*0.5+faction+control*sc.ControlWeight, characterInfluencePivot),
		DPS:           Score(s.mean("dps"), characterDPSPivot),
		Survivability: Score(s.mean("sustain"), characterSustainPivot),
		Control:       Score(control, characterControlPivot),
		Economy:       Score(economy, characterEconomyPivot),
		Consistency:   s.consistency("power"),
	}

	identityWarnings(&ev, character)
	if m.level <= 0 {
		ev.warn("Level %.0f is zero or negative; level adds no power.", m.level)
	}
	if m.level >= unprofiledLevelCap && m.profileID == "" {
		ev.warn("Level %.0f character has no combat_profile_id; combat threat is underestimated.", m.level)
	}

	switch {
	case m.hasProfile:
		ev.note("Linked combat profile %s contributes %.1f threat.", m.profileID, m.profileThreat())
	case m.profileID != "":
		ev.note("Combat profile %s did not resolve and adds no threat.", m.profileID)
	default:
		ev.note("No combat profile linked; power comes from level, stats and abilities.")
	}
	if m.unresolved > 0 {
		ev.note("%d ability reference(s) did not resolve.", m.unresolved)
	}
	return ev
}
