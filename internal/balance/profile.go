package balance

import (
	"math"
	"strings"

	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

const (
	profileStreamOffset = 53

	statThreatWeight    = 0.35
	abilityThreatWeight = 0.25
	lowProfileThreat    = 20

	profilePowerPivot     = 120
	profileValuePivot     = 100
	profileInfluencePivot = 60
	profileDPSPivot       = 12
	profileSustainPivot   = 60
	profileControlPivot   = 60
	profileEconomyPivot   = 15
)

var defensiveStatWords = []string{"hp", "health", "armor", "armour", "defense", "defence", "resist", "block", "evasion", "shield", "vitality", "endurance"}

var offensiveStatWords = []string{"attack", "strength", "damage", "power", "crit", "speed", "agility", "dexterity", "intelligence", "magic", "accuracy"}

// statRole returns the offensive share of a stat from its name: 1 for offensive,
// 0 for defensive, 0.5 when the name says neither.
func statRole(name string) float64 {
	n := strings.ToLower(name)
	for _, w := range defensiveStatWords {
		if strings.Contains(n, w) {
			return 0
		}
	}
	for _, w := range offensiveStatWords {
		if strings.Contains(n, w) {
			return 1
		}
	}
	return 0.5
}

// profileModel is the deterministic part of a combat profile's evaluation.
type profileModel struct {
	stats          int
	offenseStats   float64
	defenseStats   float64
	abilities      int
	unresolved     int
	abilityVector  EffectVector
	enemyMult      float64
	aggressionMult float64
	threatBase     float64
}

func newProfileModel(profile entity.Record, l *links, sc Scenario) profileModel {
	m := profileModel{
		enemyMult:      enemyTypeMultiplier(profile.String("enemy_type", "other")),
		aggressionMult: lookup(aggressionMultipliers, profile.String("aggression", "Neutral"), 1.0),
	}

	for _, stat := range profile.Records("custom_stats") {
		name := stat.String("stat", stat.String("name", ""))
		v := math.Abs(stat.Number("value", 0)) * statThreatWeight
		role := statRole(name)
		m.offenseStats += v * role
		m.defenseStats += v * (1 - role)
		m.stats++
	}

	for _, ref := range profile.List("custom_abilities") {
		ability, ok := l.lookup(entity.Abilities, referenceID(ref, "ability_id"))
		if !ok {
			m.unresolved++
			continue
		}
		m.abilityVector.add(newAbilityModel(ability, l, sc).staticVector())
		m.abilities++
	}

	m.threatBase = (m.offenseStats + m.defenseStats + m.abilityVector.Impact()*abilityThreatWeight) * m.mult()
	return m
}

func (m profileModel) mult() float64 {
	return m.enemyMult * m.aggressionMult
}

// offenseBase is the damage-facing part of the threat.
func (m profileModel) offenseBase() float64 {
	return (m.offenseStats + m.abilityVector.Damage*abilityThreatWeight) * m.mult()
}

// defenseBase is the survivability-facing part of the threat.
func (m profileModel) defenseBase() float64 {
	return (m.defenseStats + m.abilityVector.Sustain*abilityThreatWeight) * m.mult()
}

// controlBase is the control the profile's abilities bring, scaled like its threat.
func (m profileModel) controlBase() float64 {
	return m.abilityVector.Control * m.mult()
}

func evaluateProfile(profile entity.Record, l *links, sc Scenario, runs int, seed int64) evaluation {
	m := newProfileModel(profile, l, sc)
	turns := math.Max(1, float64(sc.Turns))
	pressure := 0.9 + sc.Pressure*0.2
	s := newSeries(runs)

	for i := 0; i < runs; i++ {
		rng := NewRNG(StreamSeed(seed, i, profileStreamOffset))
		variance := (0.85 + rng.Float64()*0.3) * pressure
		s.add("threat", m.threatBase*variance)
		s.add("dps", m.offenseBase()*variance/turns)
		s.add("defense", m.defenseBase()*variance)
		s.add("control", m.controlBase()*(0.9+rng.Float64()*0.2))
	}

	threat := s.mean("threat")
	control := s.mean("control")

	var ev evaluation
	ev.Metrics = Metrics{
		Power:         Score(threat, profilePowerPivot),
		Value:         Score(threat*(1-sc.Pressure*0.3), profileValuePivot),
		Influence:     Score(threat*m.aggressionMult*0.4+control*sc.ControlWeight, profileInfluencePivot),
		DPS:           Score(s.mean("dps"), profileDPSPivot),
		Survivability: Score(s.mean("defense"), profileSustainPivot),
		Control:       Score(control, profileControlPivot),
		Economy:       Score(m.abilityVector.Economy, profileEconomyPivot),
		Consistency:   s.consistency("threat"),
	}

	identityWarnings(&ev, profile)
	if m.stats == 0 {
		ev.warn("No custom stats defined.")
	}
	if threat < lowProfileThreat {
		ev.warn("Threat is low for a combat profile (%.1f < %d); add stats or abilities.", threat, lowProfileThreat)
	}

	ev.note("Threat uses custom stats + abilities + enemy type + aggression.")
	if m.abilities > 0 {
		ev.note("%d linked ability(ies) resolved.", m.abilities)
	}
	if m.unresolved > 0 {
		ev.note("%d ability reference(s) did not resolve and add no threat.", m.unresolved)
	}
	return ev
}
