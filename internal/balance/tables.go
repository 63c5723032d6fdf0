package balance

import "strings"

// Multiplier tables. The values are part of the scoring contract: results are
// only comparable across runs while they stay fixed.

var effectTypeMultipliers = map[string]float64{
	"Damage":   1.25,
	"Heal":     1.1,
	"Status":   0.95,
	"Modifier": 0.85,
	"Reflect":  1.05,
	"Summon":   1.15,
	"Shield":   1.0,
	"Control":  1.1,
}

var targetMultipliers = map[string]float64{
	"Single":  1.0,
	"Self":    0.85,
	"Enemy":   1.0,
	"Allies":  1.2,
	"Ally":    0.95,
	"Area":    1.35,
	"All":     1.45,
	"Enemies": 1.3,
}

var valueTypeMultipliers = map[string]float64{
	"Flat":       1.0,
	"Percentage": 1.4,
	"Multiplier": 1.6,
	"None":       0.5,
}

var triggerMultipliers = map[string]float64{
	"None":            1.0,
	"On Use":          1.0,
	"Passive":         1.15,
	"On Hit":          0.65,
	"On Crit":         0.5,
	"On Kill":         0.45,
	"On Damage Taken": 0.6,
	"On Heal":         0.55,
	"On Turn Start":   0.9,
	"On Turn End":     0.85,
	"On Death":        0.3,
}

const defaultTriggerMultiplier = 0.8

var abilityTypeMultipliers = map[string]float64{
	"Active":  1.0,
	"Passive": 0.9,
	"Toggle":  1.05,
}

var rarityMultipliers = map[string]float64{
	"Common":    1.0,
	"Uncommon":  1.2,
	"Rare":      1.45,
	"Epic":      1.7,
	"Legendary": 2.0,
}

// Keys are lower case; enemy_type values are matched case-insensitively.
var enemyTypeMultipliers = map[string]float64{
	"boss":     1.8,
	"miniboss": 1.6,
	"elite":    1.45,
	"champion": 1.3,
	"beast":    1.1,
	"humanoid": 1.05,
	"other":    1.0,
}

var aggressionMultipliers = map[string]float64{
	"Hostile":  1.25,
	"Neutral":  1.0,
	"Friendly": 0.8,
}

// itemOffenseShare is the fraction of an item's power that counts as damage;
// the rest counts as survivability.
var itemOffenseShare = map[string]float64{
	"Weapon":     0.75,
	"Armor":      0.15,
	"Shield":     0.2,
	"Accessory":  0.45,
	"Consumable": 0.35,
	"Material":   0.3,
}

const defaultItemOffenseShare = 0.35

var itemTypeMultipliers = map[string]float64{
	"Weapon":     1.15,
	"Armor":      1.05,
	"Shield":     1.05,
	"Accessory":  1.0,
	"Consumable": 0.7,
	"Material":   0.5,
	"Quest":      0.4,
}

const defaultItemTypeMultiplier = 0.9

// areaTargeting marks targeting values that hit every target in the scenario.
var areaTargeting = map[string]bool{
	"Area":    true,
	"All":     true,
	"Enemies": true,
	"Allies":  true,
}

func lookup(table map[string]float64, key string, def float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	return def
}

func enemyTypeMultiplier(enemyType string) float64 {
	return lookup(enemyTypeMultipliers, strings.ToLower(strings.TrimSpace(enemyType)), 1.0)
}
