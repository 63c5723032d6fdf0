package balance

// Scenario is a named parameter preset that shapes how raw impact is weighted.
type Scenario struct {
	ID             string  `json:"id" yaml:"id"`
	Label          string  `json:"label" yaml:"label"`
	Description    string  `json:"description" yaml:"description"`
	Turns          int     `json:"turns" yaml:"turns"`
	TargetCount    int     `json:"targetCount" yaml:"target_count"`
	StatBudget     float64 `json:"statBudget" yaml:"stat_budget"`
	ResourceBudget float64 `json:"resourceBudget" yaml:"resource_budget"`
	Pressure       float64 `json:"pressure" yaml:"pressure"`
	EconomyWeight  float64 `json:"economyWeight" yaml:"economy_weight"`
	ControlWeight  float64 `json:"controlWeight" yaml:"control_weight"`
}

// DefaultScenarioID is the catalog's first entry and the fallback for unknown ids.
const DefaultScenarioID = "duel_baseline"

var scenarioCatalog = []Scenario{
	{
		ID:             DefaultScenarioID,
		Label:          "Duel baseline",
		Description:    "One-on-one fight of average length against a single target.",
		Turns:          6,
		TargetCount:    1,
		StatBudget:     100,
		ResourceBudget: 100,
		Pressure:       0.5,
		EconomyWeight:  0.3,
		ControlWeight:  0.4,
	},
	{
		ID:             "group_skirmish",
		Label:          "Group skirmish",
		Description:    "Several enemies at once; area effects and control pay off.",
		Turns:          8,
		TargetCount:    3,
		StatBudget:     120,
		ResourceBudget: 120,
		Pressure:       0.65,
		EconomyWeight:  0.35,
		ControlWeight:  0.6,
	},
	{
		ID:             "boss_siege",
		Label:          "Boss siege",
		Description:    "Long fight against one durable, hard-hitting target.",
		Turns:          14,
		TargetCount:    1,
		StatBudget:     160,
		ResourceBudget: 180,
		Pressure:       0.9,
		EconomyWeight:  0.2,
		ControlWeight:  0.3,
	},
	{
		ID:             "attrition_campaign",
		Label:          "Attrition campaign",
		Description:    "Many turns on a tight resource budget; sustain and efficiency matter.",
		Turns:          20,
		TargetCount:    2,
		StatBudget:     110,
		ResourceBudget: 90,
		Pressure:       0.45,
		EconomyWeight:  0.6,
		ControlWeight:  0.35,
	},
	{
		ID:             "market_economy",
		Label:          "Market economy",
		Description:    "Short, low-risk outings where rewards and prices dominate.",
		Turns:          5,
		TargetCount:    1,
		StatBudget:     80,
		ResourceBudget: 140,
		Pressure:       0.25,
		EconomyWeight:  0.9,
		ControlWeight:  0.2,
	},
}

// Scenarios returns a copy of the catalog in display order.
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarioCatalog))
	copy(out, scenarioCatalog)
	return out
}

// ScenarioByID returns the scenario with id, falling back to the first catalog entry.
// The boolean reports whether id matched.
func ScenarioByID(id string) (Scenario, bool) {
	for _, sc := range scenarioCatalog {
		if sc.ID == id {
			return sc, true
		}
	}
	return scenarioCatalog[0], false
}
