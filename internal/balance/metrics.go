package balance

import (
	"fmt"
	"math"
)

// Metrics holds the eight normalized scores of one evaluation, each in [0,100].
type Metrics struct {
	Power         float64 `json:"power"`
	Value         float64 `json:"value"`
	Influence     float64 `json:"influence"`
	DPS           float64 `json:"dps"`
	Survivability float64 `json:"survivability"`
	Control       float64 `json:"control"`
	Economy       float64 `json:"economy"`
	Consistency   float64 `json:"consistency"`
}

// Each returns the metrics as name/value pairs in display order.
func (m Metrics) Each() []NamedScore {
	return []NamedScore{
		{"power", m.Power},
		{"value", m.Value},
		{"influence", m.Influence},
		{"dps", m.DPS},
		{"survivability", m.Survivability},
		{"control", m.Control},
		{"economy", m.Economy},
		{"consistency", m.Consistency},
	}
}

// NamedScore pairs a metric name with its score.
type NamedScore struct {
	Name  string
	Score float64
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Score maps a raw aggregate onto [0,100] by dividing through pivot.
func Score(raw, pivot float64) float64 {
	if pivot <= 0 {
		return 0
	}
	return clamp(raw/pivot*100, 0, 100)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var acc float64
	for _, x := range xs {
		d := x - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(xs)))
}

// Consistency scores the spread of samples: 100 when every run agrees, 0 once the
// standard deviation reaches the mean. Samples with no positive mean score 0.
func Consistency(samples []float64) float64 {
	m := mean(samples)
	if m <= 0 {
		return 0
	}
	return clamp(100-(stddev(samples)/m)*100, 0, 100)
}

// Verdicts returned by Verdict.
const (
	VerdictStrong     = "strong"
	VerdictBalanced   = "balanced"
	VerdictUnderTuned = "under-tuned"
)

// Verdict classifies a headline score.
func Verdict(score float64) string {
	switch {
	case score >= 75:
		return VerdictStrong
	case score >= 45:
		return VerdictBalanced
	default:
		return VerdictUnderTuned
	}
}

// Summarize renders the one-line verdict for a result, taken from the highest of
// power, value and influence.
func Summarize(r Result) string {
	best := NamedScore{"power", r.Metrics.Power}
	if r.Metrics.Value > best.Score {
		best = NamedScore{"value", r.Metrics.Value}
	}
	if r.Metrics.Influence > best.Score {
		best = NamedScore{"influence", r.Metrics.Influence}
	}
	return fmt.Sprintf("%s looks %s in %s (%s %.0f/100).",
		r.EntityLabel, Verdict(best.Score), r.ScenarioID, best.Name, best.Score)
}

// series collects per-iteration samples of the raw signals.
type series struct {
	samples map[string][]float64
	runs    int
}

func newSeries(runs int) *series {
	return &series{samples: make(map[string][]float64), runs: runs}
}

func (s *series) add(signal string, v float64) {
	list, ok := s.samples[signal]
	if !ok {
		list = make([]float64, 0, s.runs)
	}
	s.samples[signal] = append(list, v)
}

func (s *series) mean(signal string) float64 {
	return mean(s.samples[signal])
}

func (s *series) consistency(signal string) float64 {
	return Consistency(s.samples[signal])
}

// evaluation is what an entity evaluator hands back to the orchestrator.
type evaluation struct {
	Metrics  Metrics
	Warnings []string
	Notes    []string
}

func (e *evaluation) warn(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

func (e *evaluation) note(format string, args ...any) {
	e.Notes = append(e.Notes, fmt.Sprintf(format, args...))
}
