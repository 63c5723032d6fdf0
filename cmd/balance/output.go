package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/fabolze/SoAWebApp-sub000/internal/balance"
	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(r balance.Result) {
	fmt.Printf("=== %s: %s (%s) ===\n", r.SchemaName, r.EntityLabel, r.EntityID)
	fmt.Printf("Scenario: %s   Runs: %d   Seed: %d\n", r.ScenarioID, r.Runs, r.Seed)
	fmt.Println()
	for _, m := range r.Metrics.Each() {
		fmt.Printf("  %-14s %s\n", m.Name+":", colorScore(m.Score))
	}
	fmt.Println()
	fmt.Println(r.Summary)

	if len(r.Warnings) > 0 {
		fmt.Println()
		fmt.Println("Warnings:")
		for _, w := range r.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	if len(r.Notes) > 0 {
		fmt.Println()
		fmt.Println("Notes:")
		for _, n := range r.Notes {
			fmt.Printf("  - %s\n", n)
		}
	}
}

func printScenarios(scenarios []balance.Scenario) {
	fmt.Printf("%-20s %5s %7s %8s  %s\n", "ID", "TURNS", "TARGETS", "PRESSURE", "DESCRIPTION")
	for _, sc := range scenarios {
		fmt.Printf("%-20s %5d %7d %8.2f  %s\n", sc.ID, sc.Turns, sc.TargetCount, sc.Pressure, sc.Description)
	}
}

func printRecords(kind entity.Kind, records []entity.Record) {
	fmt.Printf("%-24s %s\n", "ID", "NAME")
	for _, rec := range records {
		fmt.Printf("%-24s %s\n", truncate(rec.ID(), 24), rec.Label(kind))
	}
	fmt.Printf("\n%d %s\n", len(records), kind)
}

func printSweep(results []balance.Result) {
	fmt.Printf("=== Balance Sweep (%d evaluations) ===\n\n", len(results))
	fmt.Printf("%-16s %-24s %-20s %7s %7s %9s %8s\n", "KIND", "ENTITY", "SCENARIO", "POWER", "VALUE", "INFLUENCE", "WARNINGS")
	fmt.Println(strings.Repeat("-", 97))
	for _, r := range results {
		fmt.Printf("%-16s %-24s %-20s %s %s %s %8d\n",
			r.SchemaName, truncate(r.EntityID, 24), r.ScenarioID,
			pad(colorScore(r.Metrics.Power), r.Metrics.Power, 7),
			pad(colorScore(r.Metrics.Value), r.Metrics.Value, 7),
			pad(colorScore(r.Metrics.Influence), r.Metrics.Influence, 9),
			len(r.Warnings))
	}
}

// colorScore formats a 0-100 score, tinted by verdict on a terminal.
func colorScore(score float64) string {
	text := fmt.Sprintf("%.1f", score)
	if !isTerminal() {
		return text
	}
	switch balance.Verdict(score) {
	case balance.VerdictStrong:
		return "\033[32m" + text + "\033[0m"
	case balance.VerdictBalanced:
		return "\033[33m" + text + "\033[0m"
	default:
		return "\033[31m" + text + "\033[0m"
	}
}

// pad right-aligns a possibly colored score to width visible columns.
func pad(s string, score float64, width int) string {
	visible := len(fmt.Sprintf("%.1f", score))
	if visible >= width {
		return s
	}
	return strings.Repeat(" ", width-visible) + s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && os.Getenv("NO_COLOR") == ""
}
