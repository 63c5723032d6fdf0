// balance is a deterministic Monte Carlo evaluator for game-content balance.
//
// Usage:
//
//	balance [command] [options]
//
// Commands:
//
//	simulate   - Evaluate one entity under one scenario
//	scenarios  - List the scenario catalog
//	sweep      - Evaluate every entity under every scenario
//	import     - Copy YAML fixtures into the entity store
//	list       - List the records of one kind in the entity store
//	save       - Save one record from a file into the entity store
//	delete     - Remove one record from the entity store
//	serve      - Run the HTTP/WebSocket service
//	hash-token - Print the bcrypt hash for an admin token
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "simulate":
		err = runSimulate(os.Args[2:])
	case "scenarios":
		err = runScenarios(os.Args[2:])
	case "sweep":
		err = runSweep(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	case "save":
		err = runSave(os.Args[2:])
	case "delete":
		err = runDelete(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "hash-token":
		err = runHashToken(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "balance %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Balance Simulator

Deterministic Monte Carlo scoring for abilities, items, effects, encounters,
combat profiles and characters.

Usage: balance <command> [options]

Commands:
  simulate    Evaluate one entity under one scenario
  scenarios   List the scenario catalog
  sweep       Evaluate every entity under every scenario
  import      Copy YAML fixtures into the entity store
  list        List the records of one kind in the entity store
  save        Save one record from a file into the entity store
  delete      Remove one record from the entity store
  serve       Run the HTTP/WebSocket service
  hash-token  Print the bcrypt hash for an admin token

Examples:
  balance simulate -kind=abilities -id=fireball -scenario=boss_siege -runs=500
  balance simulate -kind=items -file=draft_sword.yaml -json
  balance sweep -kinds=abilities,items -scenarios=duel_baseline
  balance import -dir=data/datasets -config=data/balance.yaml
  balance save -kind=items -file=draft_sword.yaml
  balance delete -kind=items -id=draft_sword
  balance serve -config=data/balance.yaml

Use "balance <command> -h" for more information about a command.`)
}
