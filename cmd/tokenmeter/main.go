// Command tokenmeter replays usage logs through the cost engine and serves
// the session cost dashboard.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Optional .env for local runs; absence is fine
	_ = godotenv.Load()

	args := os.Args[1:]
	if len(args) == 0 {
		printHelp()
		os.Exit(1)
	}

	switch args[0] {
	case "replay":
		runReplayCommand(args[1:])
	case "estimate":
		runEstimateCommand(args[1:])
	case "-h", "--help", "help":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		printHelp()
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func printHelp() {
	fmt.Print(`tokenmeter - LLM cost accounting

Usage:
  tokenmeter replay --file <usage.jsonl> [options]
  tokenmeter estimate --model <id> --prompt <text> [options]

Replay options:
  -f, --file <path>     Usage JSONL file to replay (required)
  -c, --config <path>   YAML config file
      --db <path>       Also persist records to a SQLite store
      --out <path>      Also append records to a JSONL export
      --serve           Serve the cost dashboard after replaying
  -d, --debug           Debug logging

Estimate options:
  -m, --model <id>      Model to price (required)
  -p, --prompt <text>   Prompt text to estimate (required)
  -c, --config <path>   YAML config file
`)
}
