package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tokenmeter/tokenmeter/internal/estimate"
)

func runEstimateCommand(args []string) {
	var (
		model      string
		prompt     string
		configPath string
		debugFlag  bool
	)

	i := 0
	for i < len(args) {
		switch args[i] {
		case "-m", "--model":
			model = flagValue(args, &i, "--model")
		case "-p", "--prompt":
			prompt = flagValue(args, &i, "--prompt")
		case "-c", "--config":
			configPath = flagValue(args, &i, "--config")
		case "-d", "--debug":
			debugFlag = true
			i++
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown estimate flag %q\n", args[i])
			os.Exit(1)
		}
	}

	setupLogging(debugFlag)

	if model == "" || prompt == "" {
		fmt.Fprintln(os.Stderr, "Error: --model and --prompt are required")
		os.Exit(1)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	table, err := cfg.Table()
	if err != nil {
		log.Fatal().Err(err).Msg("building price table")
	}

	cost, err := estimate.InputCost(table, model, prompt)
	if err != nil {
		log.Fatal().Err(err).Str("model", model).Msg("estimating cost")
	}

	fmt.Printf("Model:            %s\n", model)
	fmt.Printf("Estimated tokens: %d\n", estimate.Tokens(model, prompt))
	fmt.Printf("Input cost:       $%s\n", cost.StringFixed(6))
}
