package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/tokenmeter/tokenmeter/internal/config"
	"github.com/tokenmeter/tokenmeter/internal/dashboard"
	"github.com/tokenmeter/tokenmeter/internal/export"
	"github.com/tokenmeter/tokenmeter/internal/ledger"
)

// usageEvent is one line of a usage JSONL file.
type usageEvent struct {
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Timestamp    time.Time `json:"timestamp"`
}

func runReplayCommand(args []string) {
	var (
		filePath   string
		configPath string
		dbPath     string
		outPath    string
		serveFlag  bool
		debugFlag  bool
	)

	i := 0
	for i < len(args) {
		switch args[i] {
		case "-f", "--file":
			filePath = flagValue(args, &i, "--file")
		case "-c", "--config":
			configPath = flagValue(args, &i, "--config")
		case "--db":
			dbPath = flagValue(args, &i, "--db")
		case "--out":
			outPath = flagValue(args, &i, "--out")
		case "--serve":
			serveFlag = true
			i++
		case "-d", "--debug":
			debugFlag = true
			i++
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown replay flag %q\n", args[i])
			os.Exit(1)
		}
	}

	setupLogging(debugFlag)

	if filePath == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		os.Exit(1)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	if dbPath != "" {
		cfg.Export.SQLitePath = dbPath
	}
	if outPath != "" {
		cfg.Export.JSONLPath = outPath
	}

	table, err := cfg.Table()
	if err != nil {
		log.Fatal().Err(err).Msg("building price table")
	}
	calc := ledger.NewCalculator(table)

	var jsonlWriter *export.JSONLWriter
	if cfg.Export.JSONLPath != "" {
		if jsonlWriter, err = export.NewJSONLWriter(cfg.Export.JSONLPath); err != nil {
			log.Fatal().Err(err).Msg("opening jsonl export")
		}
	}
	var store *export.Store
	if cfg.Export.SQLitePath != "" {
		if store, err = export.OpenStore(cfg.Export.SQLitePath); err != nil {
			log.Fatal().Err(err).Msg("opening sqlite store")
		}
		defer func() { _ = store.Close() }()
	}

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening usage file")
	}
	defer func() { _ = f.Close() }()

	replayed, skipped := replay(f, calc, jsonlWriter, store)
	log.Info().Int("replayed", replayed).Int("skipped", skipped).Msg("replay complete")

	printSummary(os.Stdout, calc.ID(), calc.Summary())

	if jsonlWriter != nil {
		if err := jsonlWriter.AppendSummary(calc.ID(), calc.Summary()); err != nil {
			log.Warn().Err(err).Msg("writing summary export")
		}
	}

	if serveFlag {
		srv := dashboard.NewServer(calc, nil)
		log.Info().Str("addr", cfg.Dashboard.Addr).Msg("serving cost dashboard")
		if err := http.ListenAndServe(cfg.Dashboard.Addr, srv.Routes()); err != nil {
			log.Fatal().Err(err).Msg("dashboard server failed")
		}
	}
}

// replay feeds each usage line through the calculator. Malformed lines and
// records the engine rejects are logged and skipped so one bad line does not
// abort an audit of the rest.
func replay(r io.Reader, calc *ledger.Calculator, jsonlWriter *export.JSONLWriter, store *export.Store) (replayed, skipped int) {
	ctx := context.Background()
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		ev, err := parseUsageLine([]byte(line))
		if err != nil {
			log.Warn().Err(err).Int("line", lineNo).Msg("skipping malformed usage line")
			skipped++
			continue
		}

		rec, err := calc.RecordCallAt(ev.Model, ev.InputTokens, ev.OutputTokens, ev.Timestamp)
		if err != nil {
			log.Warn().Err(err).Int("line", lineNo).Str("model", ev.Model).Msg("skipping unrecordable usage line")
			skipped++
			continue
		}
		replayed++

		if jsonlWriter != nil {
			if err := jsonlWriter.Append(calc.ID(), rec); err != nil {
				log.Warn().Err(err).Msg("jsonl export failed")
			}
		}
		if store != nil {
			if err := store.Record(ctx, calc.ID(), rec); err != nil {
				log.Warn().Err(err).Msg("sqlite export failed")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("reading usage file")
	}
	return replayed, skipped
}

// parseUsageLine decodes one usage JSONL line. A missing timestamp defaults
// to now; a missing model is an error.
func parseUsageLine(line []byte) (usageEvent, error) {
	var ev usageEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return usageEvent{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if ev.Model == "" {
		return usageEvent{}, fmt.Errorf("usage line has no model")
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	return ev, nil
}

// printSummary writes the session summary in a fixed-width box sized to the
// terminal.
func printSummary(w io.Writer, sessionID string, s ledger.Summary) {
	rule := strings.Repeat("=", summaryWidth())
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "LLM Usage Summary")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Session:             %s\n", sessionID)
	fmt.Fprintf(w, "Total API Calls:     %d\n", s.CallCount)
	fmt.Fprintf(w, "Total Input Tokens:  %d\n", s.TotalInputTokens)
	fmt.Fprintf(w, "Total Output Tokens: %d\n", s.TotalOutputTokens)
	fmt.Fprintf(w, "Total Cost:          $%s\n", s.TotalCost.StringFixed(6))
	fmt.Fprintln(w, rule)
}

func summaryWidth() int {
	const max = 60
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || w > max {
		return max
	}
	return w
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func flagValue(args []string, i *int, name string) string {
	if *i+1 >= len(args) {
		fmt.Fprintf(os.Stderr, "Error: %s requires a value\n", name)
		os.Exit(1)
	}
	v := args[*i+1]
	*i += 2
	return v
}
