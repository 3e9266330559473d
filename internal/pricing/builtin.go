// Package pricing - builtin.go ships the default price table.
//
// Rates are USD per million tokens, current as of the last release. Hosts with
// newer or custom models should supply their own entries via config.
package pricing

import "github.com/shopspring/decimal"

// builtinRates lists the models priced out of the box.
var builtinRates = map[string]Rates{
	// OpenAI
	"gpt-4o":        mustRates("2.50", "10.00"),
	"gpt-4o-mini":   mustRates("0.15", "0.60"),
	"gpt-4-turbo":   mustRates("10.00", "30.00"),
	"gpt-4":         mustRates("30.00", "60.00"),
	"gpt-3.5-turbo": mustRates("0.50", "1.50"),

	// Anthropic (dated)
	"claude-sonnet-4-5-20250929": mustRates("3.00", "15.00"),
	"claude-haiku-4-5-20251001":  mustRates("1.00", "5.00"),
	"claude-3-5-sonnet-20241022": mustRates("3.00", "15.00"),
	"claude-3-5-haiku-20241022":  mustRates("1.00", "5.00"),
	"claude-3-haiku-20240307":    mustRates("0.25", "1.25"),

	// Anthropic short aliases
	"claude-opus-4":     mustRates("15.00", "75.00"),
	"claude-sonnet-4-5": mustRates("3.00", "15.00"),
	"claude-haiku-4-5":  mustRates("1.00", "5.00"),
}

// Builtin returns a Table with the default rates.
func Builtin() *Table {
	rates := make(map[string]Rates, len(builtinRates))
	for m, r := range builtinRates {
		rates[m] = r
	}
	return &Table{rates: rates}
}

func mustRates(input, output string) Rates {
	return Rates{
		InputPerMTok:  decimal.RequireFromString(input),
		OutputPerMTok: decimal.RequireFromString(output),
	}
}
