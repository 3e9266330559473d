// Package estimate provides pre-call cost estimation from prompt text.
//
// DESIGN: Before a call runs there is no usage object to extract, so the
// input side is estimated by tokenizing the prompt with tiktoken. When no
// encoding is available for a model (or the encoding cannot be loaded), the
// chars-per-token heuristic keeps estimates usable rather than failing.
// Estimates are advisory; the ledger only ever records reported usage.
package estimate

import (
	"github.com/pkoukk/tiktoken-go"
	"github.com/shopspring/decimal"

	"github.com/tokenmeter/tokenmeter/internal/pricing"
)

// charsPerToken is the approximate characters-per-token ratio used when no
// exact encoding is available.
const charsPerToken = 4

const fallbackEncoding = "cl100k_base"

type encoder interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
}

// loadEncoding resolves the encoder for a model. Overridable in tests.
var loadEncoding = func(model string) (encoder, error) {
	if enc, err := tiktoken.EncodingForModel(model); err == nil {
		return enc, nil
	}
	return tiktoken.GetEncoding(fallbackEncoding)
}

// Tokens estimates the token count of text for model.
func Tokens(model, text string) int {
	enc, err := loadEncoding(model)
	if err != nil {
		return heuristicTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// heuristicTokens is the chars/4 fallback, rounded up.
func heuristicTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// InputCost estimates the input-side cost of sending prompt to model, rounded
// half-to-even to 6 decimal places. An unregistered model propagates
// pricing.UnknownModelError.
func InputCost(table *pricing.Table, model, prompt string) (decimal.Decimal, error) {
	rates, err := table.RateFor(model)
	if err != nil {
		return decimal.Zero, err
	}
	tokens := Tokens(model, prompt)
	return decimal.NewFromInt(int64(tokens)).Shift(-6).Mul(rates.InputPerMTok).RoundBank(6), nil
}
