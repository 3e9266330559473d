// Package pricing defines the per-model price table.
//
// DESIGN: A Table is immutable process-wide configuration, built once at
// startup from host-supplied entries (or the builtin defaults). Lookups are
// exact: an unknown model is an UnknownModelError, never a guessed fallback
// rate, since silent mispricing defeats the purpose of cost tracking.
package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Rates holds per-million-token pricing for a model.
type Rates struct {
	InputPerMTok  decimal.Decimal // USD per million input tokens
	OutputPerMTok decimal.Decimal // USD per million output tokens
}

// Entry is one price table row as supplied by the host application.
type Entry struct {
	Model         string
	InputPerMTok  decimal.Decimal
	OutputPerMTok decimal.Decimal
}

// UnknownModelError reports a lookup for a model absent from the table.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("model %q not found in price table", e.Model)
}

// Table maps model identifiers to their rates. Immutable after construction.
type Table struct {
	rates map[string]Rates
}

// New builds a Table from entries. Entries must have a non-empty model id,
// non-negative rates, and no duplicates.
func New(entries []Entry) (*Table, error) {
	rates := make(map[string]Rates, len(entries))
	for _, e := range entries {
		if e.Model == "" {
			return nil, fmt.Errorf("price table entry with empty model id")
		}
		if e.InputPerMTok.IsNegative() {
			return nil, fmt.Errorf("model %q: input rate must be >= 0, got %s", e.Model, e.InputPerMTok)
		}
		if e.OutputPerMTok.IsNegative() {
			return nil, fmt.Errorf("model %q: output rate must be >= 0, got %s", e.Model, e.OutputPerMTok)
		}
		if _, dup := rates[e.Model]; dup {
			return nil, fmt.Errorf("duplicate price table entry for model %q", e.Model)
		}
		rates[e.Model] = Rates{InputPerMTok: e.InputPerMTok, OutputPerMTok: e.OutputPerMTok}
	}
	return &Table{rates: rates}, nil
}

// RateFor returns the rates for model, or an UnknownModelError.
func (t *Table) RateFor(model string) (Rates, error) {
	if r, ok := t.rates[model]; ok {
		return r, nil
	}
	return Rates{}, &UnknownModelError{Model: model}
}

// Models returns the registered model ids, sorted.
func (t *Table) Models() []string {
	models := make([]string, 0, len(t.rates))
	for m := range t.rates {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

// Len returns the number of registered models.
func (t *Table) Len() int {
	return len(t.rates)
}
