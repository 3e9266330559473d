// Package ledger implements per-session cost accounting.
//
// DESIGN: A Calculator owns an append-only in-memory ledger of CostRecords,
// one record per tracked call. Records are never edited or removed; a
// correction is a new record. All monetary arithmetic is exact decimal
// (shopspring/decimal) and each cost component is rounded to 6 decimal places
// with round-half-to-even at record time, so summary totals are plain sums of
// stored values with no float drift.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// costScale is the number of decimal places kept per cost component.
const costScale = 6

// CostRecord captures the accounting facts of one call. Immutable once built.
type CostRecord struct {
	Model        string          `json:"model"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	InputCost    decimal.Decimal `json:"input_cost"`
	OutputCost   decimal.Decimal `json:"output_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Summary aggregates the ledger. An empty ledger sums to zero values.
type Summary struct {
	CallCount         int             `json:"call_count"`
	TotalInputTokens  int64           `json:"total_input_tokens"`
	TotalOutputTokens int64           `json:"total_output_tokens"`
	TotalCost         decimal.Decimal `json:"total_cost"`
}

// InvalidUsageError reports a negative token count passed to RecordCall.
type InvalidUsageError struct {
	Field string
	Value int
}

func (e *InvalidUsageError) Error() string {
	return fmt.Sprintf("%s must be >= 0, got %d", e.Field, e.Value)
}

// tokenCost prices a token count at a per-million rate, rounded half-to-even
// to costScale places. Shift(-6) divides by 1e6 exactly.
func tokenCost(tokens int, ratePerMTok decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(tokens)).Shift(-6).Mul(ratePerMTok).RoundBank(costScale)
}
