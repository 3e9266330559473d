package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/tokenmeter/tokenmeter/internal/pricing"
)

// Calculator computes per-call costs and owns one session's ledger.
// Safe for concurrent use; RecordCall appends atomically.
type Calculator struct {
	id    string
	table *pricing.Table
	now   func() time.Time

	mu      sync.Mutex
	records []CostRecord
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithID sets the session id instead of a generated UUID.
func WithID(id string) Option {
	return func(c *Calculator) { c.id = id }
}

// WithClock sets the timestamp source. For tests and replay.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

// NewCalculator creates a Calculator for one logical session.
func NewCalculator(table *pricing.Table, opts ...Option) *Calculator {
	c := &Calculator{
		id:    uuid.NewString(),
		table: table,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the session id.
func (c *Calculator) ID() string {
	return c.id
}

// RecordCall prices one call and appends a CostRecord to the ledger.
// Negative token counts fail with InvalidUsageError; an unregistered model
// propagates pricing.UnknownModelError unchanged. On error the ledger is
// untouched.
func (c *Calculator) RecordCall(model string, inputTokens, outputTokens int) (CostRecord, error) {
	return c.RecordCallAt(model, inputTokens, outputTokens, c.now())
}

// RecordCallAt is RecordCall with an explicit timestamp, for replaying
// usage logs recorded elsewhere.
func (c *Calculator) RecordCallAt(model string, inputTokens, outputTokens int, ts time.Time) (CostRecord, error) {
	if inputTokens < 0 {
		return CostRecord{}, &InvalidUsageError{Field: "input_tokens", Value: inputTokens}
	}
	if outputTokens < 0 {
		return CostRecord{}, &InvalidUsageError{Field: "output_tokens", Value: outputTokens}
	}

	rates, err := c.table.RateFor(model)
	if err != nil {
		return CostRecord{}, err
	}

	inputCost := tokenCost(inputTokens, rates.InputPerMTok)
	outputCost := tokenCost(outputTokens, rates.OutputPerMTok)
	rec := CostRecord{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		InputCost:    inputCost,
		OutputCost:   outputCost,
		TotalCost:    inputCost.Add(outputCost).RoundBank(costScale),
		Timestamp:    ts,
	}

	c.mu.Lock()
	c.records = append(c.records, rec)
	c.mu.Unlock()

	log.Debug().
		Str("session", c.id).
		Str("model", model).
		Int("input_tokens", inputTokens).
		Int("output_tokens", outputTokens).
		Str("cost_usd", rec.TotalCost.String()).
		Msg("recorded llm call")

	return rec, nil
}

// Summary returns a read-only snapshot over the current ledger state.
// Totals are sums of the already-rounded stored values.
func (c *Calculator) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{TotalCost: decimal.Zero}
	for _, r := range c.records {
		s.CallCount++
		s.TotalInputTokens += int64(r.InputTokens)
		s.TotalOutputTokens += int64(r.OutputTokens)
		s.TotalCost = s.TotalCost.Add(r.TotalCost)
	}
	return s
}

// Records returns a copy of the ledger in insertion order.
func (c *Calculator) Records() []CostRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]CostRecord, len(c.records))
	copy(out, c.records)
	return out
}
