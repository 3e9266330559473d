package main

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenmeter/tokenmeter/internal/ledger"
	"github.com/tokenmeter/tokenmeter/internal/pricing"
)

func TestParseUsageLine(t *testing.T) {
	ev, err := parseUsageLine([]byte(`{"model":"gpt-4o","input_tokens":1000,"output_tokens":500,"timestamp":"2026-03-01T12:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", ev.Model)
	assert.Equal(t, 1000, ev.InputTokens)
	assert.Equal(t, 500, ev.OutputTokens)
	assert.True(t, ev.Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestParseUsageLine_DefaultsTimestamp(t *testing.T) {
	ev, err := parseUsageLine([]byte(`{"model":"gpt-4o","input_tokens":1,"output_tokens":2}`))
	require.NoError(t, err)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestParseUsageLine_Errors(t *testing.T) {
	_, err := parseUsageLine([]byte(`not json`))
	assert.Error(t, err)

	_, err = parseUsageLine([]byte(`{"input_tokens":1,"output_tokens":2}`))
	assert.Error(t, err, "missing model must not default")
}

func TestReplay_SkipsBadLines(t *testing.T) {
	table, err := pricing.New([]pricing.Entry{{
		Model:         "gpt-4o",
		InputPerMTok:  decimal.RequireFromString("2.50"),
		OutputPerMTok: decimal.RequireFromString("10.00"),
	}})
	require.NoError(t, err)
	calc := ledger.NewCalculator(table)

	input := strings.Join([]string{
		`{"model":"gpt-4o","input_tokens":1000,"output_tokens":500}`,
		``,
		`garbage`,
		`{"model":"unpriced","input_tokens":10,"output_tokens":10}`,
		`{"model":"gpt-4o","input_tokens":-5,"output_tokens":0}`,
		`{"model":"gpt-4o","input_tokens":200,"output_tokens":100}`,
	}, "\n")

	replayed, skipped := replay(strings.NewReader(input), calc, nil, nil)
	assert.Equal(t, 2, replayed)
	assert.Equal(t, 3, skipped)
	assert.Len(t, calc.Records(), 2)
}

func TestPrintSummary(t *testing.T) {
	var b strings.Builder
	printSummary(&b, "session-1", ledger.Summary{
		CallCount:         2,
		TotalInputTokens:  1200,
		TotalOutputTokens: 600,
		TotalCost:         decimal.RequireFromString("0.025"),
	})

	out := b.String()
	assert.Contains(t, out, "LLM Usage Summary")
	assert.Contains(t, out, "Total API Calls:     2")
	assert.Contains(t, out, "$0.025000")
	assert.Contains(t, out, "session-1")
}
