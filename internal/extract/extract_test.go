package extract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/tokenmeter/tokenmeter/internal/ledger"
)

func TestOpenAI(t *testing.T) {
	body := []byte(`{
		"id": "chatcmpl-123",
		"choices": [{"message": {"content": "hi"}}],
		"usage": {"prompt_tokens": 1000, "completion_tokens": 500, "total_tokens": 1500}
	}`)

	usage, err := OpenAI(body)
	require.NoError(t, err)
	assert.Equal(t, 1000, usage.InputTokens)
	assert.Equal(t, 500, usage.OutputTokens)
}

func TestAnthropic(t *testing.T) {
	body := []byte(`{
		"id": "msg_123",
		"content": [{"type": "text", "text": "hi"}],
		"usage": {"input_tokens": 123, "output_tokens": 45}
	}`)

	usage, err := Anthropic(body)
	require.NoError(t, err)
	assert.Equal(t, 123, usage.InputTokens)
	assert.Equal(t, 45, usage.OutputTokens)
}

func TestUsageMissing(t *testing.T) {
	_, err := OpenAI([]byte(`{"id": "chatcmpl-123"}`))
	assert.Error(t, err)

	// Partial usage is also an error, never defaulted to zero
	_, err = OpenAI([]byte(`{"usage": {"prompt_tokens": 10}}`))
	assert.Error(t, err)
}

func TestInvalidJSON(t *testing.T) {
	_, err := Anthropic([]byte(`not json`))
	assert.Error(t, err)
}

func TestNegativeCounts(t *testing.T) {
	_, err := Anthropic([]byte(`{"usage": {"input_tokens": -1, "output_tokens": 5}}`))
	assert.Error(t, err)
}

func TestAnnotateCost(t *testing.T) {
	rec := ledger.CostRecord{
		Model:        "gpt-4o",
		InputTokens:  1000,
		OutputTokens: 500,
		InputCost:    decimal.RequireFromString("0.005"),
		OutputCost:   decimal.RequireFromString("0.0075"),
		TotalCost:    decimal.RequireFromString("0.0125"),
		Timestamp:    time.Now(),
	}

	body := []byte(`{"id": "chatcmpl-123", "usage": {"prompt_tokens": 1000, "completion_tokens": 500}}`)
	annotated, err := AnnotateCost(body, rec)
	require.NoError(t, err)

	assert.Equal(t, "0.005", gjson.GetBytes(annotated, "cost.input_usd").String())
	assert.Equal(t, "0.0075", gjson.GetBytes(annotated, "cost.output_usd").String())
	assert.Equal(t, "0.0125", gjson.GetBytes(annotated, "cost.total_usd").String())
	// Original fields untouched
	assert.Equal(t, "chatcmpl-123", gjson.GetBytes(annotated, "id").String())
	assert.Equal(t, int64(1000), gjson.GetBytes(annotated, "usage.prompt_tokens").Int())
}
