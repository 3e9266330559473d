package estimate

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenmeter/tokenmeter/internal/pricing"
)

type stubEncoder struct {
	tokensPerCall int
}

func (s stubEncoder) Encode(string, []string, []string) []int {
	return make([]int, s.tokensPerCall)
}

func withStubEncoding(t *testing.T, enc encoder, err error) {
	t.Helper()
	orig := loadEncoding
	loadEncoding = func(string) (encoder, error) { return enc, err }
	t.Cleanup(func() { loadEncoding = orig })
}

func TestTokens_UsesEncoding(t *testing.T) {
	withStubEncoding(t, stubEncoder{tokensPerCall: 11}, nil)
	assert.Equal(t, 11, Tokens("gpt-4o", "some prompt"))
}

func TestTokens_FallbackHeuristic(t *testing.T) {
	withStubEncoding(t, nil, fmt.Errorf("no encoding"))

	// 10 chars at ~4 chars/token rounds up to 3
	assert.Equal(t, 3, Tokens("mystery-model", strings.Repeat("a", 10)))
	assert.Equal(t, 1, Tokens("mystery-model", "ab"))
	assert.Equal(t, 0, Tokens("mystery-model", ""))
}

func TestInputCost(t *testing.T) {
	withStubEncoding(t, stubEncoder{tokensPerCall: 1000}, nil)

	table, err := pricing.New([]pricing.Entry{{
		Model:         "gpt-4o",
		InputPerMTok:  decimal.RequireFromString("2.50"),
		OutputPerMTok: decimal.RequireFromString("10.00"),
	}})
	require.NoError(t, err)

	cost, err := InputCost(table, "gpt-4o", "a long prompt")
	require.NoError(t, err)
	assert.Equal(t, "0.0025", cost.String())
}

func TestInputCost_UnknownModel(t *testing.T) {
	withStubEncoding(t, stubEncoder{tokensPerCall: 10}, nil)

	table, err := pricing.New(nil)
	require.NoError(t, err)

	_, err = InputCost(table, "nope", "prompt")
	var unknownErr *pricing.UnknownModelError
	assert.True(t, errors.As(err, &unknownErr))
}
