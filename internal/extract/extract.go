// Package extract pulls token usage out of raw provider payloads.
//
// DESIGN: Hosts that keep provider responses as raw JSON (proxies, transcript
// replayers) can use these functions directly as track extractors for
// []byte responses. Extraction never guesses: a body without a usage object
// is an error, and negative counts are rejected rather than clamped.
package extract

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/tokenmeter/tokenmeter/internal/track"
)

// OpenAI extracts usage from an OpenAI chat completion body
// (usage.prompt_tokens / usage.completion_tokens).
func OpenAI(body []byte) (track.Usage, error) {
	return usageFromBody(body, "usage.prompt_tokens", "usage.completion_tokens")
}

// Anthropic extracts usage from an Anthropic messages body
// (usage.input_tokens / usage.output_tokens).
func Anthropic(body []byte) (track.Usage, error) {
	return usageFromBody(body, "usage.input_tokens", "usage.output_tokens")
}

func usageFromBody(body []byte, inputPath, outputPath string) (track.Usage, error) {
	if !gjson.ValidBytes(body) {
		return track.Usage{}, fmt.Errorf("response body is not valid JSON")
	}

	in := gjson.GetBytes(body, inputPath)
	out := gjson.GetBytes(body, outputPath)
	if !in.Exists() || !out.Exists() {
		return track.Usage{}, fmt.Errorf("response body has no usage data at %s/%s", inputPath, outputPath)
	}
	if in.Int() < 0 || out.Int() < 0 {
		return track.Usage{}, fmt.Errorf("response body reports negative token counts (%d/%d)", in.Int(), out.Int())
	}

	return track.Usage{
		InputTokens:  int(in.Int()),
		OutputTokens: int(out.Int()),
	}, nil
}
