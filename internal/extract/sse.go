package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tokenmeter/tokenmeter/internal/track"
)

const sseBufferSize = 4096

type sseUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type ssePayload struct {
	Usage   sseUsage `json:"usage"`
	Message struct {
		Usage sseUsage `json:"usage"`
	} `json:"message"`
}

// SSEParser incrementally parses Anthropic-style SSE events and accumulates
// usage. Input tokens arrive on message_start, output tokens grow across
// message_delta events. It only reads structured "data: {json}" events to
// avoid false positives from arbitrary text containing token-like key names.
type SSEParser struct {
	buffer []byte
	usage  track.Usage
	seen   bool
}

// NewSSEParser creates an SSE usage parser.
func NewSSEParser() *SSEParser {
	return &SSEParser{
		buffer: make([]byte, 0, sseBufferSize),
	}
}

// Feed appends a stream chunk and parses any completed events.
func (p *SSEParser) Feed(chunk []byte) {
	p.buffer = append(p.buffer, chunk...)
	p.parse(false)
}

// Usage flushes the buffer and returns the accumulated usage. It fails if no
// event in the stream carried usage data.
func (p *SSEParser) Usage() (track.Usage, error) {
	p.parse(true)
	if !p.seen {
		return track.Usage{}, fmt.Errorf("stream carried no usage data")
	}
	return p.usage, nil
}

func (p *SSEParser) parse(flush bool) {
	for {
		event, rest, ok := nextSSEEvent(p.buffer, flush)
		if !ok {
			return
		}
		p.buffer = rest
		p.parseEvent(event)
	}
}

func nextSSEEvent(buf []byte, flush bool) ([]byte, []byte, bool) {
	if idx := bytes.Index(buf, []byte("\r\n\r\n")); idx >= 0 {
		return buf[:idx], buf[idx+4:], true
	}
	if idx := bytes.Index(buf, []byte("\n\n")); idx >= 0 {
		return buf[:idx], buf[idx+2:], true
	}
	if flush {
		trimmed := bytes.TrimSpace(buf)
		if len(trimmed) > 0 {
			return trimmed, nil, true
		}
	}
	return nil, nil, false
}

func (p *SSEParser) parseEvent(event []byte) {
	lines := bytes.Split(event, []byte("\n"))
	dataLines := make([][]byte, 0, 2)

	for _, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		payload := bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:")))
		if len(payload) == 0 || bytes.Equal(payload, []byte("[DONE]")) {
			continue
		}
		dataLines = append(dataLines, payload)
	}

	if len(dataLines) == 0 {
		return
	}

	var payload ssePayload
	if err := json.Unmarshal(bytes.Join(dataLines, []byte("\n")), &payload); err != nil {
		return
	}

	p.applyUsage(payload.Message.Usage)
	p.applyUsage(payload.Usage)
}

func (p *SSEParser) applyUsage(u sseUsage) {
	if u.InputTokens > 0 {
		p.usage.InputTokens = u.InputTokens
		p.seen = true
	}
	if u.OutputTokens > p.usage.OutputTokens {
		p.usage.OutputTokens = u.OutputTokens
		p.seen = true
	}
}
