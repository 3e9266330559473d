// Package export writes ledger data to durable collaborator stores.
//
// DESIGN: The core ledger is in-memory only; persistence is a collaborator
// concern. Two exporters are provided:
//   - JSONLWriter: appends one record per line immediately, for tailing
//   - Store:       SQLite-backed history with per-session summaries
package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tokenmeter/tokenmeter/internal/ledger"
)

// recordEvent is the JSONL line shape for one cost record.
type recordEvent struct {
	SessionID string `json:"session_id"`
	ledger.CostRecord
}

// summaryEvent is the JSONL line shape for a session summary.
type summaryEvent struct {
	SessionID string `json:"session_id"`
	WrittenAt time.Time `json:"written_at"`
	ledger.Summary
}

// JSONLWriter appends cost records to a JSONL file, one object per line,
// flushed after each record for real-time tailing.
type JSONLWriter struct {
	path string
	mu   sync.Mutex
}

// NewJSONLWriter creates the file (and parent directories) if needed.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		_ = f.Close()
	}
	return &JSONLWriter{path: path}, nil
}

// Append writes one cost record line.
func (w *JSONLWriter) Append(sessionID string, rec ledger.CostRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return appendJSONL(w.path, recordEvent{SessionID: sessionID, CostRecord: rec})
}

// AppendSummary writes a session summary line.
func (w *JSONLWriter) AppendSummary(sessionID string, s ledger.Summary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return appendJSONL(w.path, summaryEvent{SessionID: sessionID, WrittenAt: time.Now(), Summary: s})
}

// appendJSONL appends a single JSON object as a line to the file.
func appendJSONL(path string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = f.Write(data)
	return err
}
