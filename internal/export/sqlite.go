package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/tokenmeter/tokenmeter/internal/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS cost_records (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	model         TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	input_cost    TEXT NOT NULL,
	output_cost   TEXT NOT NULL,
	total_cost    TEXT NOT NULL,
	timestamp     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cost_records_session ON cost_records(session_id);
`

// Store persists cost records to SQLite. Costs are stored as decimal strings,
// never floats, and summed in Go so stored and summed values match the ledger
// exactly.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the database at path and ensures the schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cost store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing cost store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts one cost record for a session.
func (s *Store) Record(ctx context.Context, sessionID string, rec ledger.CostRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cost_records
			(session_id, model, input_tokens, output_tokens, input_cost, output_cost, total_cost, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, rec.Model, rec.InputTokens, rec.OutputTokens,
		rec.InputCost.String(), rec.OutputCost.String(), rec.TotalCost.String(),
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting cost record: %w", err)
	}
	return nil
}

// Records returns a session's records in insertion order.
func (s *Store) Records(ctx context.Context, sessionID string) ([]ledger.CostRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model, input_tokens, output_tokens, input_cost, output_cost, total_cost, timestamp
		FROM cost_records WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying cost records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []ledger.CostRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Summary aggregates a session's stored records.
func (s *Store) Summary(ctx context.Context, sessionID string) (ledger.Summary, error) {
	records, err := s.Records(ctx, sessionID)
	if err != nil {
		return ledger.Summary{}, err
	}

	sum := ledger.Summary{TotalCost: decimal.Zero}
	for _, r := range records {
		sum.CallCount++
		sum.TotalInputTokens += int64(r.InputTokens)
		sum.TotalOutputTokens += int64(r.OutputTokens)
		sum.TotalCost = sum.TotalCost.Add(r.TotalCost)
	}
	return sum, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanRecord(rows *sql.Rows) (ledger.CostRecord, error) {
	var (
		rec                              ledger.CostRecord
		inputCost, outputCost, totalCost string
		timestamp                        string
	)
	if err := rows.Scan(&rec.Model, &rec.InputTokens, &rec.OutputTokens,
		&inputCost, &outputCost, &totalCost, &timestamp); err != nil {
		return ledger.CostRecord{}, fmt.Errorf("scanning cost record: %w", err)
	}

	var err error
	if rec.InputCost, err = decimal.NewFromString(inputCost); err != nil {
		return ledger.CostRecord{}, fmt.Errorf("parsing stored input cost: %w", err)
	}
	if rec.OutputCost, err = decimal.NewFromString(outputCost); err != nil {
		return ledger.CostRecord{}, fmt.Errorf("parsing stored output cost: %w", err)
	}
	if rec.TotalCost, err = decimal.NewFromString(totalCost); err != nil {
		return ledger.CostRecord{}, fmt.Errorf("parsing stored total cost: %w", err)
	}
	if rec.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp); err != nil {
		return ledger.CostRecord{}, fmt.Errorf("parsing stored timestamp: %w", err)
	}
	return rec, nil
}
