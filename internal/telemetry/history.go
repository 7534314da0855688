package telemetry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// History is the durable takeoff-attempt log, backed by a single-table
// sqlite database so it survives restarts and stays inspectable with any
// sqlite CLI.
type History struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS attempts (
	id      TEXT PRIMARY KEY,
	started TEXT NOT NULL,
	ended   TEXT NOT NULL,
	outcome TEXT NOT NULL,
	record  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS attempts_started ON attempts (started);
`

// OpenHistory opens (creating if needed) the attempt history at path.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: mkdir history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open history: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("telemetry: create schema: %w", err)
	}
	return &History{db: db}, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

// Append stores one finalized attempt record.
func (h *History) Append(rec Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("telemetry: marshal record: %w", err)
	}
	_, err = h.db.Exec(
		`INSERT INTO attempts (id, started, ended, outcome, record) VALUES (?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Started.UTC().Format(time.RFC3339Nano),
		rec.Ended.UTC().Format(time.RFC3339Nano),
		string(rec.Outcome),
		string(blob),
	)
	if err != nil {
		return fmt.Errorf("telemetry: insert attempt: %w", err)
	}
	return nil
}

// LastN returns up to n most recent attempts in chronological order.
func (h *History) LastN(n int) ([]Record, error) {
	rows, err := h.db.Query(
		`SELECT record FROM attempts ORDER BY started DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("telemetry: query attempts: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("telemetry: scan attempt: %w", err)
		}
		var rec Record
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			return nil, fmt.Errorf("telemetry: parse attempt: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("telemetry: iterate attempts: %w", err)
	}

	// Reverse newest-first into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// LastOutcome returns the outcome of the most recent attempt, or ok=false
// when no attempt has been recorded.
func (h *History) LastOutcome() (Outcome, bool, error) {
	var outcome string
	err := h.db.QueryRow(
		`SELECT outcome FROM attempts ORDER BY started DESC LIMIT 1`).Scan(&outcome)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("telemetry: query last outcome: %w", err)
	}
	return Outcome(outcome), true, nil
}
