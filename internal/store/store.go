// Package store persists orchestration runs: the message log of each
// session in arrival order, target-state snapshots, and the final
// report. The layout is sufficient to reconstruct a session or re-read a
// report without replaying any reasoning calls.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AiWaldoh/a-i-d-a/internal/brain"
	"github.com/AiWaldoh/a-i-d-a/internal/engine"
)

// RunRecord is the listing view of one orchestration run.
type RunRecord struct {
	RunID      string
	Target     string
	Goal       string
	StartedAt  int64
	FinishedAt int64 // zero while in flight
	Iterations int
	Phase      string
	Degraded   bool
}

// RunStore provides database operations for orchestration runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new database connection and initializes the schema.
func NewRunStore(ctx context.Context, dbPath string) (*RunStore, error) {
	// Enable WAL mode for better concurrency and set busy timeout
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers well
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &RunStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// initSchema creates the database tables if they don't exist.
func (s *RunStore) initSchema(ctx context.Context) error {
	schema := `
	-- One row per orchestration run
	CREATE TABLE IF NOT EXISTS runs (
		run_id      TEXT PRIMARY KEY,
		target      TEXT NOT NULL,
		goal        TEXT NOT NULL,
		started_at  INTEGER NOT NULL,
		finished_at INTEGER,
		iterations  INTEGER NOT NULL DEFAULT 0,
		phase       TEXT,
		degraded    INTEGER NOT NULL DEFAULT 0,
		report_body TEXT
	);

	-- Session messages in arrival order (seq is per session)
	CREATE TABLE IF NOT EXISTS messages (
		message_id    INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id        TEXT NOT NULL,
		session_id    TEXT NOT NULL,
		session_label TEXT NOT NULL,
		seq           INTEGER NOT NULL,
		role          TEXT NOT NULL,
		content       TEXT NOT NULL,
		tool_call_id  TEXT,
		tool_calls    TEXT,
		created_at    INTEGER NOT NULL,
		UNIQUE (session_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);

	-- Target-state snapshots, one JSON document per capture
	CREATE TABLE IF NOT EXISTS state_snapshots (
		snapshot_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL,
		captured_at INTEGER NOT NULL,
		snapshot    TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);

	-- Trace events mirrored from the event sink, payload as JSON
	CREATE TABLE IF NOT EXISTS trace_events (
		event_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		trace_id   TEXT NOT NULL,
		event_type TEXT NOT NULL,
		emitted_at INTEGER NOT NULL,
		data       TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target);
	CREATE INDEX IF NOT EXISTS idx_messages_run ON messages(run_id);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
	CREATE INDEX IF NOT EXISTS idx_snapshots_run ON state_snapshots(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_trace ON trace_events(trace_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// CreateRun registers a run before its first iteration.
func (s *RunStore) CreateRun(ctx context.Context, runID, target, goal string) error {
	query := `INSERT INTO runs (run_id, target, goal, started_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, runID, target, goal, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a completed run.
func (s *RunStore) FinishRun(ctx context.Context, runID string, report *brain.Report) error {
	degraded := 0
	if report.Degraded {
		degraded = 1
	}
	query := `
		UPDATE runs
		SET finished_at = ?, iterations = ?, phase = ?, degraded = ?, report_body = ?
		WHERE run_id = ?
	`
	_, err := s.db.ExecContext(ctx, query,
		time.Now().Unix(), report.Iterations, report.Phase.String(), degraded, report.Body, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// SaveMessages persists a session's full message log in arrival order,
// replacing whatever was saved for that session before. Idempotent, so a
// run can checkpoint after every iteration.
func (s *RunStore) SaveMessages(ctx context.Context, runID, sessionID, label string, messages []engine.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear session messages: %w", err)
	}

	insert := `
		INSERT INTO messages (run_id, session_id, session_label, seq, role, content, tool_call_id, tool_calls, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for seq, m := range messages {
		var toolCalls sql.NullString
		if len(m.ToolCalls) > 0 {
			data, err := json.Marshal(m.ToolCalls)
			if err != nil {
				return fmt.Errorf("failed to marshal tool calls: %w", err)
			}
			toolCalls = sql.NullString{String: string(data), Valid: true}
		}
		var toolCallID sql.NullString
		if m.ToolCallID != "" {
			toolCallID = sql.NullString{String: m.ToolCallID, Valid: true}
		}
		createdAt := m.CreatedAt.Unix()
		if m.CreatedAt.IsZero() {
			createdAt = 0
		}
		if _, err := tx.ExecContext(ctx, insert,
			runID, sessionID, label, seq, string(m.Role), m.Content, toolCallID, toolCalls, createdAt); err != nil {
			return fmt.Errorf("failed to insert message %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit messages: %w", err)
	}
	return nil
}

// Messages reloads one session's log in arrival order.
func (s *RunStore) Messages(ctx context.Context, sessionID string) ([]engine.ChatMessage, error) {
	query := `
		SELECT role, content, tool_call_id, tool_calls, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []engine.ChatMessage
	for rows.Next() {
		var m engine.ChatMessage
		var role string
		var toolCallID, toolCalls sql.NullString
		var createdAt int64
		if err := rows.Scan(&role, &m.Content, &toolCallID, &toolCalls, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = engine.MessageRole(role)
		if toolCallID.Valid {
			m.ToolCallID = toolCallID.String
		}
		if toolCalls.Valid {
			if err := json.Unmarshal([]byte(toolCalls.String), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to parse tool calls: %w", err)
			}
		}
		if createdAt > 0 {
			m.CreatedAt = time.Unix(createdAt, 0)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

// SaveSnapshot captures the target state as one JSON document.
func (s *RunStore) SaveSnapshot(ctx context.Context, runID string, state *brain.TargetState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal target state: %w", err)
	}
	query := `INSERT INTO state_snapshots (run_id, captured_at, snapshot) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, runID, time.Now().Unix(), string(data)); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot reloads the most recent target-state snapshot for a run.
func (s *RunStore) LatestSnapshot(ctx context.Context, runID string) (*brain.TargetState, error) {
	query := `
		SELECT snapshot FROM state_snapshots
		WHERE run_id = ?
		ORDER BY snapshot_id DESC
		LIMIT 1
	`
	var data string
	if err := s.db.QueryRowContext(ctx, query, runID).Scan(&data); err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var state brain.TargetState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	state.Reindex()
	return &state, nil
}

// GetRun retrieves one run record.
func (s *RunStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	query := `
		SELECT run_id, target, goal, started_at, finished_at, iterations, phase, degraded
		FROM runs WHERE run_id = ?
	`
	var r RunRecord
	var finishedAt sql.NullInt64
	var phase sql.NullString
	var degraded int
	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&r.RunID, &r.Target, &r.Goal, &r.StartedAt, &finishedAt, &r.Iterations, &phase, &degraded)
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	if finishedAt.Valid {
		r.FinishedAt = finishedAt.Int64
	}
	if phase.Valid {
		r.Phase = phase.String
	}
	r.Degraded = degraded == 1
	return &r, nil
}

// Report reloads the stored report body for a run.
func (s *RunStore) Report(ctx context.Context, runID string) (string, error) {
	var body sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT report_body FROM runs WHERE run_id = ?`, runID).Scan(&body)
	if err != nil {
		return "", fmt.Errorf("failed to load report: %w", err)
	}
	if !body.Valid {
		return "", fmt.Errorf("run %s has no report", runID)
	}
	return body.String, nil
}

// ListRuns returns all runs against a target, most recent first.
func (s *RunStore) ListRuns(ctx context.Context, target string) ([]RunRecord, error) {
	query := `
		SELECT run_id, target, goal, started_at, finished_at, iterations, phase, degraded
		FROM runs
		WHERE target = ?
		ORDER BY started_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var finishedAt sql.NullInt64
		var phase sql.NullString
		var degraded int
		if err := rows.Scan(&r.RunID, &r.Target, &r.Goal, &r.StartedAt, &finishedAt, &r.Iterations, &phase, &degraded); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if finishedAt.Valid {
			r.FinishedAt = finishedAt.Int64
		}
		if phase.Valid {
			r.Phase = phase.String
		}
		r.Degraded = degraded == 1
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}
