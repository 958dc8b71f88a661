package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dotsetgreg/mindgrid/pkg/memory"
	"github.com/dotsetgreg/mindgrid/pkg/mind"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the canonical persistent state storage. It keeps the
// state snapshot chain, the episodic log, and learned concepts across
// process restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates/opens the state database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single-process store. One shared connection avoids writer lock
	// contention with SQLite under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA temp_store=MEMORY;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at_ms INTEGER NOT NULL,
			updated_at_ms INTEGER NOT NULL,
			tick_count INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			state_id TEXT PRIMARY KEY,
			parent_state_id TEXT NOT NULL DEFAULT '',
			session_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			created_at_ms INTEGER NOT NULL,
			state_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS snapshots_session_idx ON snapshots(session_id, tick DESC);`,
		`CREATE TABLE IF NOT EXISTS episodic_records (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			action TEXT NOT NULL,
			record_json TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS episodic_session_tick_idx ON episodic_records(session_id, tick);`,
		`CREATE TABLE IF NOT EXISTS concepts (
			signature TEXT NOT NULL,
			label TEXT NOT NULL,
			confidence REAL NOT NULL,
			exposures INTEGER NOT NULL DEFAULT 0,
			reinforced_seq INTEGER NOT NULL DEFAULT 0,
			updated_at_ms INTEGER NOT NULL,
			PRIMARY KEY(signature, label)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return nil
}

func nowMS() int64 { return time.Now().UnixMilli() }

// EnsureSession records a session row, bumping updated_at on repeats.
func (s *SQLiteStore) EnsureSession(ctx context.Context, sessionID string) error {
	now := nowMS()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions(session_id, created_at_ms, updated_at_ms, tick_count)
VALUES(?, ?, ?, 0)
ON CONFLICT(session_id) DO UPDATE SET updated_at_ms = excluded.updated_at_ms`,
		sessionID, now, now)
	if err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	return nil
}

// SaveSnapshot persists one immutable tick snapshot and advances the
// session's tick count. Snapshots are keyed by state id; saving a
// state that is already persisted is a no-op, so a final flush after a
// scheduled save cannot fail on the duplicate.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, state mind.MindState) error {
	payload, err := state.JSON()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save snapshot begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := nowMS()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO sessions(session_id, created_at_ms, updated_at_ms, tick_count)
VALUES(?, ?, ?, 0)
ON CONFLICT(session_id) DO UPDATE SET updated_at_ms = excluded.updated_at_ms`,
		state.SessionID, now, now); err != nil {
		return fmt.Errorf("save snapshot ensure session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO snapshots(state_id, parent_state_id, session_id, tick, created_at_ms, state_json)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(state_id) DO NOTHING`,
		state.StateID, state.ParentStateID, state.SessionID, state.Tick, state.CreatedAt.UnixMilli(), string(payload)); err != nil {
		return fmt.Errorf("save snapshot insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE sessions SET updated_at_ms = ?, tick_count = ? WHERE session_id = ?`,
		now, state.Tick, state.SessionID); err != nil {
		return fmt.Errorf("save snapshot update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot commit: %w", err)
	}
	return nil
}

// LatestSnapshot returns the highest-tick snapshot for a session.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context, sessionID string) (mind.MindState, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT state_json FROM snapshots
WHERE session_id = ?
ORDER BY tick DESC
LIMIT 1`, sessionID)

	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mind.MindState{}, false, nil
		}
		return mind.MindState{}, false, fmt.Errorf("latest snapshot: %w", err)
	}

	state, err := decodeState(raw)
	if err != nil {
		return mind.MindState{}, false, err
	}
	return state, true, nil
}

// ListSnapshots returns up to limit snapshots for a session in
// ascending tick order.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, sessionID string, limit int) ([]mind.MindState, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT state_json FROM snapshots
WHERE session_id = ?
ORDER BY tick DESC
LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]mind.MindState, 0, limit)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		state, err := decodeState(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// AppendEpisodic persists one episodic record. Re-persisting the same
// (session, tick) is an error: lived history never changes.
func (s *SQLiteStore) AppendEpisodic(ctx context.Context, sessionID string, rec memory.EpisodicRecord) error {
	payload, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO episodic_records(id, session_id, tick, action, record_json, created_at_ms)
VALUES(?, ?, ?, ?, ?, ?)`,
		"ep-"+uuid.NewString(), sessionID, rec.Tick, string(rec.Action), payload, nowMS())
	if err != nil {
		return fmt.Errorf("append episodic: %w", err)
	}
	return nil
}

// ListEpisodic returns a session's episodic records in ascending tick
// order.
func (s *SQLiteStore) ListEpisodic(ctx context.Context, sessionID string, limit int) ([]memory.EpisodicRecord, error) {
	if limit <= 0 {
		limit = 512
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT record_json FROM episodic_records
WHERE session_id = ?
ORDER BY tick ASC
LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list episodic: %w", err)
	}
	defer rows.Close()

	out := make([]memory.EpisodicRecord, 0, limit)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan episodic record: %w", err)
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodic records: %w", err)
	}
	return out, nil
}

// UpsertConcept persists a learned concept, keeping the stronger
// confidence on conflict.
func (s *SQLiteStore) UpsertConcept(ctx context.Context, c memory.SemanticConcept) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO concepts(signature, label, confidence, exposures, reinforced_seq, updated_at_ms)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(signature, label) DO UPDATE SET
	confidence = CASE WHEN excluded.confidence > concepts.confidence THEN excluded.confidence ELSE concepts.confidence END,
	exposures = CASE WHEN excluded.exposures > concepts.exposures THEN excluded.exposures ELSE concepts.exposures END,
	reinforced_seq = CASE WHEN excluded.reinforced_seq > concepts.reinforced_seq THEN excluded.reinforced_seq ELSE concepts.reinforced_seq END,
	updated_at_ms = excluded.updated_at_ms`,
		c.Signature, c.Label, c.Confidence, c.Exposures, c.ReinforcedSeq, nowMS())
	if err != nil {
		return fmt.Errorf("upsert concept: %w", err)
	}
	return nil
}

// SaveConcepts persists a full concept set in one transaction.
func (s *SQLiteStore) SaveConcepts(ctx context.Context, concepts []memory.SemanticConcept) error {
	if len(concepts) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save concepts begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := nowMS()
	for _, c := range concepts {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO concepts(signature, label, confidence, exposures, reinforced_seq, updated_at_ms)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(signature, label) DO UPDATE SET
	confidence = excluded.confidence,
	exposures = excluded.exposures,
	reinforced_seq = excluded.reinforced_seq,
	updated_at_ms = excluded.updated_at_ms`,
			c.Signature, c.Label, c.Confidence, c.Exposures, c.ReinforcedSeq, now); err != nil {
			return fmt.Errorf("save concept: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save concepts commit: %w", err)
	}
	return nil
}

// LoadConcepts returns every persisted concept, for restoring semantic
// memory at session start.
func (s *SQLiteStore) LoadConcepts(ctx context.Context) ([]memory.SemanticConcept, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT signature, label, confidence, exposures, reinforced_seq
FROM concepts
ORDER BY signature ASC, label ASC`)
	if err != nil {
		return nil, fmt.Errorf("load concepts: %w", err)
	}
	defer rows.Close()

	out := []memory.SemanticConcept{}
	for rows.Next() {
		var c memory.SemanticConcept
		if err := rows.Scan(&c.Signature, &c.Label, &c.Confidence, &c.Exposures, &c.ReinforcedSeq); err != nil {
			return nil, fmt.Errorf("scan concept: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concepts: %w", err)
	}
	return out, nil
}

// ListSessions returns known session ids, most recently updated first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, created_at_ms, updated_at_ms, tick_count
FROM sessions
ORDER BY updated_at_ms DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]SessionInfo, 0, limit)
	for rows.Next() {
		var info SessionInfo
		var created, updated int64
		if err := rows.Scan(&info.SessionID, &created, &updated, &info.TickCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		info.CreatedAt = time.UnixMilli(created)
		info.UpdatedAt = time.UnixMilli(updated)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// SessionInfo is one row of session bookkeeping.
type SessionInfo struct {
	SessionID string
	CreatedAt time.Time
	UpdatedAt time.Time
	TickCount int
}
