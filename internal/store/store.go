// Package store is the durable conversation store: sessions with ordered,
// append-only turns and an optional rolling summary per session.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  title TEXT DEFAULT '',
  created_at INTEGER,
  updated_at INTEGER
);
CREATE TABLE IF NOT EXISTS messages (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session_id TEXT,
  role TEXT,
  content TEXT,
  created_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
CREATE TABLE IF NOT EXISTS summaries (
  session_id TEXT PRIMARY KEY,
  rolling_summary TEXT,
  last_checkpoint INTEGER,
  progress_json TEXT
);
`

// Store wraps the SQLite conversation database
type Store struct {
	db *sql.DB
}

// Turn is one message in a session
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionInfo describes a session without its turns
type SessionInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the rolling summary and progress record of a session
type Summary struct {
	RollingSummary string                 `json:"rolling_summary"`
	Progress       map[string]interface{} `json:"progress"`
	LastCheckpoint time.Time              `json:"last_checkpoint"`
}

// Open opens (creating if necessary) the store at the given path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA synchronous=NORMAL;"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSession returns the session id, creating the session on first
// contact and bumping updated_at otherwise. An empty id gets a fresh uuid.
func (s *Store) EnsureSession(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().Unix()

	var existing string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM sessions WHERE id=?", id).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO sessions(id, created_at, updated_at) VALUES(?,?,?)", id, now, now)
	case err == nil:
		_, err = s.db.ExecContext(ctx, "UPDATE sessions SET updated_at=? WHERE id=?", now, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to ensure session: %w", err)
	}
	return id, nil
}

// AppendTurn appends one turn and bumps the session timestamp. Each append
// is its own transaction; a crash loses at most the current exchange.
func (s *Store) AppendTurn(ctx context.Context, sessionID, role, content string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO messages(session_id, role, content, created_at) VALUES(?,?,?,?)",
		sessionID, role, content, now); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE sessions SET updated_at=? WHERE id=?", now, sessionID); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return tx.Commit()
}

// RecentContext returns the last k turns of a session in chronological order
func (s *Store) RecentContext(ctx context.Context, sessionID string, k int) ([]Turn, error) {
	if k <= 0 {
		k = 12
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content, created_at FROM messages WHERE session_id=? ORDER BY id DESC LIMIT ?",
		sessionID, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent context: %w", err)
	}
	defer rows.Close()

	turns, err := scanTurns(rows)
	if err != nil {
		return nil, err
	}
	// reverse newest-first into chronological order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// History returns all turns of a session in order
func (s *Store) History(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content, created_at FROM messages WHERE session_id=? ORDER BY id ASC",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

func scanTurns(rows *sql.Rows) ([]Turn, error) {
	var turns []Turn
	for rows.Next() {
		var t Turn
		var ts int64
		if err := rows.Scan(&t.Role, &t.Content, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.CreatedAt = time.Unix(ts, 0)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ListSessions returns all sessions, most recently updated first
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, created_at, updated_at FROM sessions ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var created, updated int64
		if err := rows.Scan(&info.ID, &info.Title, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		info.CreatedAt = time.Unix(created, 0)
		info.UpdatedAt = time.Unix(updated, 0)
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

// SessionsUpdatedSince returns sessions whose updated_at is after t
func (s *Store) SessionsUpdatedSince(ctx context.Context, t time.Time) ([]SessionInfo, error) {
	all, err := s.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	var recent []SessionInfo
	for _, info := range all {
		if info.UpdatedAt.After(t) {
			recent = append(recent, info)
		}
	}
	return recent, nil
}

// GetSummary returns the rolling summary for a session, an empty summary
// when none has been checkpointed yet.
func (s *Store) GetSummary(ctx context.Context, sessionID string) (*Summary, error) {
	var rolling sql.NullString
	var progressJSON sql.NullString
	var checkpoint sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		"SELECT rolling_summary, progress_json, last_checkpoint FROM summaries WHERE session_id=?",
		sessionID).Scan(&rolling, &progressJSON, &checkpoint)
	if err == sql.ErrNoRows {
		return &Summary{Progress: map[string]interface{}{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	summary := &Summary{
		RollingSummary: rolling.String,
		Progress:       map[string]interface{}{},
	}
	if progressJSON.Valid && progressJSON.String != "" {
		// best effort; a corrupt progress record falls back to empty
		json.Unmarshal([]byte(progressJSON.String), &summary.Progress)
	}
	if checkpoint.Valid {
		summary.LastCheckpoint = time.Unix(checkpoint.Int64, 0)
	}
	return summary, nil
}

// SaveSummary upserts the rolling summary and progress for a session
func (s *Store) SaveSummary(ctx context.Context, sessionID, rolling string, progress map[string]interface{}) error {
	if progress == nil {
		progress = map[string]interface{}{}
	}
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO summaries(session_id, rolling_summary, progress_json, last_checkpoint)
VALUES(?,?,?,?)
ON CONFLICT(session_id) DO UPDATE SET
  rolling_summary=excluded.rolling_summary,
  progress_json=excluded.progress_json,
  last_checkpoint=excluded.last_checkpoint`,
		sessionID, rolling, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// WipeSession deletes all turns and the summary of a session. The session
// row itself survives with a bumped timestamp.
func (s *Store) WipeSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id=?", sessionID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM summaries WHERE session_id=?", sessionID); err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE sessions SET title='', updated_at=? WHERE id=?", time.Now().Unix(), sessionID); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	return tx.Commit()
}

// Stats returns basic store counts for the status endpoint
func (s *Store) Stats(ctx context.Context) (sessions, turns int, err error) {
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&sessions); err != nil {
		return 0, 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&turns); err != nil {
		return 0, 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return sessions, turns, nil
}
