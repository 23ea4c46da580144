package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/leolearn/leo/internal/session"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	child_name      TEXT NOT NULL,
	concept         TEXT NOT NULL,
	started_at      INTEGER NOT NULL,
	duration_secs   INTEGER NOT NULL DEFAULT 0,
	summary         TEXT NOT NULL DEFAULT '',
	mastery_percent REAL
);
CREATE TABLE IF NOT EXISTS turns (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at DESC);
`

// Journal is the local, append-only record of finished tutoring sessions.
// It backs the parent's history view and works fully offline; the remote
// service remains the authority for grading and reports.
type Journal struct {
	db *sql.DB
}

// Open connects to the SQLite journal at dsn, applying pragmas and creating
// the schema when missing.
func Open(dsn string) (*Journal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// applyPragmas configures SQLite for single-user desktop use.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultPath resolves the journal file path in priority order:
// 1. LEO_DB environment variable
// 2. $XDG_DATA_HOME/leo/leo.db
// 3. ~/.local/share/leo/leo.db
func DefaultPath() (string, error) {
	if p := os.Getenv("LEO_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "leo", "leo.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// SessionRecord is one journaled session.
type SessionRecord struct {
	ID             string
	ChildName      string
	Concept        string
	StartedAt      time.Time
	DurationSecs   int
	Summary        string
	MasteryPercent *float64
}

// TurnRecord is one journaled conversation turn.
type TurnRecord struct {
	Seq     int
	Role    string
	Content string
	Kind    string
}

// ConceptStat aggregates journaled sessions per concept.
type ConceptStat struct {
	Concept    string
	Sessions   int
	AvgMastery *float64
}

// ArchiveSession records a finished session and its transcript in one
// transaction. Satisfies session.Archiver.
func (j *Journal) ArchiveSession(ctx context.Context, a session.Archive) error {
	id := a.SessionID
	if id == "" {
		id = uuid.NewString()
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var mastery any
	if a.MasteryPercent != nil {
		mastery = *a.MasteryPercent
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, child_name, concept, started_at, duration_secs, summary, mastery_percent)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, a.ChildName, a.Concept, a.StartedAt.Unix(), a.DurationSecs, a.Summary, mastery)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("clear turns: %w", err)
	}
	for i, turn := range a.Turns {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO turns (session_id, seq, role, content, kind) VALUES (?, ?, ?, ?, ?)`,
			id, i, string(turn.Role), turn.Content, string(turn.Kind))
		if err != nil {
			return fmt.Errorf("insert turn %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecentSessions returns the most recent sessions, newest first.
// limit <= 0 means no limit.
func (j *Journal) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	q := `SELECT id, child_name, concept, started_at, duration_secs, summary, mastery_percent
	      FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var startedAt int64
		var mastery sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.ChildName, &r.Concept, &startedAt, &r.DurationSecs, &r.Summary, &mastery); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		r.StartedAt = time.Unix(startedAt, 0)
		if mastery.Valid {
			v := mastery.Float64
			r.MasteryPercent = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Turns replays one session's transcript in log order.
func (j *Journal) Turns(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, role, content, kind FROM turns WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var t TurnRecord
		if err := rows.Scan(&t.Seq, &t.Role, &t.Content, &t.Kind); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ConceptMastery aggregates session counts and average mastery per concept.
// Sessions without a mastery report count toward Sessions but not the
// average.
func (j *Journal) ConceptMastery(ctx context.Context) ([]ConceptStat, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT concept, COUNT(*), AVG(mastery_percent)
		 FROM sessions GROUP BY concept ORDER BY concept`)
	if err != nil {
		return nil, fmt.Errorf("query concept mastery: %w", err)
	}
	defer rows.Close()

	var out []ConceptStat
	for rows.Next() {
		var s ConceptStat
		var avg sql.NullFloat64
		if err := rows.Scan(&s.Concept, &s.Sessions, &avg); err != nil {
			return nil, fmt.Errorf("scan concept stat: %w", err)
		}
		if avg.Valid {
			v := avg.Float64
			s.AvgMastery = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
