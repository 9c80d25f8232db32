// Package store persists client state between runs: the drive
// authorization hint and the archived conversation messages.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"voice-assistant-client/internal/models"
	"voice-assistant-client/internal/observability/logging"
)

const driveAuthorizedKey = "drive_authorized"

const schema = `
CREATE TABLE IF NOT EXISTS client_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
`

// ArchivedMessage is one stored conversation message.
type ArchivedMessage struct {
	SessionID string
	Role      models.Role
	Content   string
	CreatedAt time.Time
}

// Store is the durable client state, backed by a single SQLite file.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (and if needed creates) the state database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	// The CLI is the only writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		db:  db,
		log: logging.WithComponent("store"),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetDriveAuthorized records whether a drive grant succeeded before. The
// flag is a hint for choosing the silent auth path, not proof of a valid
// token.
func (s *Store) SetDriveAuthorized(authorized bool) error {
	value := "false"
	if authorized {
		value = "true"
	}
	_, err := s.db.Exec(
		`INSERT INTO client_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		driveAuthorizedKey, value,
	)
	return err
}

// DriveAuthorized reads the drive authorization hint. A missing flag
// reads as false.
func (s *Store) DriveAuthorized() (bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM client_state WHERE key = ?`, driveAuthorizedKey,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// ArchiveMessage appends one completed message to the archive.
func (s *Store) ArchiveMessage(sessionID string, role models.Role, content string) error {
	_, err := s.db.Exec(
		`INSERT INTO turns (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, string(role), content, time.Now().UnixMilli(),
	)
	return err
}

// Messages returns the archived messages for one session in insertion
// order. limit <= 0 means no limit.
func (s *Store) Messages(sessionID string, limit int) ([]ArchivedMessage, error) {
	q := `SELECT session_id, role, content, created_at FROM turns WHERE session_id = ? ORDER BY id`
	args := []any{sessionID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArchivedMessage
	for rows.Next() {
		var m ArchivedMessage
		var role string
		var createdAt int64
		if err := rows.Scan(&m.SessionID, &role, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		m.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Sessions lists archived session ids, most recent first.
func (s *Store) Sessions(limit int) ([]string, error) {
	q := `SELECT session_id FROM turns GROUP BY session_id ORDER BY MAX(id) DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
