// Package offline is the durable store for activity records that have not
// yet reached the collector. Records are appended on flush and drained by
// the batch replayer.
package offline

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/keybeat/keybeat/pkg/activity"
)

const (
	dbFileName = "payloads.db"
	dbDirName  = ".keybeat"
)

// Store wraps the SQLite database holding pending records.
type Store struct {
	conn *sql.DB
	path string
}

// DefaultPath returns the store location under the user's home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, dbDirName, dbFileName), nil
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// initSchema creates tables if they don't exist
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS payloads (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		directory TEXT NOT NULL,
		body TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payloads_created ON payloads(created_at);
	`

	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Persist appends a record to the store.
func (s *Store) Persist(rec activity.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.conn.Exec(
		`INSERT INTO payloads (id, created_at, directory, body) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), time.Now().UTC(), rec.Directory, string(body),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Pending returns all stored records in insertion order.
func (s *Store) Pending() ([]activity.Record, error) {
	rows, err := s.conn.Query(`SELECT body FROM payloads ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []activity.Record
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var rec activity.Record
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

// Clear removes all stored records. Called after a full replay has been
// accepted by the collector.
func (s *Store) Clear() error {
	if _, err := s.conn.Exec(`DELETE FROM payloads`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

// Stats returns the pending record count, the database file size in bytes,
// and the newest record time (zero when the store is empty).
func (s *Store) Stats() (int, int64, time.Time, error) {
	var count int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM payloads`).Scan(&count); err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("failed to count records: %w", err)
	}

	var newest time.Time
	if count > 0 {
		if err := s.conn.QueryRow(`SELECT created_at FROM payloads ORDER BY rowid DESC LIMIT 1`).Scan(&newest); err != nil {
			return 0, 0, time.Time{}, fmt.Errorf("failed to read newest record time: %w", err)
		}
	}

	var size int64
	if fi, err := os.Stat(s.path); err == nil {
		size = fi.Size()
	}
	return count, size, newest, nil
}
