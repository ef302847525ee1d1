package notes

import (
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/pario-ai/vndb-mcp/pkg/models"
)

// SQLite is a Store that persists notes in a SQLite database.
type SQLite struct {
	db *sql.DB
}

const createNotesTable = `
CREATE TABLE IF NOT EXISTS notes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// NewSQLite opens (and migrates) the note database at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open notes db")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createNotesTable); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate notes db")
	}
	return &SQLite{db: db}, nil
}

// Put adds or replaces a note. A replaced note keeps its row and position.
func (s *SQLite) Put(name, content string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO notes (name, content, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		name, content, now, now,
	)
	if err != nil {
		return errors.Wrapf(err, "put note %q", name)
	}
	return nil
}

// Get returns the content of a note.
func (s *SQLite) Get(name string) (string, bool, error) {
	var content string
	err := s.db.QueryRow(`SELECT content FROM notes WHERE name = ?`, name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "get note %q", name)
	}
	return content, true, nil
}

// List returns all notes in insertion order.
func (s *SQLite) List() ([]models.Note, error) {
	rows, err := s.db.Query(`SELECT name, content FROM notes ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list notes")
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.Name, &n.Content); err != nil {
			return nil, errors.Wrap(err, "scan note")
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Clear removes every note and returns how many were removed.
func (s *SQLite) Clear() (int, error) {
	res, err := s.db.Exec(`DELETE FROM notes`)
	if err != nil {
		return 0, errors.Wrap(err, "clear notes")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "clear notes")
	}
	return int(n), nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
