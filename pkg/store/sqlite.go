package store

import (
	"database/sql"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS messages (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	content TEXT NOT NULL
)`

// SQLite stores messages in a private in-memory sqlite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens a fresh, uniquely named shared-cache memory database.
// The single pooled connection keeps the database alive until Close.
func OpenSQLite() (*SQLite, error) {
	name, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("sqlite name: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:postit-"+name+"?mode=memory&cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Create(payload string) error {
	if s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.Exec(`INSERT INTO messages (content) VALUES (?)`, payload); err != nil {
		return fmt.Errorf("sqlite insert: %w", err)
	}
	return nil
}

func (s *SQLite) List() ([]string, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.Query(`SELECT content FROM messages ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite rows: %w", err)
	}
	return out, nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
