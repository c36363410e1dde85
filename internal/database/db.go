package database

import (
	"database/sql"
	"fmt"
	"math/rand"

	_ "github.com/mattn/go-sqlite3"
)

// Store keeps the durable side of the server: stable user identities and a
// record of which rooms exist. Gameplay state is never persisted.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	sqlStmt := `CREATE TABLE IF NOT EXISTS users (name TEXT PRIMARY KEY, id TEXT);`
	sqlStmt += `CREATE TABLE IF NOT EXISTS rooms (name TEXT PRIMARY KEY, host_id TEXT, created_at DATETIME DEFAULT CURRENT_TIMESTAMP);`
	if _, err = db.Exec(sqlStmt); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// GetOrCreateUserID returns the stable id bound to a display name,
// minting one on first sight.
func (s *Store) GetOrCreateUserID(name string) string {
	var id string
	err := s.db.QueryRow("SELECT id FROM users WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id
	}

	id = fmt.Sprintf("user_%d_%d", rand.Int(), rand.Int())
	_, err = s.db.Exec("INSERT INTO users (name, id) VALUES (?, ?)", name, id)
	if err != nil {
		// Concurrent insert beat us; take the winner's id.
		s.db.QueryRow("SELECT id FROM users WHERE name = ?", name).Scan(&id)
	}
	return id
}

func (s *Store) SaveRoom(name, hostID string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO rooms (name, host_id) VALUES (?, ?)", name, hostID)
	return err
}

func (s *Store) DeleteRoom(name string) error {
	_, err := s.db.Exec("DELETE FROM rooms WHERE name = ?", name)
	return err
}
