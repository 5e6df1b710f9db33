// Package audit persists a record of each validation call for later
// review, the way the teacher persists game results.
package audit

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (creating if necessary) the SQLite database at path and
// runs schema migrations.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping audit db: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run audit migrations: %w", err)
	}
	return db, nil
}

func runMigrations(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS validation_log (
		id TEXT PRIMARY KEY,
		kanji_sei TEXT NOT NULL,
		kanji_mei TEXT NOT NULL,
		romaji_sei TEXT NOT NULL,
		romaji_mei TEXT NOT NULL,
		is_valid INTEGER NOT NULL,
		sei_status TEXT NOT NULL,
		mei_status TEXT NOT NULL,
		warnings_json TEXT NOT NULL,
		client_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`
	_, err := db.Exec(schema)
	return err
}
