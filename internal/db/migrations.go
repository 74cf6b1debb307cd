package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS apartments (
		id             TEXT     PRIMARY KEY,
		title          TEXT     NOT NULL,
		street_address TEXT     NOT NULL DEFAULT '',
		doc            TEXT     NOT NULL,
		is_favorite    INTEGER  NOT NULL DEFAULT 0 CHECK (is_favorite IN (0, 1)),
		created_at     DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id           TEXT     PRIMARY KEY,
		apartment_id TEXT     NOT NULL REFERENCES apartments(id) ON DELETE CASCADE,
		user_id      TEXT     NOT NULL,
		username     TEXT     NOT NULL DEFAULT '',
		text         TEXT     NOT NULL,
		user_image   TEXT     NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT     PRIMARY KEY,
		email         TEXT     NOT NULL UNIQUE,
		password_hash TEXT     NOT NULL,
		display_name  TEXT     NOT NULL DEFAULT '',
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		uid   TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		role  TEXT NOT NULL CHECK (role IN ('admin', 'user'))
	)`,
}

// indexes run after column migrations so they can cover added columns.
var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_apartments_created ON apartments (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_thread ON comments (apartment_id, parent_comment_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments (parent_comment_id, created_at)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Databases created before replies existed lack parent_comment_id.
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"comments", "parent_comment_id", "TEXT REFERENCES comments(id) ON DELETE CASCADE"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	for i, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	cols, err := columns(db, table)
	if err != nil {
		return err
	}
	for _, name := range cols {
		if name == column {
			return nil
		}
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

// columns lists a table's column names in declaration order.
func columns(db *sql.DB, table string) ([]string, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("warning: closing rows: %v\n", cerr)
		}
	}()

	var names []string
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scanning column info: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns: %w", err)
	}
	return names, nil
}
