package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "creates new database",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "rent-finder.db")
			},
		},
		{
			name: "creates nested directories",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "a", "b", "rent-finder.db")
			},
		},
		{
			name: "opens existing database",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "rent-finder.db")
				d, err := Open(path)
				if err != nil {
					t.Fatalf("setup: %v", err)
				}
				if err := d.Close(); err != nil {
					t.Fatalf("setup close: %v", err)
				}
				return path
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			d, err := Open(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer func() {
				if err := d.Close(); err != nil {
					t.Errorf("close: %v", err)
				}
			}()

			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Error("database file was not created")
			}
		})
	}
}

func TestWALMode(t *testing.T) {
	d := openTestDB(t)

	var mode string
	if err := d.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestForeignKeys(t *testing.T) {
	d := openTestDB(t)

	var fk int
	if err := d.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		name  string
		table string
		cols  []string
	}{
		{
			name:  "apartments table exists",
			table: "apartments",
			cols:  []string{"id", "title", "street_address", "doc", "is_favorite", "created_at"},
		},
		{
			name:  "comments table has reply column",
			table: "comments",
			cols:  []string{"id", "apartment_id", "user_id", "username", "text", "user_image", "created_at", "parent_comment_id"},
		},
		{
			name:  "users table exists",
			table: "users",
			cols:  []string{"id", "email", "password_hash", "display_name", "created_at"},
		},
		{
			name:  "user_roles table exists",
			table: "user_roles",
			cols:  []string{"uid", "email", "role"},
		},
	}

	d := openTestDB(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := tableColumns(t, d, tt.table)
			if len(cols) != len(tt.cols) {
				t.Fatalf("got %d columns, want %d: %v", len(cols), len(tt.cols), cols)
			}
			for i, want := range tt.cols {
				if cols[i] != want {
					t.Errorf("column %d = %q, want %q", i, cols[i], want)
				}
			}
		})
	}
}

func TestFavoriteConstraint(t *testing.T) {
	d := openTestDB(t)

	insert := `INSERT INTO apartments (id, title, doc, is_favorite, created_at) VALUES (?, ?, ?, ?, ?)`

	tests := []struct {
		name    string
		fav     int
		wantErr bool
	}{
		{"zero is valid", 0, false},
		{"one is valid", 1, false},
		{"two is invalid", 2, true},
		{"negative is invalid", -1, true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Exec(insert, fmt.Sprintf("apt-%d", i), "Loft", "{}", tt.fav, time.Now())
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRoleConstraint(t *testing.T) {
	d := openTestDB(t)

	if _, err := d.Exec(`INSERT INTO user_roles (uid, email, role) VALUES (?, ?, ?)`, "u1", "a@example.com", "admin"); err != nil {
		t.Fatalf("insert admin: %v", err)
	}
	if _, err := d.Exec(`INSERT INTO user_roles (uid, email, role) VALUES (?, ?, ?)`, "u2", "b@example.com", "owner"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestCascadeDelete(t *testing.T) {
	d := openTestDB(t)

	if _, err := d.Exec(
		`INSERT INTO apartments (id, title, doc, created_at) VALUES (?, ?, ?, ?)`,
		"apt-cascade", "Loft", "{}", time.Now(),
	); err != nil {
		t.Fatalf("insert apartment: %v", err)
	}

	insert := `INSERT INTO comments (id, apartment_id, parent_comment_id, user_id, text, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := d.Exec(insert, "c1", "apt-cascade", nil, "u1", "top", time.Now()); err != nil {
		t.Fatalf("insert comment: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := d.Exec(insert, fmt.Sprintf("r%d", i), "apt-cascade", "c1", "u1", "reply", time.Now()); err != nil {
			t.Fatalf("insert reply %d: %v", i, err)
		}
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM comments WHERE apartment_id = ?`, "apt-cascade").Scan(&count); err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 comments, got %d", count)
	}

	if _, err := d.Exec(`DELETE FROM apartments WHERE id = ?`, "apt-cascade"); err != nil {
		t.Fatalf("delete apartment: %v", err)
	}

	if err := d.QueryRow(`SELECT COUNT(*) FROM comments WHERE apartment_id = ?`, "apt-cascade").Scan(&count); err != nil {
		t.Fatalf("count comments after delete: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 comments after cascade delete, got %d", count)
	}
}

func TestReplyColumnAddedToOlderSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, err := raw.Exec(migrations[0]); err != nil {
		t.Fatalf("create apartments: %v", err)
	}
	if _, err := raw.Exec(migrations[1]); err != nil {
		t.Fatalf("create comments: %v", err)
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("close raw: %v", err)
	}

	d, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()

	cols := tableColumns(t, d, "comments")
	if cols[len(cols)-1] != "parent_comment_id" {
		t.Errorf("last column = %q, want parent_comment_id", cols[len(cols)-1])
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rent-finder.db")

	// Open twice; migrations must not fail on the second run
	d1, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := d1.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}

	d2, err := Open(path)
	if err != nil {
		t.Fatalf("second open (idempotency): %v", err)
	}
	if err := d2.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	p, err := DefaultPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Base(p) != "rent-finder.db" {
		t.Errorf("expected filename rent-finder.db, got %s", filepath.Base(p))
	}

	dir := filepath.Base(filepath.Dir(p))
	if dir != "rf" {
		t.Errorf("expected directory rf, got %s", dir)
	}
}

// openTestDB creates a temporary database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rent-finder.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	return d
}

// tableColumns returns column names for a table using PRAGMA table_info.
func tableColumns(t *testing.T, d *sql.DB, table string) []string {
	t.Helper()
	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		t.Fatalf("pragma table_info(%s): %v", table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			t.Errorf("close rows: %v", err)
		}
	}()

	var cols []string
	for rows.Next() {
		var cid int
		var name, typ string
		var notnull int
		var dflt *string
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}
