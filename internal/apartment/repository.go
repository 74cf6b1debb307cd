package apartment

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository stores apartments in SQLite. The full document is kept as JSON;
// the favorite flag and creation time live in their own columns.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an apartment repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, doc, is_favorite, created_at`

// Insert stores a new apartment, assigning an ID when it has none.
func (r *Repository) Insert(a Apartment) (*Apartment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	doc, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encoding apartment: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO apartments (id, title, street_address, doc, is_favorite, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Location.StreetAddress, string(doc), a.IsFavorite, a.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting apartment: %w", err)
	}

	return r.GetByID(a.ID)
}

// GetByID returns an apartment by its ID, or ErrNotFound.
func (r *Repository) GetByID(id string) (*Apartment, error) {
	row := r.db.QueryRow(fmt.Sprintf("SELECT %s FROM apartments WHERE id = ?", selectColumns), id)

	a, err := scanApartment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("apartment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying apartment %s: %w", id, err)
	}
	return a, nil
}

// List returns all apartments, newest first.
func (r *Repository) List() (list []Apartment, err error) {
	rows, err := r.db.Query(fmt.Sprintf("SELECT %s FROM apartments ORDER BY created_at DESC, rowid DESC", selectColumns))
	if err != nil {
		return nil, fmt.Errorf("listing apartments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	list = make([]Apartment, 0)
	for rows.Next() {
		a, err := scanApartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning apartment: %w", err)
		}
		list = append(list, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating apartments: %w", err)
	}

	return list, nil
}

// SetFavorite updates the favorite flag.
func (r *Repository) SetFavorite(id string, fav bool) error {
	result, err := r.db.Exec("UPDATE apartments SET is_favorite = ? WHERE id = ?", fav, id)
	if err != nil {
		return fmt.Errorf("updating favorite: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("apartment %s: %w", id, ErrNotFound)
	}

	return nil
}

// scanApartment scans an apartment from a database row.
func scanApartment(row interface{ Scan(...interface{}) error }) (*Apartment, error) {
	var (
		id, doc   string
		fav       int64
		createdAt time.Time
	)
	if err := row.Scan(&id, &doc, &fav, &createdAt); err != nil {
		return nil, err
	}

	var a Apartment
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		return nil, fmt.Errorf("apartment %s: %w: %v", id, ErrMalformed, err)
	}
	a.ID = id
	a.IsFavorite = fav == 1
	a.CreatedAt = createdAt
	return &a, nil
}
