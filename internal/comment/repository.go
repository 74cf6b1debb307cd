package comment

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository stores comments in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a comment repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, apartment_id, parent_comment_id, user_id, username, text, user_image, created_at`

// Add stores a new comment, assigning an ID when it has none. Replies must
// point at a top-level comment of the same apartment.
func (r *Repository) Add(c Comment) (*Comment, error) {
	if strings.TrimSpace(c.Text) == "" {
		return nil, ErrEmptyText
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	if c.ParentCommentID != nil {
		var apartmentID string
		var grandparent sql.NullString
		err := r.db.QueryRow(
			"SELECT apartment_id, parent_comment_id FROM comments WHERE id = ?", *c.ParentCommentID,
		).Scan(&apartmentID, &grandparent)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && (apartmentID != c.ApartmentID || grandparent.Valid)) {
			return nil, ErrInvalidParent
		}
		if err != nil {
			return nil, fmt.Errorf("checking parent comment: %w", err)
		}
	}

	_, err := r.db.Exec(
		`INSERT INTO comments (id, apartment_id, parent_comment_id, user_id, username, text, user_image, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ApartmentID, c.ParentCommentID, c.UserID, c.Username, c.Text, c.UserImage, c.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}

	row := r.db.QueryRow(fmt.Sprintf("SELECT %s FROM comments WHERE id = ?", selectColumns), c.ID)
	got, err := scanComment(row)
	if err != nil {
		return nil, fmt.Errorf("reading back comment: %w", err)
	}
	return got, nil
}

// ListTopLevel returns the top-level comments of an apartment, newest first.
func (r *Repository) ListTopLevel(apartmentID string) ([]Comment, error) {
	return r.list(
		"WHERE apartment_id = ? AND parent_comment_id IS NULL ORDER BY created_at DESC, rowid DESC",
		apartmentID,
	)
}

// ListReplies returns the replies to a comment, oldest first.
func (r *Repository) ListReplies(parentID string) ([]Comment, error) {
	return r.list(
		"WHERE parent_comment_id = ? ORDER BY created_at ASC, rowid ASC",
		parentID,
	)
}

func (r *Repository) list(where string, args ...interface{}) (comments []Comment, err error) {
	rows, err := r.db.Query(fmt.Sprintf("SELECT %s FROM comments %s", selectColumns, where), args...)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	comments = make([]Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}

	return comments, nil
}

// scanComment scans a comment from a database row.
func scanComment(row interface{ Scan(...interface{}) error }) (*Comment, error) {
	var c Comment
	var parent sql.NullString
	if err := row.Scan(&c.ID, &c.ApartmentID, &parent, &c.UserID, &c.Username, &c.Text, &c.UserImage, &c.CreatedAt); err != nil {
		return nil, err
	}
	if parent.Valid {
		p := parent.String
		c.ParentCommentID = &p
	}
	return &c, nil
}
