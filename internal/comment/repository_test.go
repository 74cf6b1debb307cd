package comment

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/rent-finder/internal/db"
)

func TestAddAndListTopLevel(t *testing.T) {
	repo, aptID := testSetup(t)

	c, err := repo.Add(Comment{ApartmentID: aptID, UserID: "u1", Username: "dana@example.com", Text: "Nice balcony"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.ID == "" {
		t.Error("expected generated ID")
	}
	if c.ApartmentID != aptID {
		t.Errorf("apartment_id = %q, want %q", c.ApartmentID, aptID)
	}
	if c.IsReply() {
		t.Error("expected top-level comment")
	}

	comments, err := repo.ListTopLevel(aptID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(comments))
	}
	if comments[0].Text != "Nice balcony" {
		t.Errorf("text = %q, want %q", comments[0].Text, "Nice balcony")
	}
	if comments[0].Username != "dana@example.com" {
		t.Errorf("username = %q", comments[0].Username)
	}
}

func TestAddEmptyText(t *testing.T) {
	repo, aptID := testSetup(t)

	if _, err := repo.Add(Comment{ApartmentID: aptID, UserID: "u1", Text: "  "}); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("err = %v, want ErrEmptyText", err)
	}
}

func TestListTopLevelEmpty(t *testing.T) {
	repo, _ := testSetup(t)

	comments, err := repo.ListTopLevel("nope")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("got %d comments, want 0", len(comments))
	}
}

func TestTopLevelNewestFirstRepliesOldestFirst(t *testing.T) {
	repo, aptID := testSetup(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	var top []*Comment
	for i, text := range []string{"first", "second", "third"} {
		c, err := repo.Add(Comment{ApartmentID: aptID, UserID: "u1", Text: text, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		if err != nil {
			t.Fatalf("add %q: %v", text, err)
		}
		top = append(top, c)
	}

	parent := top[0].ID
	for i, text := range []string{"reply a", "reply b"} {
		if _, err := repo.Add(Comment{
			ApartmentID:     aptID,
			UserID:          "u2",
			Text:            text,
			CreatedAt:       base.Add(time.Hour + time.Duration(i)*time.Minute),
			ParentCommentID: &parent,
		}); err != nil {
			t.Fatalf("add reply %q: %v", text, err)
		}
	}

	comments, err := repo.ListTopLevel(aptID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("got %d top-level comments, want 3", len(comments))
	}
	if comments[0].Text != "third" || comments[2].Text != "first" {
		t.Errorf("order = %q..%q, want third..first", comments[0].Text, comments[2].Text)
	}

	replies, err := repo.ListReplies(parent)
	if err != nil {
		t.Fatalf("list replies: %v", err)
	}
	if len(replies) != 2 {
		t.Fatalf("got %d replies, want 2", len(replies))
	}
	if replies[0].Text != "reply a" || replies[1].Text != "reply b" {
		t.Errorf("replies = %q, %q; want oldest first", replies[0].Text, replies[1].Text)
	}
	if replies[0].Parent() != parent {
		t.Errorf("parent = %q, want %q", replies[0].Parent(), parent)
	}
}

func TestReplyParentRules(t *testing.T) {
	repo, aptID := testSetup(t)
	otherApt := insertApartment(t, repo.db, "apt-other")

	top, err := repo.Add(Comment{ApartmentID: aptID, UserID: "u1", Text: "top"})
	if err != nil {
		t.Fatalf("add top: %v", err)
	}
	reply, err := repo.Add(Comment{ApartmentID: aptID, UserID: "u1", Text: "reply", ParentCommentID: &top.ID})
	if err != nil {
		t.Fatalf("add reply: %v", err)
	}

	missing := "missing"
	tests := []struct {
		name   string
		aptID  string
		parent *string
	}{
		{"missing parent", aptID, &missing},
		{"nested reply", aptID, &reply.ID},
		{"other apartment", otherApt, &top.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Add(Comment{ApartmentID: tt.aptID, UserID: "u1", Text: "x", ParentCommentID: tt.parent})
			if !errors.Is(err, ErrInvalidParent) {
				t.Errorf("err = %v, want ErrInvalidParent", err)
			}
		})
	}
}

func TestUserImageStored(t *testing.T) {
	repo, aptID := testSetup(t)

	if _, err := repo.Add(Comment{ApartmentID: aptID, UserID: "u1", Text: "hi", UserImage: "https://img/u1.png"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	comments, err := repo.ListTopLevel(aptID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if comments[0].UserImage != "https://img/u1.png" {
		t.Errorf("user_image = %q", comments[0].UserImage)
	}
}

func testSetup(t *testing.T) (*Repository, string) {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d), insertApartment(t, d, "apt-1")
}

func insertApartment(t *testing.T, d *sql.DB, id string) string {
	t.Helper()
	if _, err := d.Exec(
		`INSERT INTO apartments (id, title, doc, created_at) VALUES (?, ?, ?, ?)`,
		id, "Loft", "{}", time.Now(),
	); err != nil {
		t.Fatalf("insert apartment: %v", err)
	}
	return id
}
