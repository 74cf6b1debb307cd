package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/rent-finder/internal/apartment"
	"github.com/evcraddock/rent-finder/internal/comment"
	"github.com/evcraddock/rent-finder/internal/db"
	"github.com/evcraddock/rent-finder/internal/gateway"
	"github.com/evcraddock/rent-finder/internal/live"
)

// stream collects the emissions of a live read.
type stream[T any] struct {
	values chan T
	errs   chan error
}

func newStream[T any]() *stream[T] {
	return &stream[T]{values: make(chan T, 32), errs: make(chan error, 32)}
}

func (s *stream[T]) observer() live.Observer[T] {
	return live.Observer[T]{
		Next: func(v T) { s.values <- v },
		Err:  func(err error) { s.errs <- err },
	}
}

func (s *stream[T]) next(t *testing.T) T {
	t.Helper()
	select {
	case v := <-s.values:
		return v
	case err := <-s.errs:
		t.Fatalf("unexpected stream error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emission")
	}
	var zero T
	return zero
}

func (s *stream[T]) err(t *testing.T) error {
	t.Helper()
	select {
	case err := <-s.errs:
		return err
	case v := <-s.values:
		t.Fatalf("unexpected emission %v", v)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
	return nil
}

func validApartment(title string) apartment.Apartment {
	return apartment.Apartment{
		Title:        title,
		Description:  "Two rooms",
		ContactName:  "Dana",
		ContactEmail: "dana@example.com",
		Rent:         apartment.Rent{Amount: 1200},
	}
}

func TestWatchApartmentsSeesAdds(t *testing.T) {
	gw := testLocal(t)
	s := newStream[[]apartment.Apartment]()
	sub := gw.WatchApartments(s.observer())
	defer sub.Release()

	if got := s.next(t); len(got) != 0 {
		t.Fatalf("initial = %d apartments, want 0", len(got))
	}

	id, err := gw.AddApartment(context.Background(), validApartment("Loft"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got := s.next(t)
	if len(got) != 1 || got[0].ID != id || got[0].Title != "Loft" {
		t.Fatalf("after add = %+v", got)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("expected creation time stamped")
	}
}

func TestAddApartmentValidation(t *testing.T) {
	gw := testLocal(t)

	a := validApartment("")
	_, err := gw.AddApartment(context.Background(), a)
	var verr *gateway.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if verr.Error() != apartment.RequiredFieldsMessage {
		t.Errorf("message = %q", verr.Error())
	}

	list, err := gw.apartments.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("stored %d apartments, want 0", len(list))
	}
}

func TestWatchApartmentFavorite(t *testing.T) {
	gw := testLocal(t)
	ctx := context.Background()

	id, err := gw.AddApartment(ctx, validApartment("Loft"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	s := newStream[*apartment.Apartment]()
	sub := gw.WatchApartment(id, s.observer())
	defer sub.Release()

	if got := s.next(t); got == nil || got.IsFavorite {
		t.Fatalf("initial = %+v, want unfavorited apartment", got)
	}

	if err := gw.UpdateFavorite(ctx, id, true); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if got := s.next(t); got == nil || !got.IsFavorite {
		t.Fatalf("after favorite = %+v, want favorited", got)
	}
}

func TestWatchApartmentMissing(t *testing.T) {
	gw := testLocal(t)
	s := newStream[*apartment.Apartment]()
	sub := gw.WatchApartment("missing", s.observer())
	defer sub.Release()

	if got := s.next(t); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestUpdateFavoriteMissing(t *testing.T) {
	gw := testLocal(t)
	err := gw.UpdateFavorite(context.Background(), "missing", true)
	var berr *gateway.BackendError
	if !errors.As(err, &berr) {
		t.Fatalf("err = %v, want *BackendError", err)
	}
	if !errors.Is(err, apartment.ErrNotFound) {
		t.Error("expected ErrNotFound in chain")
	}
}

func TestMalformedApartmentStream(t *testing.T) {
	gw := testLocal(t)
	if _, err := gw.db.Exec(
		`INSERT INTO apartments (id, title, doc, created_at) VALUES (?, ?, ?, ?)`,
		"bad", "Bad", "[1,2", time.Now(),
	); err != nil {
		t.Fatalf("insert raw: %v", err)
	}

	s := newStream[[]apartment.Apartment]()
	sub := gw.WatchApartments(s.observer())
	defer sub.Release()

	if err := s.err(t); !errors.Is(err, gateway.ErrMalformedPayload) {
		t.Errorf("err = %v, want ErrMalformedPayload", err)
	}
}

func TestCommentRoundTrip(t *testing.T) {
	gw := testLocal(t)
	ctx := context.Background()

	aptID, err := gw.AddApartment(ctx, validApartment("Loft"))
	if err != nil {
		t.Fatalf("add apartment: %v", err)
	}

	top := newStream[[]comment.Comment]()
	topSub := gw.WatchComments(aptID, top.observer())
	defer topSub.Release()
	if got := top.next(t); len(got) != 0 {
		t.Fatalf("initial comments = %d, want 0", len(got))
	}

	parentID, err := gw.AddComment(ctx, comment.Comment{ApartmentID: aptID, UserID: "u1", Username: "a@example.com", Text: "Is parking included?"})
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	got := top.next(t)
	if len(got) != 1 || got[0].ID != parentID || got[0].IsReply() {
		t.Fatalf("comments = %+v", got)
	}

	replies := newStream[[]comment.Comment]()
	replySub := gw.WatchReplies(parentID, replies.observer())
	defer replySub.Release()
	if got := replies.next(t); len(got) != 0 {
		t.Fatalf("initial replies = %d, want 0", len(got))
	}

	for _, text := range []string{"Yes", "Two spots"} {
		if _, err := gw.AddComment(ctx, comment.Comment{ApartmentID: aptID, UserID: "u2", Text: text, ParentCommentID: &parentID}); err != nil {
			t.Fatalf("add reply %q: %v", text, err)
		}
		replies.next(t)
	}

	final, err := gw.comments.ListReplies(parentID)
	if err != nil {
		t.Fatalf("list replies: %v", err)
	}
	if len(final) != 2 || final[0].Text != "Yes" || final[1].Text != "Two spots" {
		t.Errorf("replies = %+v, want Yes then Two spots", final)
	}

	select {
	case extra := <-top.values:
		t.Errorf("replies re-emitted top-level comments: %+v", extra)
	default:
	}
}

func TestAddCommentFailure(t *testing.T) {
	gw := testLocal(t)
	missing := "missing"
	_, err := gw.AddComment(context.Background(), comment.Comment{ApartmentID: "a", UserID: "u", Text: "hi", ParentCommentID: &missing})
	var serr *gateway.SubmissionError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want *SubmissionError", err)
	}
	if !errors.Is(err, comment.ErrInvalidParent) {
		t.Error("expected ErrInvalidParent in chain")
	}
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, ...string) error {
	p.calls++
	return errors.New("redis down")
}

func TestPublisherFailureFallsBackToHub(t *testing.T) {
	pub := &failingPublisher{}
	gw := testLocal(t, WithPublisher(pub))

	s := newStream[[]apartment.Apartment]()
	sub := gw.WatchApartments(s.observer())
	defer sub.Release()
	s.next(t)

	if _, err := gw.AddApartment(context.Background(), validApartment("Loft")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := s.next(t); len(got) != 1 {
		t.Errorf("got %d apartments, want 1", len(got))
	}
	if pub.calls != 1 {
		t.Errorf("publisher calls = %d, want 1", pub.calls)
	}
}

func TestWithClock(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	gw := testLocal(t, WithClock(func() time.Time { return at }))

	id, err := gw.AddApartment(context.Background(), validApartment("Loft"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	a, err := gw.apartments.GetByID(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !a.CreatedAt.Equal(at) {
		t.Errorf("created_at = %v, want %v", a.CreatedAt, at)
	}
}

func TestTopicEncoding(t *testing.T) {
	topics := []string{TopicApartments, ApartmentTopic("a1"), RepliesTopic("c1")}
	got := decodeTopics(encodeTopics(topics))
	if len(got) != 3 || got[1] != "apartment/a1" || got[2] != "replies/c1" {
		t.Errorf("decoded = %v", got)
	}
	if got := decodeTopics("\n \n"); len(got) != 0 {
		t.Errorf("blank payload decoded to %v", got)
	}
}

type localHarness struct {
	*Local
	db *sql.DB
}

// testLocal opens a fresh database and gateway.
func testLocal(t *testing.T, opts ...LocalOption) *localHarness {
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
	return &localHarness{Local: NewLocal(d, live.NewHub(), opts...), db: d}
}
