package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evcraddock/rent-finder/internal/apartment"
	"github.com/evcraddock/rent-finder/internal/comment"
	"github.com/evcraddock/rent-finder/internal/gateway"
	"github.com/evcraddock/rent-finder/internal/live"
)

// Local is a Gateway over SQLite. Writes publish change topics; every watch
// re-queries when one of its topics is published.
type Local struct {
	apartments *apartment.Repository
	comments   *comment.Repository
	hub        *live.Hub
	publisher  Publisher
	now        func() time.Time
}

var _ gateway.Gateway = (*Local)(nil)

// LocalOption configures a Local gateway.
type LocalOption func(*Local)

// WithPublisher routes change notifications through p instead of straight
// into the hub. p must eventually deliver them to the hub.
func WithPublisher(p Publisher) LocalOption {
	return func(l *Local) { l.publisher = p }
}

// WithClock overrides the creation-time clock.
func WithClock(now func() time.Time) LocalOption {
	return func(l *Local) { l.now = now }
}

// NewLocal creates a SQLite-backed gateway.
func NewLocal(db *sql.DB, hub *live.Hub, opts ...LocalOption) *Local {
	l := &Local{
		apartments: apartment.NewRepository(db),
		comments:   comment.NewRepository(db),
		hub:        hub,
		publisher:  HubPublisher{Hub: hub},
		now:        time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Hub returns the hub watches listen on.
func (l *Local) Hub() *live.Hub {
	return l.hub
}

// WatchApartments implements gateway.Gateway.
func (l *Local) WatchApartments(obs live.Observer[[]apartment.Apartment]) live.Subscription {
	return live.Watch(l.hub, []string{TopicApartments}, func(context.Context) ([]apartment.Apartment, error) {
		list, err := l.apartments.List()
		if errors.Is(err, apartment.ErrMalformed) {
			return nil, gateway.Malformed(err)
		}
		if err != nil {
			return nil, &gateway.BackendError{Op: "list apartments", Err: err}
		}
		return list, nil
	}, obs)
}

// WatchApartment implements gateway.Gateway.
func (l *Local) WatchApartment(id string, obs live.Observer[*apartment.Apartment]) live.Subscription {
	return live.Watch(l.hub, []string{ApartmentTopic(id)}, func(context.Context) (*apartment.Apartment, error) {
		a, err := l.apartments.GetByID(id)
		if errors.Is(err, apartment.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, &gateway.BackendError{Op: "get apartment", Err: err}
		}
		return a, nil
	}, obs)
}

// AddApartment implements gateway.Gateway.
func (l *Local) AddApartment(ctx context.Context, a apartment.Apartment) (string, error) {
	if err := gateway.CheckApartment(a); err != nil {
		return "", err
	}
	a.ID = ""
	a.CreatedAt = l.now()

	saved, err := l.apartments.Insert(a)
	if err != nil {
		slog.Error("adding apartment", "error", err)
		return "", gateway.AddApartmentFailed(err)
	}

	l.changed(ctx, TopicApartments, ApartmentTopic(saved.ID))
	return saved.ID, nil
}

// UpdateFavorite implements gateway.Gateway.
func (l *Local) UpdateFavorite(ctx context.Context, id string, fav bool) error {
	if err := l.apartments.SetFavorite(id, fav); err != nil {
		return gateway.FavoriteFailed(err)
	}
	l.changed(ctx, TopicApartments, ApartmentTopic(id))
	return nil
}

// WatchComments implements gateway.Gateway.
func (l *Local) WatchComments(apartmentID string, obs live.Observer[[]comment.Comment]) live.Subscription {
	return live.Watch(l.hub, []string{CommentsTopic(apartmentID)}, func(context.Context) ([]comment.Comment, error) {
		list, err := l.comments.ListTopLevel(apartmentID)
		if err != nil {
			return nil, &gateway.BackendError{Op: "list comments", Err: err}
		}
		return list, nil
	}, obs)
}

// WatchReplies implements gateway.Gateway.
func (l *Local) WatchReplies(parentID string, obs live.Observer[[]comment.Comment]) live.Subscription {
	return live.Watch(l.hub, []string{RepliesTopic(parentID)}, func(context.Context) ([]comment.Comment, error) {
		list, err := l.comments.ListReplies(parentID)
		if err != nil {
			return nil, &gateway.BackendError{Op: "list replies", Err: err}
		}
		return list, nil
	}, obs)
}

// AddComment implements gateway.Gateway.
func (l *Local) AddComment(ctx context.Context, c comment.Comment) (string, error) {
	c.ID = ""
	if c.CreatedAt.IsZero() {
		c.CreatedAt = l.now()
	}

	saved, err := l.comments.Add(c)
	if err != nil {
		return "", &gateway.SubmissionError{Err: err}
	}

	topic := CommentsTopic(saved.ApartmentID)
	if saved.IsReply() {
		topic = RepliesTopic(saved.Parent())
	}
	l.changed(ctx, topic)
	return saved.ID, nil
}

// changed announces topics, falling back to the local hub when the
// publisher fails so this process still sees its own writes.
func (l *Local) changed(ctx context.Context, topics ...string) {
	if err := l.publisher.Publish(ctx, topics...); err != nil {
		slog.Warn("publishing change", "topics", fmt.Sprint(topics), "error", err)
		l.hub.Publish(topics...)
	}
}
