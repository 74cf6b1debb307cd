package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/evcraddock/rent-finder/internal/apartment"
	"github.com/evcraddock/rent-finder/internal/comment"
	"github.com/evcraddock/rent-finder/internal/gateway"
	"github.com/evcraddock/rent-finder/internal/live"
)

// Firestore collection names.
const (
	ApartmentsCollection = "apartments"
	CommentsCollection   = "comments"
)

// Firestore is a Gateway over Cloud Firestore. Watches are snapshot
// listeners, so writes from any client reach every subscriber.
type Firestore struct {
	client *firestore.Client
	now    func() time.Time
}

var _ gateway.Gateway = (*Firestore)(nil)

// NewFirestore creates a Firestore-backed gateway.
func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client, now: time.Now}
}

// apartmentDoc is the stored form of an apartment; the favorite flag is
// written explicitly because the model reads it leniently.
type apartmentDoc struct {
	apartment.Apartment
	IsFavorite bool `firestore:"isFavorite"`
}

// WatchApartments implements gateway.Gateway.
func (f *Firestore) WatchApartments(obs live.Observer[[]apartment.Apartment]) live.Subscription {
	q := f.client.Collection(ApartmentsCollection).Query
	return watchQuery(q, func(docs []*firestore.DocumentSnapshot) ([]apartment.Apartment, error) {
		list := make([]apartment.Apartment, 0, len(docs))
		for _, d := range docs {
			a, err := decodeApartment(d)
			if err != nil {
				return nil, err
			}
			list = append(list, a)
		}
		return list, nil
	}, obs)
}

// WatchApartment implements gateway.Gateway.
func (f *Firestore) WatchApartment(id string, obs live.Observer[*apartment.Apartment]) live.Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	it := f.client.Collection(ApartmentsCollection).Doc(id).Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if ctx.Err() != nil || errors.Is(err, iterator.Done) {
				return
			}
			if snap != nil && !snap.Exists() {
				obs.Emit(nil)
				continue
			}
			if err != nil {
				obs.Fail(&gateway.BackendError{Op: "watch apartment", Err: err})
				return
			}
			a, err := decodeApartment(snap)
			if err != nil {
				obs.Fail(err)
				continue
			}
			obs.Emit(&a)
		}
	}()

	return live.Func(cancel)
}

// AddApartment implements gateway.Gateway.
func (f *Firestore) AddApartment(ctx context.Context, a apartment.Apartment) (string, error) {
	if err := gateway.CheckApartment(a); err != nil {
		return "", err
	}
	a.CreatedAt = f.now()

	ref, _, err := f.client.Collection(ApartmentsCollection).Add(ctx, apartmentDoc{Apartment: a, IsFavorite: a.IsFavorite})
	if err != nil {
		return "", gateway.AddApartmentFailed(err)
	}
	return ref.ID, nil
}

// UpdateFavorite implements gateway.Gateway.
func (f *Firestore) UpdateFavorite(ctx context.Context, id string, fav bool) error {
	_, err := f.client.Collection(ApartmentsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "isFavorite", Value: fav},
	})
	if err != nil {
		return gateway.FavoriteFailed(err)
	}
	return nil
}

// WatchComments implements gateway.Gateway.
func (f *Firestore) WatchComments(apartmentID string, obs live.Observer[[]comment.Comment]) live.Subscription {
	q := f.client.Collection(CommentsCollection).
		Where("apartmentId", "==", apartmentID).
		Where("parentCommentId", "==", nil).
		OrderBy("timestamp", firestore.Desc)
	return watchQuery(q, decodeComments, obs)
}

// WatchReplies implements gateway.Gateway.
func (f *Firestore) WatchReplies(parentID string, obs live.Observer[[]comment.Comment]) live.Subscription {
	q := f.client.Collection(CommentsCollection).
		Where("parentCommentId", "==", parentID).
		OrderBy("timestamp", firestore.Asc)
	return watchQuery(q, decodeComments, obs)
}

// AddComment implements gateway.Gateway.
func (f *Firestore) AddComment(ctx context.Context, c comment.Comment) (string, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = f.now()
	}
	if c.ParentCommentID != nil {
		if err := f.checkParent(ctx, c.ApartmentID, *c.ParentCommentID); err != nil {
			return "", &gateway.SubmissionError{Err: err}
		}
	}
	ref, _, err := f.client.Collection(CommentsCollection).Add(ctx, c)
	if err != nil {
		return "", &gateway.SubmissionError{Err: err}
	}
	return ref.ID, nil
}

// checkParent returns comment.ErrInvalidParent unless parentID names a
// top-level comment of apartmentID.
func (f *Firestore) checkParent(ctx context.Context, apartmentID, parentID string) error {
	if parentID == "" {
		return comment.ErrInvalidParent
	}
	snap, err := f.client.Collection(CommentsCollection).Doc(parentID).Get(ctx)
	if snap != nil && !snap.Exists() {
		return comment.ErrInvalidParent
	}
	if err != nil {
		return fmt.Errorf("reading parent comment %s: %w", parentID, err)
	}
	var parent comment.Comment
	if err := snap.DataTo(&parent); err != nil {
		return fmt.Errorf("decoding parent comment %s: %w", parentID, err)
	}
	if parent.ApartmentID != apartmentID || parent.IsReply() {
		return comment.ErrInvalidParent
	}
	return nil
}

// watchQuery runs a snapshot listener on q until the subscription is
// released. Snapshots are read on one goroutine, so emissions keep the
// order Firestore produces them in.
func watchQuery[T any](q firestore.Query, decode func([]*firestore.DocumentSnapshot) (T, error), obs live.Observer[T]) live.Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	it := q.Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if ctx.Err() != nil || errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				obs.Fail(&gateway.BackendError{Op: "watch query", Err: err})
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				obs.Fail(&gateway.BackendError{Op: "read snapshot", Err: err})
				continue
			}
			v, err := decode(docs)
			if err != nil {
				obs.Fail(err)
				continue
			}
			obs.Emit(v)
		}
	}()

	return live.Func(cancel)
}

func decodeApartment(d *firestore.DocumentSnapshot) (apartment.Apartment, error) {
	var a apartment.Apartment
	if err := d.DataTo(&a); err != nil {
		return a, gateway.Malformed(fmt.Errorf("apartment %s: %w", d.Ref.ID, err))
	}
	a.ID = d.Ref.ID

	fav, err := d.DataAt("isFavorite")
	if err == nil {
		a.IsFavorite = apartment.Favorite(fav)
	}
	return a, nil
}

func decodeComments(docs []*firestore.DocumentSnapshot) ([]comment.Comment, error) {
	list := make([]comment.Comment, 0, len(docs))
	for _, d := range docs {
		var c comment.Comment
		if err := d.DataTo(&c); err != nil {
			return nil, &gateway.BackendError{Op: "decode comment", Err: fmt.Errorf("comment %s: %w", d.Ref.ID, err)}
		}
		c.ID = d.Ref.ID
		list = append(list, c)
	}
	return list, nil
}
