// Package gatewaytest provides an in-memory Gateway whose streams are driven
// by the test.
package gatewaytest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/evcraddock/rent-finder/internal/apartment"
	"github.com/evcraddock/rent-finder/internal/comment"
	"github.com/evcraddock/rent-finder/internal/gateway"
	"github.com/evcraddock/rent-finder/internal/live"
)

// FavoriteCall records one UpdateFavorite.
type FavoriteCall struct {
	ID  string
	Fav bool
}

// Fake is a Gateway that never emits on its own. Call the Emit methods to
// push values to the current watchers.
type Fake struct {
	FavoriteErr     error
	AddApartmentErr error
	AddCommentErr   error

	mu         sync.Mutex
	seq        int
	apartments watchers[[]apartment.Apartment]
	apartment  watchers[*apartment.Apartment]
	comments   watchers[[]comment.Comment]
	replies    watchers[[]comment.Comment]
	favorites  []FavoriteCall
	added      []apartment.Apartment
	posted     []comment.Comment
}

var _ gateway.Gateway = (*Fake)(nil)

// New creates an empty fake.
func New() *Fake {
	return &Fake{}
}

func (f *Fake) WatchApartments(obs live.Observer[[]apartment.Apartment]) live.Subscription {
	return watch(f, &f.apartments, "", obs)
}

func (f *Fake) WatchApartment(id string, obs live.Observer[*apartment.Apartment]) live.Subscription {
	return watch(f, &f.apartment, id, obs)
}

func (f *Fake) AddApartment(ctx context.Context, a apartment.Apartment) (string, error) {
	if err := gateway.CheckApartment(a); err != nil {
		return "", err
	}
	if f.AddApartmentErr != nil {
		return "", gateway.AddApartmentFailed(f.AddApartmentErr)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	a.ID = fmt.Sprintf("apt-%d", f.seq)
	f.added = append(f.added, a)
	return a.ID, nil
}

func (f *Fake) UpdateFavorite(ctx context.Context, id string, fav bool) error {
	f.mu.Lock()
	f.favorites = append(f.favorites, FavoriteCall{ID: id, Fav: fav})
	f.mu.Unlock()
	if f.FavoriteErr != nil {
		return gateway.FavoriteFailed(f.FavoriteErr)
	}
	return nil
}

func (f *Fake) WatchComments(apartmentID string, obs live.Observer[[]comment.Comment]) live.Subscription {
	return watch(f, &f.comments, apartmentID, obs)
}

func (f *Fake) WatchReplies(parentID string, obs live.Observer[[]comment.Comment]) live.Subscription {
	return watch(f, &f.replies, parentID, obs)
}

func (f *Fake) AddComment(ctx context.Context, c comment.Comment) (string, error) {
	if f.AddCommentErr != nil {
		return "", &gateway.SubmissionError{Err: f.AddCommentErr}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	c.ID = fmt.Sprintf("c-%d", f.seq)
	f.posted = append(f.posted, c)
	return c.ID, nil
}

// EmitApartments pushes a list to every apartment list watcher.
func (f *Fake) EmitApartments(list []apartment.Apartment) {
	for _, o := range observers(f, &f.apartments, "") {
		o.Emit(list)
	}
}

// FailApartments pushes an error to every apartment list watcher.
func (f *Fake) FailApartments(err error) {
	for _, o := range observers(f, &f.apartments, "") {
		o.Fail(err)
	}
}

// EmitApartment pushes a record, or nil for a missing one.
func (f *Fake) EmitApartment(id string, a *apartment.Apartment) {
	for _, o := range observers(f, &f.apartment, id) {
		o.Emit(a)
	}
}

// FailApartment pushes an error to the watchers of one record.
func (f *Fake) FailApartment(id string, err error) {
	for _, o := range observers(f, &f.apartment, id) {
		o.Fail(err)
	}
}

// EmitComments pushes top-level comments for an apartment.
func (f *Fake) EmitComments(apartmentID string, list []comment.Comment) {
	for _, o := range observers(f, &f.comments, apartmentID) {
		o.Emit(list)
	}
}

// EmitReplies pushes replies for a parent comment.
func (f *Fake) EmitReplies(parentID string, list []comment.Comment) {
	for _, o := range observers(f, &f.replies, parentID) {
		o.Emit(list)
	}
}

// Watching returns the number of active apartment list watchers.
func (f *Fake) Watching() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apartments.count("")
}

// WatchingApartment returns the number of active watchers of one record.
func (f *Fake) WatchingApartment(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apartment.count(id)
}

// WatchingComments returns the apartment IDs with active comment watchers.
func (f *Fake) WatchingComments() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments.keys()
}

// WatchingReplies returns the parent IDs with active reply watchers.
func (f *Fake) WatchingReplies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replies.keys()
}

// LastReplyObserver returns the most recent reply observer registered for
// parentID, even if it has since been released.
func (f *Fake) LastReplyObserver(parentID string) (live.Observer[[]comment.Comment], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obs, ok := f.replies.last[parentID]
	return obs, ok
}

// Favorites returns every UpdateFavorite call so far.
func (f *Fake) Favorites() []FavoriteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FavoriteCall(nil), f.favorites...)
}

// Added returns every stored apartment.
func (f *Fake) Added() []apartment.Apartment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apartment.Apartment(nil), f.added...)
}

// Posted returns every stored comment.
func (f *Fake) Posted() []comment.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]comment.Comment(nil), f.posted...)
}

type watchers[T any] struct {
	byKey map[string]map[int]live.Observer[T]
	last  map[string]live.Observer[T]
}

func (w *watchers[T]) count(key string) int {
	return len(w.byKey[key])
}

func (w *watchers[T]) keys() []string {
	out := make([]string, 0, len(w.byKey))
	for k, m := range w.byKey {
		if len(m) > 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func watch[T any](f *Fake, w *watchers[T], key string, obs live.Observer[T]) live.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w.byKey == nil {
		w.byKey = make(map[string]map[int]live.Observer[T])
	}
	if w.byKey[key] == nil {
		w.byKey[key] = make(map[int]live.Observer[T])
	}
	if w.last == nil {
		w.last = make(map[string]live.Observer[T])
	}
	f.seq++
	n := f.seq
	w.byKey[key][n] = obs
	w.last[key] = obs

	return live.Func(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(w.byKey[key], n)
		if len(w.byKey[key]) == 0 {
			delete(w.byKey, key)
		}
	})
}

func observers[T any](f *Fake, w *watchers[T], key string) []live.Observer[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]int, 0, len(w.byKey[key]))
	for n := range w.byKey[key] {
		keys = append(keys, n)
	}
	sort.Ints(keys)
	out := make([]live.Observer[T], 0, len(keys))
	for _, n := range keys {
		out = append(out, w.byKey[key][n])
	}
	return out
}
