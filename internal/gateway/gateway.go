// Package gateway defines the remote data gateway: live reads and writes of
// apartments and comments, independent of the backing store.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evcraddock/rent-finder/internal/apartment"
	"github.com/evcraddock/rent-finder/internal/comment"
	"github.com/evcraddock/rent-finder/internal/live"
)

// Gateway reads and writes apartments and comments. Every Watch call is a
// live subscription: backend changes are pushed to the observer until the
// returned subscription is released.
type Gateway interface {
	// WatchApartments emits every apartment, with IDs, on each change.
	WatchApartments(obs live.Observer[[]apartment.Apartment]) live.Subscription
	// WatchApartment emits one apartment, or nil when it does not exist.
	WatchApartment(id string, obs live.Observer[*apartment.Apartment]) live.Subscription
	// AddApartment validates, stamps the creation time, and stores a.
	AddApartment(ctx context.Context, a apartment.Apartment) (string, error)
	// UpdateFavorite writes the favorite flag of one apartment.
	UpdateFavorite(ctx context.Context, id string, fav bool) error
	// WatchComments emits the top-level comments of an apartment, newest first.
	WatchComments(apartmentID string, obs live.Observer[[]comment.Comment]) live.Subscription
	// WatchReplies emits the replies to a comment, oldest first.
	WatchReplies(parentID string, obs live.Observer[[]comment.Comment]) live.Subscription
	// AddComment stores a comment or reply.
	AddComment(ctx context.Context, c comment.Comment) (string, error)
}

// ErrMalformedPayload is emitted when stored documents cannot be decoded
// into records.
var ErrMalformedPayload = errors.New("malformed payload")

// ValidationError is returned when a record is missing required fields.
// It is raised before any backend call.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BackendError is returned when the backend rejects a read or write.
type BackendError struct {
	Op      string
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// SubmissionFallback is the message of a SubmissionError whose cause has none.
const SubmissionFallback = "Could not submit comment."

// SubmissionError is returned when a comment cannot be stored.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	if e.Err == nil || strings.TrimSpace(e.Err.Error()) == "" {
		return SubmissionFallback
	}
	return e.Err.Error()
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// CheckApartment returns a ValidationError when a lacks required fields.
func CheckApartment(a apartment.Apartment) error {
	if err := apartment.Validate(a); err != nil {
		return &ValidationError{
			Fields:  apartment.MissingFields(err),
			Message: apartment.RequiredFieldsMessage,
		}
	}
	return nil
}

// AddApartmentFailed wraps a backend write failure of AddApartment.
func AddApartmentFailed(err error) error {
	return &BackendError{Op: "add apartment", Message: "Failed to add apartment.", Err: err}
}

// FavoriteFailed wraps a backend write failure of UpdateFavorite.
func FavoriteFailed(err error) error {
	return &BackendError{Op: "update favorite", Err: err}
}

// Malformed marks err as a decode failure of the apartment stream.
func Malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
}
