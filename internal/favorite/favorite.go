// Package favorite implements the favorite toggle shared by the listing and
// detail views.
package favorite

import "context"

// Writer persists a favorite flag.
type Writer interface {
	UpdateFavorite(ctx context.Context, id string, fav bool) error
}

// Toggle shows the inverted flag through apply, writes it, and on failure
// applies the original flag again and returns the write error. apply runs
// on the calling goroutine.
func Toggle(ctx context.Context, w Writer, id string, was bool, apply func(bool)) error {
	apply(!was)
	if err := w.UpdateFavorite(ctx, id, !was); err != nil {
		apply(was)
		return err
	}
	return nil
}
