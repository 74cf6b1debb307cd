package posting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/evcraddock/rent-finder/internal/apartment"
	"github.com/evcraddock/rent-finder/internal/identity"
	"github.com/evcraddock/rent-finder/internal/nav"
)

var (
	// ErrNotAdmin is returned when a non-admin tries to post.
	ErrNotAdmin = errors.New("only administrators can post apartments")
	// ErrNoUploader is returned when files are given but uploads are not configured.
	ErrNoUploader = errors.New("image uploads are not configured")
)

// Store adds apartments.
type Store interface {
	AddApartment(ctx context.Context, a apartment.Apartment) (string, error)
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// File is an image picked for upload.
type File struct {
	Name string
	Body io.Reader
}

// Poster submits posting forms.
type Poster struct {
	store    Store
	uploader Uploader
}

// NewPoster creates a Poster. uploader may be nil.
func NewPoster(store Store, uploader Uploader) *Poster {
	return &Poster{store: store, uploader: uploader}
}

// Preview validates the form and returns a detail target for the unsaved
// listing.
func Preview(f Form) (nav.Target, error) {
	if err := f.Validate(); err != nil {
		return nav.Target{}, err
	}
	return nav.ToPreview(f.Apartment()), nil
}

// Submit uploads files, appends their URLs to the form's images, and stores
// the listing. Only admins may submit.
func (p *Poster) Submit(ctx context.Context, who identity.Identity, f Form, files []File) (string, error) {
	if !identity.IsAdmin(who) {
		return "", ErrNotAdmin
	}
	if err := f.Validate(); err != nil {
		return "", err
	}

	a := f.Apartment()
	if len(files) > 0 {
		urls, err := p.Upload(ctx, files)
		if err != nil {
			return "", err
		}
		a.Images = append(a.Images, urls...)
	}

	id, err := p.store.AddApartment(ctx, a)
	if err != nil {
		return "", err
	}
	slog.Info("apartment posted", "id", id, "title", a.Title)
	return id, nil
}

// Upload stores each file in order and returns their URLs. The first
// failure stops the upload.
func (p *Poster) Upload(ctx context.Context, files []File) ([]string, error) {
	if p.uploader == nil {
		return nil, ErrNoUploader
	}
	urls := make([]string, 0, len(files))
	for _, file := range files {
		u, err := p.uploader.Upload(ctx, file.Name, file.Body)
		if err != nil {
			return nil, fmt.Errorf("uploading %s: %w", file.Name, err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}
