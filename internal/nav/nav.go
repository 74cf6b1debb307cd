// Package nav describes how the detail view is reached.
package nav

import (
	"net/url"
	"strconv"

	"github.com/evcraddock/rent-finder/internal/apartment"
)

// Origin is the page a detail view was opened from.
type Origin string

const (
	FromListing Origin = "listing"
	FromPosting Origin = "posting"
	FromPreview Origin = "preview"
)

// Paths and route IDs used when leaving the detail view.
const (
	Dashboard = "/dashboard"
	PostPage  = "/post"
	PreviewID = "preview"
)

// Target is everything the detail view needs to start. Apartment is set when
// the caller already holds the record.
type Target struct {
	Apartment *apartment.Apartment
	RouteID   string
	Origin    Origin
}

// ToDetail opens a known record from the listing.
func ToDetail(a apartment.Apartment) Target {
	return Target{Apartment: a.Clone(), RouteID: a.ID, Origin: FromListing}
}

// ToPreview opens an unsaved record from the posting form.
func ToPreview(a apartment.Apartment) Target {
	return Target{Apartment: a.Clone(), RouteID: PreviewID, Origin: FromPreview}
}

// FromQuery builds a target for a route ID reached by URL, reading the
// fromPostApartment and fromPreview flags.
func FromQuery(routeID string, q url.Values) Target {
	t := Target{RouteID: routeID, Origin: FromListing}
	switch {
	case flag(q, "fromPreview"):
		t.Origin = FromPreview
	case flag(q, "fromPostApartment"):
		t.Origin = FromPosting
	}
	return t
}

func flag(q url.Values, key string) bool {
	v, err := strconv.ParseBool(q.Get(key))
	return err == nil && v
}

// FromPost reports whether the target was opened from the posting flow.
func (t Target) FromPost() bool {
	return t.Origin == FromPosting || t.Origin == FromPreview
}

// Breadcrumbs returns the trail shown above the detail view.
func (t Target) Breadcrumbs() []string {
	if t.FromPost() {
		return []string{"Post", "Detail"}
	}
	return []string{"Detail"}
}

// PreviousPage is where the back link goes.
func (t Target) PreviousPage() string {
	if t.FromPost() {
		return PostPage
	}
	return Dashboard
}
