package nav

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/evcraddock/rent-finder/internal/apartment"
)

func TestFromQuery(t *testing.T) {
	tests := []struct {
		query  string
		origin Origin
		crumbs []string
		prev   string
	}{
		{"", FromListing, []string{"Detail"}, Dashboard},
		{"fromPostApartment=true", FromPosting, []string{"Post", "Detail"}, PostPage},
		{"fromPreview=1", FromPreview, []string{"Post", "Detail"}, PostPage},
		{"fromPostApartment=false", FromListing, []string{"Detail"}, Dashboard},
		{"fromPostApartment=yes", FromListing, []string{"Detail"}, Dashboard},
	}
	for _, tt := range tests {
		q, err := url.ParseQuery(tt.query)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.query, err)
		}
		target := FromQuery("a1", q)
		if target.RouteID != "a1" {
			t.Errorf("%q: route = %q", tt.query, target.RouteID)
		}
		if target.Origin != tt.origin {
			t.Errorf("%q: origin = %q, want %q", tt.query, target.Origin, tt.origin)
		}
		if !reflect.DeepEqual(target.Breadcrumbs(), tt.crumbs) {
			t.Errorf("%q: breadcrumbs = %v, want %v", tt.query, target.Breadcrumbs(), tt.crumbs)
		}
		if target.PreviousPage() != tt.prev {
			t.Errorf("%q: previous = %q, want %q", tt.query, target.PreviousPage(), tt.prev)
		}
	}
}

func TestTargetsCopyRecord(t *testing.T) {
	a := apartment.Apartment{ID: "a1", Title: "Loft", Images: []string{"x.jpg"}}

	target := ToDetail(a)
	target.Apartment.Images[0] = "changed.jpg"
	if a.Images[0] != "x.jpg" {
		t.Error("target should hold a copy")
	}

	preview := ToPreview(apartment.Apartment{Title: "Draft"})
	if preview.RouteID != PreviewID || preview.Origin != FromPreview {
		t.Errorf("preview = %+v", preview)
	}
}
