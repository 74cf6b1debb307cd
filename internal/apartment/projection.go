package apartment

import (
	"fmt"
	"sort"
	"strings"
)

// SortKey orders a listing.
type SortKey string

const (
	SortNone     SortKey = ""
	SortRentAsc  SortKey = "rentAsc"
	SortRentDesc SortKey = "rentDesc"
	SortSizeAsc  SortKey = "sizeAsc"
	SortSizeDesc SortKey = "sizeDesc"
)

// ParseSortKey accepts the known keys and the empty string.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortNone, SortRentAsc, SortRentDesc, SortSizeAsc, SortSizeDesc:
		return k, nil
	}
	return SortNone, fmt.Errorf("unknown sort key %q (want rentAsc, rentDesc, sizeAsc or sizeDesc)", s)
}

// Filter keeps apartments whose title or street address contains text,
// ignoring case. Blank text keeps everything.
func Filter(list []Apartment, text string) []Apartment {
	needle := strings.ToLower(strings.TrimSpace(text))
	out := make([]Apartment, 0, len(list))
	for _, a := range list {
		if needle == "" ||
			strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Location.StreetAddress), needle) {
			out = append(out, a)
		}
	}
	return out
}

// Sort returns a stably sorted copy of list.
func Sort(list []Apartment, key SortKey) []Apartment {
	out := append([]Apartment(nil), list...)
	var less func(a, b Apartment) bool
	switch key {
	case SortRentAsc:
		less = func(a, b Apartment) bool { return a.Rent.Amount < b.Rent.Amount }
	case SortRentDesc:
		less = func(a, b Apartment) bool { return a.Rent.Amount > b.Rent.Amount }
	case SortSizeAsc:
		less = func(a, b Apartment) bool { return a.Details.SquareFeet < b.Details.SquareFeet }
	case SortSizeDesc:
		less = func(a, b Apartment) bool { return a.Details.SquareFeet > b.Details.SquareFeet }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Project filters then sorts.
func Project(list []Apartment, text string, key SortKey) []Apartment {
	return Sort(Filter(list, text), key)
}

// Favorites returns the favorited subset in list order.
func Favorites(list []Apartment) []Apartment {
	out := make([]Apartment, 0)
	for _, a := range list {
		if a.IsFavorite {
			out = append(out, a)
		}
	}
	return out
}

// Replace returns a copy of list with the record matching a.ID swapped for a.
func Replace(list []Apartment, a Apartment) []Apartment {
	out := append([]Apartment(nil), list...)
	for i := range out {
		if out[i].ID == a.ID {
			out[i] = a
		}
	}
	return out
}

// Find returns the record with id.
func Find(list []Apartment, id string) (Apartment, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return Apartment{}, false
}
