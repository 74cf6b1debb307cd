// Package apartment provides the apartment domain model and data access.
package apartment

import (
	"errors"
	"strings"
	"time"
)

// Location is where an apartment is.
type Location struct {
	StreetAddress string `json:"streetAddress" firestore:"streetAddress"`
}

// Details describes the unit itself.
type Details struct {
	SquareFeet int    `json:"squareFeet" firestore:"squareFeet" validate:"gte=0"`
	LeaseType  string `json:"leaseType" firestore:"leaseType"`
	Beds       int    `json:"beds" firestore:"beds" validate:"gte=0"`
	Baths      int    `json:"baths" firestore:"baths" validate:"gte=0"`
}

// Rent is the asking rent.
type Rent struct {
	Amount     int  `json:"expectedRent" firestore:"expectedRent" validate:"gte=0"`
	Negotiable bool `json:"negotiable" firestore:"negotiable"`
}

// Apartment represents a rental listing.
//
// ID is the document identifier and is never stored inside the document.
// IsFavorite is read through Favorite so that stored non-bool values
// decode as false.
type Apartment struct {
	ID                string    `json:"id" firestore:"-"`
	Building          string    `json:"apartmentBuilding" firestore:"apartmentBuilding"`
	BuildingName      string    `json:"apartmentBuildingName,omitempty" firestore:"apartmentBuildingName,omitempty"`
	IsShared          bool      `json:"isShared" firestore:"isShared"`
	Location          Location  `json:"propertyLocation" firestore:"propertyLocation"`
	Details           Details   `json:"propertyDetails" firestore:"propertyDetails"`
	Rent              Rent      `json:"expectedRent" firestore:"expectedRent"`
	UtilitiesIncluded bool      `json:"utilitiesIncluded" firestore:"utilitiesIncluded"`
	IsFurnished       bool      `json:"isFurnished" firestore:"isFurnished"`
	Amenities         []string  `json:"amenities" firestore:"amenities"`
	Title             string    `json:"title" firestore:"title" validate:"notblank"`
	Description       string    `json:"description" firestore:"description" validate:"notblank"`
	Images            []string  `json:"images" firestore:"images"`
	IsFavorite        bool      `json:"isFavorite" firestore:"-"`
	ContactName       string    `json:"contactName" firestore:"contactName" validate:"notblank"`
	ContactEmail      string    `json:"contactEmail" firestore:"contactEmail" validate:"notblank"`
	CreatedAt         time.Time `json:"createdAt" firestore:"createdAt"`
}

// ErrNotFound is returned when an apartment does not exist.
var ErrNotFound = errors.New("apartment not found")

// ErrMalformed is returned when a stored document cannot be decoded.
var ErrMalformed = errors.New("malformed apartment document")

// Favorite coerces a stored favorite value to a strict bool.
func Favorite(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}

// Normalize returns a copy of a whose image list is never empty.
func Normalize(a Apartment, placeholder string) Apartment {
	if len(a.Images) == 0 {
		a.Images = []string{placeholder}
	} else {
		a.Images = append([]string(nil), a.Images...)
	}
	a.Amenities = append([]string(nil), a.Amenities...)
	return a
}

// NormalizeAll normalizes every record.
func NormalizeAll(list []Apartment, placeholder string) []Apartment {
	out := make([]Apartment, len(list))
	for i, a := range list {
		out[i] = Normalize(a, placeholder)
	}
	return out
}

// DisplayBuilding returns the free-text building name when given, else the
// catalogue building.
func (a Apartment) DisplayBuilding() string {
	if name := strings.TrimSpace(a.BuildingName); name != "" {
		return name
	}
	return a.Building
}

// Clone returns a deep copy.
func (a *Apartment) Clone() *Apartment {
	if a == nil {
		return nil
	}
	c := *a
	c.Images = append([]string(nil), a.Images...)
	c.Amenities = append([]string(nil), a.Amenities...)
	return &c
}
