package posting

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/evcraddock/rent-finder/internal/apartment"
	"github.com/evcraddock/rent-finder/internal/gateway"
)

// MaxDescription is the longest description accepted.
const MaxDescription = 1400

// InvalidFormMessage is shown when the form fails validation.
const InvalidFormMessage = "Please complete all required fields."

// Form is the post-an-apartment form. Amenities holds the checked names.
type Form struct {
	Building          string   `json:"apartmentBuilding"`
	BuildingName      string   `json:"apartmentBuildingName"`
	IsShared          bool     `json:"isShared"`
	StreetAddress     string   `json:"streetAddress" validate:"notblank"`
	SquareFeet        int      `json:"squareFeet" validate:"min=1"`
	LeaseType         string   `json:"leaseType" validate:"leasetype"`
	Beds              int      `json:"beds" validate:"min=0"`
	Baths             int      `json:"baths" validate:"min=0"`
	Rent              int      `json:"expectedRent" validate:"min=1"`
	Negotiable        bool     `json:"negotiable"`
	UtilitiesIncluded bool     `json:"utilitiesIncluded"`
	IsFurnished       bool     `json:"isFurnished"`
	Amenities         []string `json:"amenities"`
	Description       string   `json:"description" validate:"notblank,max=1400"`
	Title             string   `json:"title" validate:"notblank"`
	Images            []string `json:"images"`
	ContactName       string   `json:"contactName" validate:"notblank"`
	ContactEmail      string   `json:"contactEmail" validate:"required,email"`
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	rules := map[string]validator.Func{
		"notblank": func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
		"leasetype": func(fl validator.FieldLevel) bool {
			return contains(Choices().LeaseTypes, fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

// Validate checks the form. Failures are *gateway.ValidationError listing
// the offending fields.
func (f Form) Validate() error {
	err := formValidator.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &gateway.ValidationError{Fields: fields, Message: InvalidFormMessage}
}

// Apartment builds the listing the form describes. The free-text building
// name wins over the catalogue building, and amenities keep catalogue order.
func (f Form) Apartment() apartment.Apartment {
	building := strings.TrimSpace(f.BuildingName)
	if building == "" {
		building = f.Building
	}

	var amenities []string
	for _, a := range Choices().Amenities {
		if contains(f.Amenities, a) {
			amenities = append(amenities, a)
		}
	}

	return apartment.Apartment{
		Building:          building,
		BuildingName:      strings.TrimSpace(f.BuildingName),
		IsShared:          f.IsShared,
		Location:          apartment.Location{StreetAddress: strings.TrimSpace(f.StreetAddress)},
		Details:           apartment.Details{SquareFeet: f.SquareFeet, LeaseType: f.LeaseType, Beds: f.Beds, Baths: f.Baths},
		Rent:              apartment.Rent{Amount: f.Rent, Negotiable: f.Negotiable},
		UtilitiesIncluded: f.UtilitiesIncluded,
		IsFurnished:       f.IsFurnished,
		Amenities:         amenities,
		Title:             strings.TrimSpace(f.Title),
		Description:       strings.TrimSpace(f.Description),
		Images:            append([]string(nil), f.Images...),
		ContactName:       strings.TrimSpace(f.ContactName),
		ContactEmail:      strings.TrimSpace(f.ContactEmail),
	}
}
