package apartment

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// RequiredFieldsMessage is shown when a required field is blank.
const RequiredFieldsMessage = "Apartment title, description, contact name, and contact email are required."

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the notblank rule registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		}); err != nil {
			panic(err)
		}
	})
	return validate
}

// Validate checks that the required fields are present.
func Validate(a Apartment) error {
	return Validator().Struct(a)
}

// MissingFields lists the JSON names of fields that failed validation.
func MissingFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}
