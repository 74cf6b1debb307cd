package gateway

import (
	"errors"
	"testing"

	"github.com/evcraddock/rent-finder/internal/apartment"
)

func TestCheckApartment(t *testing.T) {
	a := apartment.Apartment{Title: "Loft", Description: "d", ContactName: "n", ContactEmail: "e@example.com"}
	if err := CheckApartment(a); err != nil {
		t.Fatalf("valid: %v", err)
	}

	a.Description = ""
	err := CheckApartment(a)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if verr.Error() != apartment.RequiredFieldsMessage {
		t.Errorf("message = %q", verr.Error())
	}
	if len(verr.Fields) != 1 || verr.Fields[0] != "description" {
		t.Errorf("fields = %v, want [description]", verr.Fields)
	}
}

func TestSubmissionErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil cause", nil, SubmissionFallback},
		{"empty cause", errors.New(""), SubmissionFallback},
		{"cause message", errors.New("permission denied"), "permission denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &SubmissionError{Err: tt.err}
			if got := e.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBackendErrorWraps(t *testing.T) {
	cause := errors.New("disk full")
	err := AddApartmentFailed(cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if err.Error() != "Failed to add apartment." {
		t.Errorf("message = %q", err.Error())
	}

	fav := FavoriteFailed(cause)
	if fav.Error() != "update favorite: disk full" {
		t.Errorf("message = %q", fav.Error())
	}
}

func TestMalformed(t *testing.T) {
	err := Malformed(errors.New("bad json"))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("err = %v, want ErrMalformedPayload in chain", err)
	}
}
