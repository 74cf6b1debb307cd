package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/evcraddock/rent-finder/internal/gateway"
	"github.com/evcraddock/rent-finder/internal/identity"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiFail maps a domain error to a status code and writes its message.
func apiFail(w http.ResponseWriter, err error) {
	var verr *gateway.ValidationError
	if errors.As(err, &verr) {
		apiJSON(w, map[string]interface{}{"error": verr.Message, "fields": verr.Fields}, http.StatusBadRequest)
		return
	}

	var aerr *identity.AuthError
	if errors.As(err, &aerr) {
		apiError(w, aerr.Error(), http.StatusUnauthorized)
		return
	}

	var rerr *identity.RegistrationError
	if errors.As(err, &rerr) {
		code := http.StatusBadRequest
		switch rerr.Code {
		case identity.CodeEmailInUse:
			code = http.StatusConflict
		case identity.CodeInternal:
			code = http.StatusInternalServerError
		}
		apiError(w, rerr.Error(), code)
		return
	}

	apiError(w, err.Error(), http.StatusInternalServerError)
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}
