package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/evcraddock/rent-finder/internal/apartment"
	"github.com/evcraddock/rent-finder/internal/detail"
	"github.com/evcraddock/rent-finder/internal/identity"
	"github.com/evcraddock/rent-finder/internal/listing"
	"github.com/evcraddock/rent-finder/internal/live"
	"github.com/evcraddock/rent-finder/internal/nav"
	"github.com/evcraddock/rent-finder/internal/posting"
)

// openListing starts a listing view-model for the request's filter and sort.
// The returned func releases it.
func (s *Server) openListing(w http.ResponseWriter, r *http.Request) (listingView, func(), bool) {
	q := r.URL.Query()
	key, err := apartment.ParseSortKey(q.Get("sort"))
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return listingView{}, nil, false
	}

	loop := live.NewLoop()
	view := listingView{newEventView()}
	vm := listing.New(s.deps.Gateway, view,
		listing.WithExecutor(loop),
		listing.WithPlaceholder(s.deps.DefaultImage),
	)
	vm.SetFilter(q.Get("filter"))
	vm.SetSort(key)
	vm.Load()

	return view, func() {
		vm.Close()
		loop.Close()
	}, true
}

func (s *Server) handleListApartments(w http.ResponseWriter, r *http.Request) {
	view, release, ok := s.openListing(w, r)
	if !ok {
		return
	}
	defer release()

	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	ev, ok := await(ctx, view.events, func(ev event) bool {
		if ev.name == "alert" {
			return true
		}
		st, _ := ev.data.(listing.State)
		return st.Loaded
	})
	if !ok {
		apiError(w, listing.FetchAlert, http.StatusGatewayTimeout)
		return
	}
	if ev.name == "alert" {
		apiError(w, ev.data.(string), http.StatusInternalServerError)
		return
	}
	apiJSON(w, ev.data, http.StatusOK)
}

func (s *Server) handleApartmentEvents(w http.ResponseWriter, r *http.Request) {
	view, release, ok := s.openListing(w, r)
	if !ok {
		return
	}
	defer release()

	stream(w, r, view.events, func(ev event) bool {
		st, isState := ev.data.(listing.State)
		return !isState || st.Loaded
	})
}

// openDetail activates a detail view-model on target.
func (s *Server) openDetail(target nav.Target) (*detail.ViewModel, detailView, func()) {
	loop := live.NewLoop()
	view := detailView{newEventView()}
	vm := detail.New(s.deps.Gateway, view,
		detail.WithExecutor(loop),
		detail.WithPlaceholder(s.deps.DefaultImage),
	)
	vm.Activate(target)
	return vm, view, func() {
		vm.Close()
		loop.Close()
	}
}

// awaitDetail waits for the first rendered record. It writes the error
// response itself and returns false on redirect or timeout.
func awaitDetail(w http.ResponseWriter, r *http.Request, view detailView) (detail.State, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	ev, ok := await(ctx, view.events, func(ev event) bool {
		if ev.name == "redirect" {
			return true
		}
		st, _ := ev.data.(detail.State)
		return st.Apartment != nil
	})
	switch {
	case !ok:
		apiError(w, "timed out loading apartment", http.StatusGatewayTimeout)
		return detail.State{}, false
	case ev.name == "redirect":
		apiJSON(w, map[string]string{"error": "apartment not found", "redirect": ev.data.(string)}, http.StatusNotFound)
		return detail.State{}, false
	}
	return ev.data.(detail.State), true
}

func (s *Server) handleGetApartment(w http.ResponseWriter, r *http.Request) {
	target := nav.FromQuery(mux.Vars(r)["id"], r.URL.Query())
	_, view, release := s.openDetail(target)
	defer release()

	st, ok := awaitDetail(w, r, view)
	if !ok {
		return
	}
	apiJSON(w, st, http.StatusOK)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	target := nav.FromQuery(mux.Vars(r)["id"], r.URL.Query())
	vm, view, release := s.openDetail(target)
	defer release()

	if _, ok := awaitDetail(w, r, view); !ok {
		return
	}
	if err := vm.ToggleFavorite(r.Context()); err != nil {
		apiError(w, listing.FavoriteAlert, http.StatusInternalServerError)
		return
	}
	apiJSON(w, vm.State(), http.StatusOK)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var form posting.Form
	if !decodeJSON(w, r, &form) {
		return
	}
	target, err := posting.Preview(form)
	if err != nil {
		apiFail(w, err)
		return
	}

	_, view, release := s.openDetail(target)
	defer release()

	st, ok := awaitDetail(w, r, view)
	if !ok {
		return
	}
	apiJSON(w, st, http.StatusOK)
}

// requireAdmin checks the caller's current role. It writes the error
// response itself.
func requireAdmin(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	who := sessionFrom(r.Context()).CurrentWithRole(r.Context())
	if _, ok := identity.User(who); !ok {
		apiError(w, "Not signed in", http.StatusUnauthorized)
		return nil, false
	}
	if !identity.IsAdmin(who) {
		apiError(w, posting.ErrNotAdmin.Error(), http.StatusForbidden)
		return nil, false
	}
	return who, true
}

func (s *Server) handlePostApartment(w http.ResponseWriter, r *http.Request) {
	who, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var form posting.Form
	if !decodeJSON(w, r, &form) {
		return
	}

	id, err := s.poster.Submit(r.Context(), who, form, nil)
	if err != nil {
		apiFail(w, err)
		return
	}
	apiJSON(w, map[string]string{"id": id}, http.StatusCreated)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		apiError(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		apiError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	urls, err := s.poster.Upload(r.Context(), []posting.File{{Name: hdr.Filename, Body: file}})
	if errors.Is(err, posting.ErrNoUploader) {
		apiError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		apiError(w, err.Error(), http.StatusBadGateway)
		return
	}
	apiJSON(w, map[string]string{"secure_url": urls[0]}, http.StatusCreated)
}
