// Package listing is the view-model behind the apartment dashboard.
package listing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/evcraddock/rent-finder/internal/apartment"
	"github.com/evcraddock/rent-finder/internal/config"
	"github.com/evcraddock/rent-finder/internal/favorite"
	"github.com/evcraddock/rent-finder/internal/gateway"
	"github.com/evcraddock/rent-finder/internal/live"
)

// Alerts shown to the user.
const (
	FetchAlert    = "Error fetching apartment listings. Please try again later."
	FavoriteAlert = "Failed to update favorite status. Please try again."
)

// Gateway is the part of gateway.Gateway the listing uses.
type Gateway interface {
	WatchApartments(obs live.Observer[[]apartment.Apartment]) live.Subscription
	favorite.Writer
}

// View presents listing state.
type View interface {
	Render(State)
	Alert(msg string)
}

// State is a snapshot of the dashboard.
type State struct {
	Apartments   []apartment.Apartment `json:"apartments"`
	Visible      []apartment.Apartment `json:"visible"`
	Favorites    []apartment.Apartment `json:"favorites"`
	ShowCarousel bool                  `json:"showCarousel"`
	Filter       string                `json:"filter"`
	Sort         apartment.SortKey     `json:"sort"`
	Loaded       bool                  `json:"loaded"`
}

// ViewModel owns the dashboard state. All state changes run on its executor.
type ViewModel struct {
	gw          Gateway
	view        View
	exec        live.Executor
	placeholder string

	state State
	sub   live.Subscription
	gen   int
}

// Option configures a ViewModel.
type Option func(*ViewModel)

// WithExecutor runs state changes on exec instead of inline.
func WithExecutor(exec live.Executor) Option {
	return func(vm *ViewModel) { vm.exec = exec }
}

// WithPlaceholder sets the image used for listings without photos.
func WithPlaceholder(url string) Option {
	return func(vm *ViewModel) { vm.placeholder = url }
}

// New creates a listing view-model. Call Load to start receiving data.
func New(gw Gateway, view View, opts ...Option) *ViewModel {
	vm := &ViewModel{
		gw:          gw,
		view:        view,
		exec:        live.Inline,
		placeholder: config.DefaultApartmentImage,
		sub:         live.Released,
		state:       State{Apartments: []apartment.Apartment{}, Visible: []apartment.Apartment{}, Favorites: []apartment.Apartment{}},
	}
	for _, o := range opts {
		o(vm)
	}
	return vm
}

// Load replaces any current subscription with a fresh one.
func (vm *ViewModel) Load() {
	live.Call(vm.exec, func() {
		vm.sub.Release()
		vm.gen++
		gen := vm.gen
		vm.sub = vm.gw.WatchApartments(live.Observer[[]apartment.Apartment]{
			Next: func(list []apartment.Apartment) {
				vm.exec.Post(func() {
					if gen == vm.gen {
						vm.receive(list)
					}
				})
			},
			Err: func(err error) {
				vm.exec.Post(func() {
					if gen == vm.gen {
						vm.fail(err)
					}
				})
			},
		})
	})
}

// SetFilter changes the search text.
func (vm *ViewModel) SetFilter(text string) {
	live.Call(vm.exec, func() {
		vm.state.Filter = text
		vm.derive()
		vm.render()
	})
}

// SetSort changes the sort order.
func (vm *ViewModel) SetSort(key apartment.SortKey) {
	live.Call(vm.exec, func() {
		vm.state.Sort = key
		vm.derive()
		vm.render()
	})
}

// ToggleFavorite flips the favorite flag of one apartment. The flip is
// rendered before the write completes, so when the write fails the view
// first sees the flipped flag (favorites and carousel included) and then
// a second render with the flag restored, followed by an alert.
func (vm *ViewModel) ToggleFavorite(ctx context.Context, id string) error {
	var was, found bool
	live.Call(vm.exec, func() {
		var a apartment.Apartment
		a, found = apartment.Find(vm.state.Apartments, id)
		was = a.IsFavorite
	})
	if !found {
		return apartment.ErrNotFound
	}

	err := favorite.Toggle(ctx, vm.gw, id, was, func(fav bool) {
		live.Call(vm.exec, func() { vm.setFavorite(id, fav) })
	})
	if err != nil {
		slog.Error("updating favorite", "id", id, "error", err)
		live.Call(vm.exec, func() { vm.view.Alert(FavoriteAlert) })
		return err
	}
	return nil
}

// State returns a copy of the current state.
func (vm *ViewModel) State() State {
	var s State
	live.Call(vm.exec, func() { s = vm.state })
	return s
}

// Close releases the subscription. Later emissions are ignored.
func (vm *ViewModel) Close() {
	live.Call(vm.exec, func() {
		vm.gen++
		vm.sub.Release()
		vm.sub = live.Released
	})
}

func (vm *ViewModel) receive(list []apartment.Apartment) {
	vm.state.Apartments = apartment.NormalizeAll(list, vm.placeholder)
	vm.state.Loaded = true
	vm.derive()
	vm.render()
}

func (vm *ViewModel) fail(err error) {
	slog.Error("apartment stream", "error", err)
	vm.view.Alert(FetchAlert)
	if errors.Is(err, gateway.ErrMalformedPayload) {
		vm.state = State{
			Apartments: []apartment.Apartment{},
			Visible:    []apartment.Apartment{},
			Favorites:  []apartment.Apartment{},
			Filter:     vm.state.Filter,
			Sort:       vm.state.Sort,
			Loaded:     true,
		}
		vm.render()
	}
}

func (vm *ViewModel) setFavorite(id string, fav bool) {
	a, ok := apartment.Find(vm.state.Apartments, id)
	if !ok {
		return
	}
	a.IsFavorite = fav
	vm.state.Apartments = apartment.Replace(vm.state.Apartments, a)
	vm.derive()
	vm.render()
}

func (vm *ViewModel) derive() {
	vm.state.Favorites = apartment.Favorites(vm.state.Apartments)
	vm.state.ShowCarousel = len(vm.state.Favorites) > 0
	vm.state.Visible = apartment.Project(vm.state.Apartments, vm.state.Filter, vm.state.Sort)
}

func (vm *ViewModel) render() {
	vm.view.Render(vm.state)
}
