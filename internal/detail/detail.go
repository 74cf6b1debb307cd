// Package detail is the view-model behind the single-apartment page.
package detail

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/evcraddock/rent-finder/internal/apartment"
	"github.com/evcraddock/rent-finder/internal/config"
	"github.com/evcraddock/rent-finder/internal/favorite"
	"github.com/evcraddock/rent-finder/internal/live"
	"github.com/evcraddock/rent-finder/internal/nav"
)

// NoAmenities is shown when a listing has no amenities.
const NoAmenities = "No amenities listed"

// ErrNotSaved is returned when favoriting a record that has no ID yet.
var ErrNotSaved = errors.New("apartment has not been saved")

// Gateway is the part of gateway.Gateway the detail view uses.
type Gateway interface {
	WatchApartment(id string, obs live.Observer[*apartment.Apartment]) live.Subscription
	favorite.Writer
}

// View presents detail state and follows redirects.
type View interface {
	Render(State)
	Redirect(path string)
}

// State is a snapshot of the detail page.
type State struct {
	Apartment    *apartment.Apartment `json:"apartment"`
	Image        int                  `json:"image"`
	Building     string               `json:"building"`
	Amenities    string               `json:"amenities"`
	Breadcrumbs  []string             `json:"breadcrumbs"`
	PreviousPage string               `json:"previousPage"`
}

// ViewModel owns the detail state. All state changes run on its executor.
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

// New creates a detail view-model.
func New(gw Gateway, view View, opts ...Option) *ViewModel {
	vm := &ViewModel{
		gw:          gw,
		view:        view,
		exec:        live.Inline,
		placeholder: config.DefaultApartmentImage,
		sub:         live.Released,
	}
	for _, o := range opts {
		o(vm)
	}
	return vm
}

// Activate shows target. A target carrying a record is adopted as is. A
// saved route ID is loaded live. Anything else, or a record that turns out
// not to exist, redirects to the dashboard.
func (vm *ViewModel) Activate(target nav.Target) {
	live.Call(vm.exec, func() {
		vm.sub.Release()
		vm.sub = live.Released
		vm.gen++
		vm.state = State{
			Breadcrumbs:  target.Breadcrumbs(),
			PreviousPage: target.PreviousPage(),
		}

		switch {
		case target.Apartment != nil:
			vm.adopt(target.Apartment)
		case target.RouteID == "" || target.RouteID == nav.PreviewID:
			vm.redirect()
		default:
			vm.watch(target.RouteID)
		}
	})
}

func (vm *ViewModel) watch(id string) {
	gen := vm.gen
	vm.sub = vm.gw.WatchApartment(id, live.Observer[*apartment.Apartment]{
		Next: func(a *apartment.Apartment) {
			vm.exec.Post(func() {
				if gen != vm.gen {
					return
				}
				if a == nil {
					slog.Info("apartment not found", "id", id)
					vm.redirect()
					return
				}
				vm.adopt(a)
			})
		},
		Err: func(err error) {
			vm.exec.Post(func() {
				if gen != vm.gen {
					return
				}
				slog.Error("loading apartment", "id", id, "error", err)
				vm.redirect()
			})
		},
	})
}

func (vm *ViewModel) adopt(a *apartment.Apartment) {
	n := apartment.Normalize(*a, vm.placeholder)
	vm.state.Apartment = &n
	vm.state.Building = n.DisplayBuilding()
	vm.state.Amenities = Amenities(n)
	if vm.state.Image >= len(n.Images) {
		vm.state.Image = 0
	}
	vm.render()
}

// redirect leaves the page and stops listening.
func (vm *ViewModel) redirect() {
	vm.gen++
	vm.sub.Release()
	vm.sub = live.Released
	vm.view.Redirect(nav.Dashboard)
}

// Next shows the following image, wrapping to the first.
func (vm *ViewModel) Next() {
	vm.step(1)
}

// Prev shows the preceding image, wrapping to the last.
func (vm *ViewModel) Prev() {
	vm.step(-1)
}

func (vm *ViewModel) step(delta int) {
	live.Call(vm.exec, func() {
		if vm.state.Apartment == nil {
			return
		}
		n := len(vm.state.Apartment.Images)
		if n == 0 {
			return
		}
		vm.state.Image = ((vm.state.Image+delta)%n + n) % n
		vm.render()
	})
}

// SetImage shows image i. Out-of-range indexes are ignored.
func (vm *ViewModel) SetImage(i int) {
	live.Call(vm.exec, func() {
		if vm.state.Apartment == nil || i < 0 || i >= len(vm.state.Apartment.Images) {
			return
		}
		vm.state.Image = i
		vm.render()
	})
}

// ToggleFavorite flips the favorite flag of the shown apartment. The flip
// is rendered before the write completes; a failed write renders again
// with the flag restored.
func (vm *ViewModel) ToggleFavorite(ctx context.Context) error {
	var id string
	var was, shown bool
	live.Call(vm.exec, func() {
		if a := vm.state.Apartment; a != nil {
			id, was, shown = a.ID, a.IsFavorite, true
		}
	})
	if !shown {
		return apartment.ErrNotFound
	}
	if id == "" {
		return ErrNotSaved
	}

	err := favorite.Toggle(ctx, vm.gw, id, was, func(fav bool) {
		live.Call(vm.exec, func() {
			if a := vm.state.Apartment; a != nil && a.ID == id {
				c := a.Clone()
				c.IsFavorite = fav
				vm.state.Apartment = c
				vm.render()
			}
		})
	})
	if err != nil {
		slog.Error("updating favorite", "id", id, "error", err)
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

// Close releases the subscription.
func (vm *ViewModel) Close() {
	live.Call(vm.exec, func() {
		vm.gen++
		vm.sub.Release()
		vm.sub = live.Released
	})
}

func (vm *ViewModel) render() {
	vm.view.Render(vm.state)
}

// Amenities lists a's amenities for display.
func Amenities(a apartment.Apartment) string {
	if len(a.Amenities) == 0 {
		return NoAmenities
	}
	return strings.Join(a.Amenities, ", ")
}
