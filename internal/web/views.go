package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/evcraddock/rent-finder/internal/detail"
	"github.com/evcraddock/rent-finder/internal/listing"
	"github.com/evcraddock/rent-finder/internal/thread"
)

// viewTimeout bounds how long a plain request waits for a view-model.
const viewTimeout = 10 * time.Second

// event is one thing a view-model told its view, in order.
type event struct {
	name string
	data interface{}
}

// eventView queues view-model output for a request goroutine. It never
// blocks the view-model's loop; a full queue drops the event.
type eventView struct {
	events chan event
}

func newEventView() eventView {
	return eventView{events: make(chan event, 64)}
}

func (v eventView) push(name string, data interface{}) {
	select {
	case v.events <- event{name: name, data: data}:
	default:
		slog.Warn("dropping view event", "event", name)
	}
}

type listingView struct{ eventView }

func (v listingView) Render(s listing.State) { v.push("state", s) }
func (v listingView) Alert(msg string)       { v.push("alert", msg) }

type detailView struct{ eventView }

func (v detailView) Render(s detail.State) { v.push("state", s) }
func (v detailView) Redirect(path string)  { v.push("redirect", path) }

type threadView struct{ eventView }

func (v threadView) Render(s thread.State) { v.push("state", s) }

// await returns the first event accepted by done, or false when ctx ends
// first.
func await(ctx context.Context, events <-chan event, done func(event) bool) (event, bool) {
	for {
		select {
		case ev := <-events:
			if done(ev) {
				return ev, true
			}
		case <-ctx.Done():
			return event{}, false
		}
	}
}
