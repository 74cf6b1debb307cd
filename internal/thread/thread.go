// Package thread is the view-model behind an apartment's comment thread.
package thread

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/evcraddock/rent-finder/internal/comment"
	"github.com/evcraddock/rent-finder/internal/config"
	"github.com/evcraddock/rent-finder/internal/identity"
	"github.com/evcraddock/rent-finder/internal/live"
)

var (
	ErrNotSignedIn   = errors.New("Please log in to comment.")
	ErrEmptyComment  = errors.New("Comment cannot be empty.")
	ErrEmptyReply    = errors.New("Reply cannot be empty.")
	ErrNoApartment   = errors.New("No apartment selected.")
	ErrNoReplyTarget = errors.New("Select a comment to reply to.")
)

// LoadFailed is shown when the top-level comments cannot be read.
const LoadFailed = "Could not load comments."

// Gateway is the part of gateway.Gateway the thread uses.
type Gateway interface {
	WatchComments(apartmentID string, obs live.Observer[[]comment.Comment]) live.Subscription
	WatchReplies(parentID string, obs live.Observer[[]comment.Comment]) live.Subscription
	AddComment(ctx context.Context, c comment.Comment) (string, error)
}

// Identities streams the signed-in identity.
type Identities interface {
	Current(obs live.Observer[identity.Identity]) live.Subscription
}

// View presents thread state.
type View interface {
	Render(State)
}

// State is a snapshot of the thread.
type State struct {
	ApartmentID    string                       `json:"apartmentId"`
	Comments       []comment.Comment            `json:"comments"`
	Replies        map[string][]comment.Comment `json:"replies"`
	Draft          string                       `json:"draft"`
	ReplyDraft     string                       `json:"replyDraft"`
	ReplyingTo     string                       `json:"replyingTo,omitempty"`
	Error          string                       `json:"error,omitempty"`
	Identity       identity.Identity            `json:"-"`
	Loaded         bool                         `json:"loaded"`
	PendingReplies int                          `json:"-"`
}

// ViewModel owns the thread state. All state changes run on its executor.
type ViewModel struct {
	gw        Gateway
	view      View
	exec      live.Executor
	userImage string
	now       func() time.Time

	state    State
	top      live.Subscription
	topGen   int
	replies  live.Set[string]
	replyGen int
	pending  map[string]bool
	ids      live.Subscription
	closed   bool
}

// Option configures a ViewModel.
type Option func(*ViewModel)

// WithExecutor runs state changes on exec instead of inline.
func WithExecutor(exec live.Executor) Option {
	return func(vm *ViewModel) { vm.exec = exec }
}

// WithUserImage sets the avatar stored with new comments.
func WithUserImage(url string) Option {
	return func(vm *ViewModel) { vm.userImage = url }
}

// WithClock sets the time source for new comments.
func WithClock(now func() time.Time) Option {
	return func(vm *ViewModel) { vm.now = now }
}

// New creates a thread view-model and starts following the signed-in
// identity. Call SetApartment to load comments.
func New(gw Gateway, ids Identities, view View, opts ...Option) *ViewModel {
	vm := &ViewModel{
		gw:        gw,
		view:      view,
		exec:      live.Inline,
		userImage: config.DefaultUserImage,
		now:       time.Now,
		state: State{
			Comments: []comment.Comment{},
			Replies:  map[string][]comment.Comment{},
			Identity: identity.SignedOut{},
		},
		top: live.Released,
		ids: live.Released,
	}
	for _, o := range opts {
		o(vm)
	}

	live.Call(vm.exec, func() {
		vm.ids = ids.Current(live.Observer[identity.Identity]{
			Next: func(id identity.Identity) {
				vm.exec.Post(func() {
					if vm.closed {
						return
					}
					if id == nil {
						id = identity.SignedOut{}
					}
					vm.state.Identity = id
					vm.render()
				})
			},
		})
	})
	return vm
}

// SetApartment switches the thread to another apartment. An empty ID only
// tears the current thread down.
func (vm *ViewModel) SetApartment(id string) {
	live.Call(vm.exec, func() {
		if vm.closed {
			return
		}
		vm.releaseAll()
		vm.state.ApartmentID = id
		vm.state.Comments = []comment.Comment{}
		vm.state.Replies = map[string][]comment.Comment{}
		vm.state.ReplyingTo = ""
		vm.state.ReplyDraft = ""
		vm.state.Error = ""
		vm.state.Loaded = false
		vm.state.PendingReplies = 0

		if id != "" {
			gen := vm.topGen
			vm.top = vm.gw.WatchComments(id, live.Observer[[]comment.Comment]{
				Next: func(list []comment.Comment) {
					vm.exec.Post(func() {
						if gen == vm.topGen && !vm.closed {
							vm.receive(list)
						}
					})
				},
				Err: func(err error) {
					vm.exec.Post(func() {
						if gen != vm.topGen || vm.closed {
							return
						}
						slog.Error("comment stream", "apartment", id, "error", err)
						vm.state.Error = LoadFailed
						vm.state.Loaded = true
						vm.render()
					})
				},
			})
		}
		vm.render()
	})
}

// receive replaces the top-level comments and rebuilds every reply
// subscription.
func (vm *ViewModel) receive(list []comment.Comment) {
	vm.state.Error = ""
	vm.state.Comments = list
	vm.state.Loaded = true

	vm.replies.ReleaseAll()
	vm.replyGen++
	gen := vm.replyGen
	vm.state.Replies = map[string][]comment.Comment{}
	vm.pending = map[string]bool{}

	for _, c := range list {
		if c.ID == "" {
			continue
		}
		parent := c.ID
		vm.pending[parent] = true
		vm.replies.Put(parent, vm.gw.WatchReplies(parent, live.Observer[[]comment.Comment]{
			Next: func(replies []comment.Comment) {
				vm.exec.Post(func() {
					if gen != vm.replyGen || vm.closed || !vm.replies.Has(parent) {
						return
					}
					next := make(map[string][]comment.Comment, len(vm.state.Replies)+1)
					for k, v := range vm.state.Replies {
						next[k] = v
					}
					next[parent] = replies
					vm.state.Replies = next
					delete(vm.pending, parent)
					vm.state.PendingReplies = len(vm.pending)
					vm.render()
				})
			},
			Err: func(err error) {
				vm.exec.Post(func() {
					if gen != vm.replyGen || vm.closed {
						return
					}
					slog.Error("reply stream", "parent", parent, "error", err)
					delete(vm.pending, parent)
					vm.state.PendingReplies = len(vm.pending)
					vm.render()
				})
			},
		}))
	}
	vm.state.PendingReplies = len(vm.pending)
	vm.render()
}

// SetDraft updates the new-comment text.
func (vm *ViewModel) SetDraft(text string) {
	live.Call(vm.exec, func() {
		vm.state.Draft = text
		vm.render()
	})
}

// SetReplyDraft updates the reply text.
func (vm *ViewModel) SetReplyDraft(text string) {
	live.Call(vm.exec, func() {
		vm.state.ReplyDraft = text
		vm.render()
	})
}

// ToggleReply opens the reply box under a comment, closing any other. Calling
// it again for the open comment closes it.
func (vm *ViewModel) ToggleReply(id string) {
	live.Call(vm.exec, func() {
		if vm.state.ReplyingTo == id {
			vm.state.ReplyingTo = ""
		} else {
			vm.state.ReplyingTo = id
		}
		vm.state.ReplyDraft = ""
		vm.render()
	})
}

// Submit posts the draft as a top-level comment.
func (vm *ViewModel) Submit(ctx context.Context) error {
	var c comment.Comment
	var err error
	live.Call(vm.exec, func() {
		c, err = vm.build(vm.state.Draft, "", ErrEmptyComment)
	})
	if err != nil {
		vm.showError(err)
		return err
	}

	if _, err := vm.gw.AddComment(ctx, c); err != nil {
		slog.Error("adding comment", "apartment", c.ApartmentID, "error", err)
		vm.showError(err)
		return err
	}

	live.Call(vm.exec, func() {
		vm.state.Draft = ""
		vm.state.Error = ""
		vm.render()
	})
	return nil
}

// SubmitReply posts the reply draft under the open reply target.
func (vm *ViewModel) SubmitReply(ctx context.Context) error {
	var c comment.Comment
	var err error
	live.Call(vm.exec, func() {
		if vm.state.ReplyingTo == "" {
			err = ErrNoReplyTarget
			return
		}
		c, err = vm.build(vm.state.ReplyDraft, vm.state.ReplyingTo, ErrEmptyReply)
	})
	if err != nil {
		vm.showError(err)
		return err
	}

	if _, err := vm.gw.AddComment(ctx, c); err != nil {
		slog.Error("adding reply", "parent", c.Parent(), "error", err)
		vm.showError(err)
		return err
	}

	live.Call(vm.exec, func() {
		vm.state.ReplyDraft = ""
		vm.state.ReplyingTo = ""
		vm.state.Error = ""
		vm.render()
	})
	return nil
}

func (vm *ViewModel) build(text, parent string, empty error) (comment.Comment, error) {
	user, ok := identity.User(vm.state.Identity)
	if !ok {
		return comment.Comment{}, ErrNotSignedIn
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return comment.Comment{}, empty
	}
	if vm.state.ApartmentID == "" {
		return comment.Comment{}, ErrNoApartment
	}

	c := comment.Comment{
		ApartmentID: vm.state.ApartmentID,
		UserID:      user.UID,
		Username:    user.Name(),
		Text:        text,
		CreatedAt:   vm.now(),
		UserImage:   vm.userImage,
	}
	if photo := strings.TrimSpace(user.PhotoURL); photo != "" {
		c.UserImage = photo
	}
	if parent != "" {
		p := parent
		c.ParentCommentID = &p
	}
	return c, nil
}

func (vm *ViewModel) showError(err error) {
	live.Call(vm.exec, func() {
		vm.state.Error = err.Error()
		vm.render()
	})
}

// State returns a copy of the current state.
func (vm *ViewModel) State() State {
	var s State
	live.Call(vm.exec, func() { s = vm.state })
	return s
}

// ActiveReplies returns the parent IDs with open reply subscriptions.
func (vm *ViewModel) ActiveReplies() []string {
	var keys []string
	live.Call(vm.exec, func() { keys = vm.replies.Keys() })
	sort.Strings(keys)
	return keys
}

// Close releases every subscription, including the identity stream.
func (vm *ViewModel) Close() {
	live.Call(vm.exec, func() {
		if vm.closed {
			return
		}
		vm.closed = true
		vm.releaseAll()
		vm.ids.Release()
		vm.ids = live.Released
	})
}

func (vm *ViewModel) releaseAll() {
	vm.topGen++
	vm.top.Release()
	vm.top = live.Released
	vm.replyGen++
	vm.replies.ReleaseAll()
	vm.pending = nil
}

func (vm *ViewModel) render() {
	vm.view.Render(vm.state)
}
