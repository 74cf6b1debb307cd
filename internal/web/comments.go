package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/evcraddock/rent-finder/internal/comment"
	"github.com/evcraddock/rent-finder/internal/live"
	"github.com/evcraddock/rent-finder/internal/thread"
)

// openThread starts a thread view-model on one apartment for the caller.
func (s *Server) openThread(r *http.Request) (*thread.ViewModel, threadView, func()) {
	loop := live.NewLoop()
	view := threadView{newEventView()}
	vm := thread.New(s.deps.Gateway, sessionFrom(r.Context()), view,
		thread.WithExecutor(loop),
		thread.WithUserImage(s.deps.DefaultUserImage),
	)
	vm.SetApartment(mux.Vars(r)["id"])
	return vm, view, func() {
		vm.Close()
		loop.Close()
	}
}

// settled reports whether a thread state has its comments and every reply
// list.
func settled(ev event) bool {
	st, ok := ev.data.(thread.State)
	return ok && st.Loaded && st.PendingReplies == 0
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	_, view, release := s.openThread(r)
	defer release()

	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	ev, ok := await(ctx, view.events, settled)
	if !ok {
		apiError(w, "timed out loading comments", http.StatusGatewayTimeout)
		return
	}
	st := ev.data.(thread.State)
	if st.Error != "" {
		apiError(w, st.Error, http.StatusInternalServerError)
		return
	}
	apiJSON(w, st, http.StatusOK)
}

func (s *Server) handleCommentEvents(w http.ResponseWriter, r *http.Request) {
	_, view, release := s.openThread(r)
	defer release()

	stream(w, r, view.events, settled)
}

type commentRequest struct {
	Text            string  `json:"text"`
	ParentCommentID *string `json:"parentCommentId"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	vm, _, release := s.openThread(r)
	defer release()

	var err error
	if req.ParentCommentID != nil && strings.TrimSpace(*req.ParentCommentID) != "" {
		vm.ToggleReply(*req.ParentCommentID)
		vm.SetReplyDraft(req.Text)
		err = vm.SubmitReply(r.Context())
	} else {
		vm.SetDraft(req.Text)
		err = vm.Submit(r.Context())
	}

	switch {
	case err == nil:
		apiJSON(w, map[string]string{"status": "created"}, http.StatusCreated)
	case errors.Is(err, thread.ErrNotSignedIn):
		apiError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, thread.ErrEmptyComment), errors.Is(err, thread.ErrEmptyReply):
		apiError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, comment.ErrInvalidParent):
		apiError(w, err.Error(), http.StatusBadRequest)
	default:
		apiError(w, err.Error(), http.StatusInternalServerError)
	}
}
