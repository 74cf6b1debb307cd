package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const keepAlive = 25 * time.Second

// stream writes view-model events as server-sent events until the client
// goes away. Events rejected by send are skipped.
func stream(w http.ResponseWriter, r *http.Request, events <-chan event, send func(event) bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		apiError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev := <-events:
			if !send(ev) {
				continue
			}
			data, err := json.Marshal(ev.data)
			if err != nil {
				slog.Error("encoding event", "event", ev.name, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
