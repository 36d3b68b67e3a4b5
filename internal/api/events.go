package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/nexus/internal/store"
)

// EventsHandler streams key-change notifications as server-sent events.
type EventsHandler struct {
	Broker *store.Broker
	// Heartbeat is the interval between keep-alive comments.
	Heartbeat time.Duration
}

// Stream handles GET /api/events. Each change is sent as
// "event: change" with the changed key as data.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.Broker == nil {
		jsonError(w, r, http.StatusNotImplemented, "events are not enabled")
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("cannot clear write deadline, stream ends at the server write timeout")
	}

	keys, cancel := h.Broker.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("streaming not supported")
		return
	}

	interval := h.Heartbeat
	if interval <= 0 {
		interval = 25 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case key, ok := <-keys:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", key)
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
