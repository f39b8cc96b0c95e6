package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"vocabhero/internal/metrics"
	"vocabhero/internal/store"
)

const (
	eventBuffer       = 16
	heartbeatInterval = 25 * time.Second
)

// EventsHandler streams store change events so open views can refresh
type EventsHandler struct {
	store     *store.Store
	log       *zap.Logger
	heartbeat time.Duration
}

func NewEventsHandler(st *store.Store, log *zap.Logger) *EventsHandler {
	return &EventsHandler{store: st, log: log, heartbeat: heartbeatInterval}
}

// Stream writes one SSE message per event, named after the event kind.
// Events for a client that falls behind are dropped.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	events := make(chan store.Event, eventBuffer)
	unsubscribe := h.store.Subscribe(func(e store.Event) {
		select {
		case events <- e:
		default:
			h.log.Debug("dropping event for slow client", zap.String("kind", string(e.Kind)))
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.log.Error("event stream does not support flushing", zap.Error(err))
		return
	}

	metrics.EventStreams.Inc()
	defer metrics.EventStreams.Dec()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-events:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: {}\n\n", e.Kind); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
