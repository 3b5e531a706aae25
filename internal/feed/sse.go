package feed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/engineeye/internal/apperr"
)

const (
	eventSnapshot  = "snapshot"
	eventHeartbeat = "heartbeat"
)

// Handler streams forum snapshots as server-sent events.
type Handler struct {
	hub       *Hub
	heartbeat time.Duration
}

// NewHandler creates a stream handler. A non-positive heartbeat defaults to
// 30 seconds.
func NewHandler(hub *Hub, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Handler{hub: hub, heartbeat: heartbeat}
}

// ServeHTTP handles the SSE connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if ctx.Err() != nil {
		return
	}

	sub, err := h.hub.Subscribe(ctx)
	if err != nil {
		apperr.Write(w, r, apperr.StoreUnavailable("forum feed is shutting down", err))
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		log.WithError(err).Warn("Streaming not supported by response writer")
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-sub.Updates():
			if !ok {
				return
			}
			if err := writeEvent(w, rc, eventSnapshot, snap); err != nil {
				log.WithError(err).Debug("Feed client disconnected")
				return
			}
		case t := <-ticker.C:
			if err := writeEvent(w, rc, eventHeartbeat, map[string]time.Time{"time": t.UTC()}); err != nil {
				log.WithError(err).Debug("Feed client disconnected")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return rc.Flush()
}
