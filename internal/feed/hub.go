// Package feed fans forum snapshots out to live subscribers.
//
// Every delivery is the whole ordered post list. A subscriber that falls
// behind only ever holds the newest snapshot; older ones are dropped.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/engineeye/internal/metrics"
	"github.com/ukydev/engineeye/internal/models"
)

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("feed hub closed")

// Snapshot is the full ordered forum as of one publish.
type Snapshot struct {
	Version     uint64             `json:"version"`
	PublishedAt time.Time          `json:"published_at"`
	Posts       []models.ForumPost `json:"posts"`
}

// Mirror receives every published snapshot, e.g. an MQTT bridge.
type Mirror interface {
	PublishSnapshot(ctx context.Context, s Snapshot) error
}

// Hub holds the current subscribers and the latest snapshot.
type Hub struct {
	mu      sync.Mutex
	subs    map[uint64]*Subscription
	nextID  uint64
	version uint64
	latest  *Snapshot
	closed  bool

	mirrors    []Mirror
	mirrorQ    chan Snapshot
	mirrorStop chan struct{}
	mirrorDone chan struct{}
	stopOnce   sync.Once

	metrics *metrics.Metrics
	now     func() time.Time
}

// NewHub creates an empty hub. Mirrors receive snapshots in version order
// from a background worker; one that falls behind skips to the newest.
func NewHub(m *metrics.Metrics, mirrors ...Mirror) *Hub {
	h := &Hub{
		subs:    make(map[uint64]*Subscription),
		mirrors: mirrors,
		metrics: m,
		now:     time.Now,
	}
	if len(mirrors) > 0 {
		h.mirrorQ = make(chan Snapshot, 1)
		h.mirrorStop = make(chan struct{})
		h.mirrorDone = make(chan struct{})
		go h.runMirrors()
	}
	return h
}

// Subscription is one live listener. Updates is closed after Cancel.
type Subscription struct {
	id      uint64
	hub     *Hub
	updates chan Snapshot
	done    chan struct{}
	once    sync.Once
}

// Updates delivers snapshots, newest only.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Cancel stops delivery and releases the subscription. It is safe to call
// more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.remove(s.id)
	})
}

// Subscribe registers a listener. The latest snapshot, if any, is
// delivered immediately. The subscription ends when ctx is done or Cancel
// is called.
func (h *Hub) Subscribe(ctx context.Context) (*Subscription, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	h.nextID++
	sub := &Subscription{
		id:      h.nextID,
		hub:     h,
		updates: make(chan Snapshot, 1),
		done:    make(chan struct{}),
	}
	h.subs[sub.id] = sub
	if h.latest != nil {
		sub.updates <- *h.latest
	}
	count := len(h.subs)
	h.mu.Unlock()

	h.metrics.SetFeedSubscribers(count)
	log.WithField("subscription_id", sub.id).Debug("Feed subscriber added")

	go func() {
		select {
		case <-ctx.Done():
			sub.Cancel()
		case <-sub.done:
		}
	}()
	return sub, nil
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Publish stores posts as the latest snapshot and delivers it to every
// subscriber, replacing any snapshot they have not read yet. It never
// waits on a mirror.
func (h *Hub) Publish(posts []models.ForumPost) Snapshot {
	h.mu.Lock()
	h.version++
	snap := Snapshot{Version: h.version, PublishedAt: h.now(), Posts: posts}
	h.latest = &snap
	for _, sub := range h.subs {
		select {
		case <-sub.updates:
		default:
		}
		sub.updates <- snap
	}
	if h.mirrorQ != nil {
		select {
		case <-h.mirrorQ:
		default:
		}
		h.mirrorQ <- snap
	}
	subscribers := len(h.subs)
	h.mu.Unlock()

	h.metrics.IncrementFeedPublishes()
	log.WithFields(log.Fields{
		"version":     snap.Version,
		"posts":       len(posts),
		"subscribers": subscribers,
	}).Debug("Forum snapshot published")
	return snap
}

func (h *Hub) runMirrors() {
	defer close(h.mirrorDone)
	for {
		select {
		case snap := <-h.mirrorQ:
			h.mirror(snap)
		case <-h.mirrorStop:
			select {
			case snap := <-h.mirrorQ:
				h.mirror(snap)
			default:
			}
			return
		}
	}
}

func (h *Hub) mirror(snap Snapshot) {
	for _, m := range h.mirrors {
		if err := m.PublishSnapshot(context.Background(), snap); err != nil {
			log.WithError(err).WithField("version", snap.Version).Warn("Failed to mirror forum snapshot")
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close cancels every subscription, rejects new ones and waits for the
// mirrors to receive the last pending snapshot.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}

	if h.mirrorStop != nil {
		h.stopOnce.Do(func() { close(h.mirrorStop) })
		<-h.mirrorDone
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(sub.updates)
		close(sub.done)
	}
	count := len(h.subs)
	h.mu.Unlock()

	if ok {
		h.metrics.SetFeedSubscribers(count)
		log.WithField("subscription_id", id).Debug("Feed subscriber removed")
	}
}
