package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/metrics"
)

// SubscriberBuffer is the number of undelivered events kept per subscriber.
// Events beyond it are dropped for that subscriber.
const SubscriberBuffer = 64

// Publisher is what services use to emit row changes.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Broadcaster forwards events to every instance, including this one.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

type subscription struct {
	id     string
	table  string
	event  EventType
	filter *Filter
}

func (s *subscription) match(ev Event) bool {
	if s.table != ev.Table {
		return false
	}
	if s.event != EventAny && s.event != ev.Type {
		return false
	}
	return s.filter.Match(ev.Record)
}

// Subscriber is one connected client with its own delivery buffer.
type Subscriber struct {
	ID     string
	UserID string
	Staff  bool

	events chan Event

	mu   sync.RWMutex
	subs map[string]*subscription
}

// Events delivers matching events. It is closed on Unregister.
func (s *Subscriber) Events() <-chan Event { return s.events }

func (s *Subscriber) allowed(ev Event) bool {
	return s.Staff || ev.OwnerID == "" || ev.OwnerID == s.UserID
}

func (s *Subscriber) wants(ev Event) bool {
	if !s.allowed(ev) {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if sub.match(ev) {
			return true
		}
	}
	return false
}

// Hub fans events out to local subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	bridge      Broadcaster
	metrics     *metrics.MetricsRegistry
}

func NewHub(m *metrics.MetricsRegistry) *Hub {
	return &Hub{
		subscribers: make(map[string]*Subscriber),
		metrics:     m,
	}
}

// SetBridge routes Publish through a cross-instance broadcaster.
func (h *Hub) SetBridge(b Broadcaster) {
	h.mu.Lock()
	h.bridge = b
	h.mu.Unlock()
}

func (h *Hub) Register(userID string, staff bool) *Subscriber {
	s := &Subscriber{
		ID:     uuid.NewString(),
		UserID: userID,
		Staff:  staff,
		events: make(chan Event, SubscriberBuffer),
		subs:   make(map[string]*subscription),
	}
	h.mu.Lock()
	h.subscribers[s.ID] = s
	h.mu.Unlock()
	return s
}

func (h *Hub) Unregister(s *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subscribers[s.ID]; ok {
		delete(h.subscribers, s.ID)
		close(s.events)
	}
	h.mu.Unlock()

	s.mu.Lock()
	n := len(s.subs)
	s.subs = map[string]*subscription{}
	s.mu.Unlock()
	h.gauge(-n)
}

// Subscribe adds a table subscription and returns its id.
func (h *Hub) Subscribe(s *Subscriber, table string, event EventType, filter string) (string, error) {
	if table == "" {
		return "", fmt.Errorf("table is required")
	}
	switch event {
	case "":
		event = EventAny
	case EventInsert, EventUpdate, EventDelete, EventAny:
	default:
		return "", fmt.Errorf("unknown event %q", event)
	}

	f, err := ParseFilter(filter)
	if err != nil {
		return "", err
	}

	sub := &subscription{id: uuid.NewString(), table: table, event: event, filter: f}
	s.mu.Lock()
	s.subs[sub.id] = sub
	s.mu.Unlock()
	h.gauge(1)
	return sub.id, nil
}

func (h *Hub) Unsubscribe(s *Subscriber, id string) bool {
	s.mu.Lock()
	_, ok := s.subs[id]
	delete(s.subs, id)
	s.mu.Unlock()
	if ok {
		h.gauge(-1)
	}
	return ok
}

// Publish sends the event through the bridge when one is set, falling back
// to local delivery if the bridge fails.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	h.mu.RLock()
	bridge := h.bridge
	h.mu.RUnlock()

	if bridge != nil {
		err := bridge.Broadcast(ctx, ev)
		if err == nil {
			return
		}
		logging.Warn("Realtime bridge publish failed, delivering locally", "table", ev.Table, "error", err)
	}
	h.Dispatch(ev)
}

// Dispatch delivers to local subscribers without blocking.
func (h *Hub) Dispatch(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subscribers {
		if !s.wants(ev) {
			continue
		}
		select {
		case s.events <- ev:
		default:
			if h.metrics != nil {
				h.metrics.RealtimeDroppedEvents.Inc()
			}
		}
	}
}

func (h *Hub) gauge(delta int) {
	if h.metrics != nil && delta != 0 {
		h.metrics.RealtimeSubscribers.Add(float64(delta))
	}
}
