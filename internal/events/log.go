package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type names a notification kind.
type Type string

// Notification kinds emitted by coordinator mutations.
const (
	TypeEmergencyReported   Type = "EmergencyReported"
	TypeResponderAssigned   Type = "ResponderAssigned"
	TypeStatusUpdated       Type = "StatusUpdated"
	TypeResourceAllocated   Type = "ResourceAllocated"
	TypeResponderRegistered Type = "ResponderRegistered"
	TypeResourceAdded       Type = "ResourceAdded"
	TypePersonnelAuthorized Type = "PersonnelAuthorized"
)

// Event is a single immutable record in the notification stream.
type Event struct {
	// ID is a unique identifier for the event.
	ID string `json:"id"`
	// Sequence is the 1-based position in the stream.
	Sequence uint64 `json:"sequence"`
	// Type names the notification kind.
	Type Type `json:"type"`
	// Actor is the identity that performed the mutation, when known.
	Actor string `json:"actor,omitempty"`
	// EmergencyID references the affected emergency, when applicable.
	EmergencyID uint64 `json:"emergency_id,omitempty"`
	// ResponderID references the affected responder, when applicable.
	ResponderID string `json:"responder_id,omitempty"`
	// Identity is the personnel identity granted access, for authorization events.
	Identity string `json:"identity,omitempty"`
	// ResourceID references the affected resource, when applicable.
	ResourceID uint64 `json:"resource_id,omitempty"`
	// Quantity carries the allocated amount for resource events.
	Quantity uint64 `json:"quantity,omitempty"`
	// Status carries the new status for status-change events.
	Status string `json:"status,omitempty"`
	// Timestamp is when the event was appended.
	Timestamp time.Time `json:"timestamp"`
}

// Log is the append-only event stream with subscriber fan-out.
// It is safe for concurrent use.
type Log struct {
	// mu protects the event history and subscriber table.
	mu sync.RWMutex
	// events is the immutable history in sequence order.
	events []Event
	// subscribers maps subscription ids to delivery channels.
	subscribers map[uint64]chan Event
	// nextSubscriber is the id for the next subscription.
	nextSubscriber uint64
	// now supplies event timestamps.
	now func() time.Time
}

// Option configures log behaviour.
type Option func(*Log)

// WithClock overrides the timestamp source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLog creates an empty event log.
func NewLog(opts ...Option) *Log {
	l := &Log{
		subscribers: make(map[uint64]chan Event),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Append assigns the event an id, sequence number and timestamp, stores it
// and fans it out to subscribers. Delivery is best-effort: a full subscriber
// channel drops the event rather than blocking the appender.
func (l *Log) Append(event Event) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	event.ID = uuid.NewString()
	event.Sequence = uint64(len(l.events)) + 1
	event.Timestamp = l.now()

	l.events = append(l.events, event)

	for _, ch := range l.subscribers {
		select {
		case ch <- event:
		default:
		}
	}

	return event
}

// Len returns the number of events appended so far.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.events)
}

// Tail returns a copy of the most recent events, up to limit. A non-positive
// limit returns the whole history.
func (l *Log) Tail(limit int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if limit > 0 && limit < len(l.events) {
		start = len(l.events) - limit
	}

	return append([]Event(nil), l.events[start:]...)
}

// Subscribe registers a delivery channel with the given buffer size and
// returns it alongside a cancel function that must be called to release the
// subscription.
func (l *Log) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSubscriber
	l.nextSubscriber++

	ch := make(chan Event, buffer)
	l.subscribers[id] = ch

	cancel := func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if existing, ok := l.subscribers[id]; ok {
			delete(l.subscribers, id)
			close(existing)
		}
	}

	return ch, cancel
}
