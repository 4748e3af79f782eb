package engine

import (
	"sync"
	"time"

	"cowrite/engine/internal/metrics"
)

type EventType string

const (
	EventJoin      EventType = "join"
	EventLeave     EventType = "leave"
	EventOperation EventType = "operation"
	EventSelection EventType = "selection"
	EventComment   EventType = "comment"
	EventPresence  EventType = "presence"
)

// Event is one entry in the collaboration audit trail.
type Event struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	Type      EventType `json:"type"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventLog is a process-wide capped ring of recent events. Overflow drops
// the oldest entry silently; this log is best-effort, not durable.
type EventLog struct {
	mu     sync.Mutex
	cap    int
	events []Event
}

func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = 1000
	}
	return &EventLog{cap: capacity}
}

func (l *EventLog) Append(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) >= l.cap {
		drop := len(l.events) - l.cap + 1
		l.events = append(l.events[:0], l.events[drop:]...)
		metrics.EventsDropped.Add(float64(drop))
	}
	l.events = append(l.events, e)
}

// Room returns up to limit events for roomID, newest first.
func (l *EventLog) Room(roomID string, limit int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 {
		limit = len(l.events)
	}
	out := make([]Event, 0, limit)
	for i := len(l.events) - 1; i >= 0 && len(out) < limit; i-- {
		if l.events[i].RoomID == roomID {
			out = append(out, l.events[i])
		}
	}
	return out
}

func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
