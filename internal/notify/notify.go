// Package notify carries transient user-facing messages (toasts) out of the
// components. Components only see a Sink; where the message ends up is
// decided by the web layer.
package notify

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

type Notification struct {
	Kind    Kind
	Message string
	At      time.Time
}

type Sink interface {
	Notify(kind Kind, message string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(kind Kind, message string)

func (f SinkFunc) Notify(kind Kind, message string) { f(kind, message) }

// Discard drops every notification.
var Discard Sink = SinkFunc(func(Kind, string) {})

// Multi fans a notification out to every sink.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(kind Kind, message string) {
		for _, s := range sinks {
			s.Notify(kind, message)
		}
	})
}

// Log writes notifications to the structured log.
func Log(log logrus.FieldLogger) Sink {
	return SinkFunc(func(kind Kind, message string) {
		entry := log.WithFields(logrus.Fields{"component": "notify", "kind": kind})
		if kind == Error {
			entry.Warn(message)
			return
		}
		entry.Info(message)
	})
}

// FlashStore queues notifications per browser session until the next page
// render drains them. It is shared by the whole process.
type FlashStore struct {
	mu     sync.Mutex
	queues map[string][]Notification
	limit  int
	now    func() time.Time
}

// NewFlashStore keeps at most limit pending messages per session; older ones
// are dropped first.
func NewFlashStore(limit int) *FlashStore {
	if limit <= 0 {
		limit = 10
	}
	return &FlashStore{
		queues: make(map[string][]Notification),
		limit:  limit,
		now:    time.Now,
	}
}

// For returns the sink that queues into sessionID's flash queue.
func (s *FlashStore) For(sessionID string) Sink {
	return SinkFunc(func(kind Kind, message string) {
		s.push(sessionID, Notification{Kind: kind, Message: message, At: s.now()})
	})
}

func (s *FlashStore) push(sessionID string, n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := append(s.queues[sessionID], n)
	if len(q) > s.limit {
		q = q[len(q)-s.limit:]
	}
	s.queues[sessionID] = q
}

// Drain returns and removes every pending notification of the session.
func (s *FlashStore) Drain(sessionID string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queues[sessionID]
	delete(s.queues, sessionID)
	return q
}

// Forget drops the queue of an expired session.
func (s *FlashStore) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.queues, sessionID)
	s.mu.Unlock()
}
