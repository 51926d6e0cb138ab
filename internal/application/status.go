package application

import (
	"sync"

	"github.com/devbush/vid2slides/internal/domain"
)

// StatusPublisher receives progress messages from running jobs
type StatusPublisher interface {
	Publish(event domain.StatusEvent)
}

// StatusFunc adapts a function to StatusPublisher
type StatusFunc func(event domain.StatusEvent)

// Publish calls f(event)
func (f StatusFunc) Publish(event domain.StatusEvent) {
	f(event)
}

type discardStatus struct{}

func (discardStatus) Publish(domain.StatusEvent) {}

// StatusStream is an unbounded multi-producer event channel. Publish never
// blocks, events from one producer keep their order, and a single consumer
// drains Events until it is closed.
type StatusStream struct {
	mu     sync.Mutex
	queue  []domain.StatusEvent
	closed bool
	notify chan struct{}
	out    chan domain.StatusEvent
}

// NewStatusStream creates a stream and starts its delivery goroutine
func NewStatusStream() *StatusStream {
	s := &StatusStream{
		notify: make(chan struct{}, 1),
		out:    make(chan domain.StatusEvent),
	}
	go s.pump()
	return s
}

// Publish enqueues an event. Events published after Close are dropped.
func (s *StatusStream) Publish(event domain.StatusEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()
	s.wake()
}

// Events returns the channel the consumer drains. It is closed after Close
// once every queued event has been delivered.
func (s *StatusStream) Events() <-chan domain.StatusEvent {
	return s.out
}

// Close stops accepting events
func (s *StatusStream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

func (s *StatusStream) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *StatusStream) pump() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			closed := s.closed
			s.mu.Unlock()
			if closed {
				close(s.out)
				return
			}
			<-s.notify
			continue
		}
		event := s.queue[0]
		s.queue[0] = domain.StatusEvent{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.out <- event
	}
}
