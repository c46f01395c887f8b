package service

import (
	"sync"
	"sync/atomic"

	"relay-back/internal/model"
)

// subscriptions fans relay events out to per-recipient channels. Sends
// never block: a subscriber whose buffer is full loses the event and is
// expected to re-Fetch.
type subscriptions struct {
	mu          sync.RWMutex
	buffer      int
	nextID      uint64
	closed      bool
	byRecipient map[string]map[uint64]chan model.MessageEvent
	dropped     atomic.Uint64
}

func newSubscriptions(buffer int) *subscriptions {
	if buffer <= 0 {
		buffer = 1
	}

	return &subscriptions{
		buffer:      buffer,
		byRecipient: make(map[string]map[uint64]chan model.MessageEvent),
	}
}

func (s *subscriptions) subscribe(recipient string) (<-chan model.MessageEvent, func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil, false
	}

	s.nextID++
	id := s.nextID
	ch := make(chan model.MessageEvent, s.buffer)

	subs, ok := s.byRecipient[recipient]
	if !ok {
		subs = make(map[uint64]chan model.MessageEvent)
		s.byRecipient[recipient] = subs
	}

	subs[id] = ch

	var once sync.Once

	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			subs, ok := s.byRecipient[recipient]
			if !ok {
				return
			}

			if ch, ok := subs[id]; ok {
				delete(subs, id)
				close(ch)
			}

			if len(subs) == 0 {
				delete(s.byRecipient, recipient)
			}
		})
	}

	return ch, cancel, true
}

func (s *subscriptions) publish(event model.MessageEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.byRecipient[event.Recipient] {
		select {
		case ch <- event:
		default:
			s.dropped.Add(1)
		}
	}
}

func (s *subscriptions) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, subs := range s.byRecipient {
		total += len(subs)
	}

	return total
}

func (s *subscriptions) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true

	for recipient, subs := range s.byRecipient {
		for id, ch := range subs {
			delete(subs, id)
			close(ch)
		}

		delete(s.byRecipient, recipient)
	}
}
