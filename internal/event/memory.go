// internal/event/memory.go

package event

import "sync"

// MemoryBus is an in-process Bus. Delivery is synchronous, which keeps
// tests deterministic; production wiring uses the NATS adapter instead.
type MemoryBus struct {
	mu   sync.RWMutex
	subs map[string][]*memorySub
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]*memorySub)}
}

type memorySub struct {
	bus     *MemoryBus
	subject string
	handler Handler
}

// Publish delivers data to every current subscriber of subject.
func (b *MemoryBus) Publish(subject string, data []byte) error {
	b.mu.RLock()
	subs := make([]*memorySub, len(b.subs[subject]))
	copy(subs, b.subs[subject])
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(data)
	}
	return nil
}

// Subscribe registers h for subject until the subscription is released.
func (b *MemoryBus) Subscribe(subject string, h Handler) (Subscription, error) {
	s := &memorySub{bus: b, subject: subject, handler: h}

	b.mu.Lock()
	b.subs[subject] = append(b.subs[subject], s)
	b.mu.Unlock()

	return s, nil
}

func (s *memorySub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	subs := s.bus.subs[s.subject]
	for i, cur := range subs {
		if cur == s {
			s.bus.subs[s.subject] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	return nil
}
