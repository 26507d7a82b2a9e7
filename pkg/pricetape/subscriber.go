package pricetape

import "sync"

const subscriberBuffer = 16

// Subscriber is one SSE client's view of the tape. A subscriber whose buffer
// is full is detached instead of blocking the broadcast loop.
type Subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func newSubscriber() *Subscriber {
	return &Subscriber{ch: make(chan []byte, subscriberBuffer)}
}

// Events yields serialized priceUpdate payloads. The channel is closed when
// the subscriber is detached or the tape shuts down.
func (s *Subscriber) Events() <-chan []byte {
	return s.ch
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.ch) })
}
