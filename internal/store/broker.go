package store

import "sync"

// Broker fans out key-change notifications to in-process subscribers, so
// every open view of a key learns when it is rewritten.
type Broker struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan string]struct{})}
}

// Subscribe registers a subscriber. The returned cancel function must be
// called to release it.
func (b *Broker) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 16)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish notifies subscribers that the given keys changed. Slow subscribers
// miss notifications rather than block the writer.
func (b *Broker) Publish(keys ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		for _, k := range keys {
			select {
			case ch <- k:
			default:
			}
		}
	}
}
