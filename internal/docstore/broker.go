package docstore

import "sync"

// broker is an in-process pub/sub for collection snapshots, keyed by
// collection name.
type broker struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func newBroker() *broker {
	return &broker{
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

func (b *broker) subscribe(collection string) *Subscription {
	ch := make(chan Snapshot, 1)
	sub := &Subscription{C: ch, ch: ch, done: make(chan struct{}), collection: collection, broker: b}
	b.mu.Lock()
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[*Subscription]struct{})
	}
	b.subs[collection][sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	if _, ok := b.subs[sub.collection][sub]; ok {
		delete(b.subs[sub.collection], sub)
		if len(b.subs[sub.collection]) == 0 {
			delete(b.subs, sub.collection)
		}
		close(sub.ch)
	}
	b.mu.Unlock()
}

func (b *broker) hasSubscribers(collection string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[collection]) > 0
}

// publish hands snap to every subscriber of its collection. A subscriber
// that has not consumed the previous snapshot gets it replaced.
func (b *broker) publish(snap Snapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[snap.Collection] {
		sub.deliver(snap)
	}
}

func (b *broker) publishTo(sub *Subscription, snap Snapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.subs[sub.collection][sub]; ok {
		sub.deliver(snap)
	}
}

// Subscription is a live feed of snapshots for one collection. C is closed
// once the subscription ends.
type Subscription struct {
	C <-chan Snapshot

	ch         chan Snapshot
	done       chan struct{}
	collection string
	broker     *broker
	sendMu     sync.Mutex
	once       sync.Once
}

func (s *Subscription) deliver(snap Snapshot) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	select {
	case s.ch <- snap:
		return
	default:
	}
	// Drop the stale snapshot.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.unsubscribe(s)
		close(s.done)
	})
}
