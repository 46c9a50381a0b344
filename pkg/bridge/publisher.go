package bridge

import (
	"sync"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/logger"
)

const defaultSubscriptionQueue = 64

// Subscription is one client's live event stream registration. Events()
// yields published events in publish order; the channel is closed on
// Unsubscribe or publisher Close. A new subscription starts with no backlog.
type Subscription struct {
	ClientID string
	ch       chan Event
	closed   bool // guarded by the publisher's mutex
}

// Events returns the subscription's receive channel.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Publisher fans device events out to all live subscriptions. It is the only
// mutator of the subscription set. Per-subscriber queues are bounded; when a
// slow subscriber's queue is full the oldest queued event is dropped so that
// Publish never blocks on one consumer (documented drop-oldest policy).
type Publisher struct {
	queueSize int
	subs      map[*Subscription]struct{}
	mu        sync.RWMutex
	closed    bool
}

// NewPublisher creates a Publisher with the given per-subscriber queue size
// (<= 0 selects the default of 64).
func NewPublisher(queueSize int) *Publisher {
	if queueSize <= 0 {
		queueSize = defaultSubscriptionQueue
	}
	return &Publisher{
		queueSize: queueSize,
		subs:      make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new output queue for clientID. Returns nil when the
// publisher is already closed.
func (p *Publisher) Subscribe(clientID string) *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	sub := &Subscription{
		ClientID: clientID,
		ch:       make(chan Event, p.queueSize),
	}
	p.subs[sub] = struct{}{}
	logger.DebugCF("events", "Subscriber added", map[string]any{
		"client_id": clientID,
		"total":     len(p.subs),
	})
	return sub
}

// Unsubscribe removes the subscription and closes its channel. Publication
// to it stops immediately; calling twice is safe.
func (p *Publisher) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	delete(p.subs, sub)
	close(sub.ch)
	logger.DebugCF("events", "Subscriber removed", map[string]any{
		"client_id": sub.ClientID,
		"total":     len(p.subs),
	})
}

// Publish appends the event to every live subscription's queue, FIFO per
// subscriber. Full queue: drop the oldest event and retry, never block.
func (p *Publisher) Publish(event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	for sub := range p.subs {
		select {
		case sub.ch <- event:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (p *Publisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// Close tears down all subscriptions. Subsequent Publish calls are dropped
// and Subscribe returns nil.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for sub := range p.subs {
		sub.closed = true
		delete(p.subs, sub)
		close(sub.ch)
	}
}
