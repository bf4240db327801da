// Package events provides the live-update plumbing: a transactional
// publisher for the write path and an in-process bus that fans notifications
// out to dashboard subscribers.
//
// Subscription data flows one way, from committed writes to listeners; it is
// never an input to write-path validation.
package events

import (
	"context"
	"sync"
	"time"

	"retailops/internal/core/id"
)

// Topics correspond to the aggregate collections dashboards watch.
const (
	TopicBranchStock = "branch_stock"
	TopicStockLogs   = "stock_logs"
	TopicSales       = "sales"
	TopicPayments    = "payments"
	TopicExpenses    = "expenses"
	TopicAllocations = "allocations"
)

// Actions describe what happened to a document.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event is a change notification for one aggregate.
type Event struct {
	Topic      string    `json:"topic"`
	Action     string    `json:"action"`
	BranchID   id.ID     `json:"branchId,omitempty"`
	EntityID   string    `json:"entityId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher emits events from the write path. The postgres implementation
// issues pg_notify inside the surrounding transaction, so notifications are
// only delivered for committed writes.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus fans events out to in-process subscribers (SSE streams, counters).
// Delivery is best-effort: a subscriber that cannot keep up loses events
// rather than blocking the dispatcher, and every snapshot a consumer builds
// must treat the next full read as the truth, not accumulated deltas.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*subscriber
}

type subscriber struct {
	topics map[string]struct{}
	ch     chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Subscribe registers interest in the given topics (all topics when empty).
// The returned cancel function must be called to release the subscription.
func (b *Bus) Subscribe(topics ...string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, 64)}
	if len(topics) > 0 {
		sub.topics = make(map[string]struct{}, len(topics))
		for _, t := range topics {
			sub.topics[t] = struct{}{}
		}
	}

	b.mu.Lock()
	b.nextID++
	subID := b.nextID
	b.subs[subID] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if s, ok := b.subs[subID]; ok {
			delete(b.subs, subID)
			close(s.ch)
		}
		b.mu.Unlock()
	}
	return sub.ch, cancel
}

// Dispatch delivers an event to all matching subscribers without blocking.
func (b *Bus) Dispatch(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.topics != nil {
			if _, ok := sub.topics[event.Topic]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- event:
		default:
			// Slow subscriber: drop rather than block the dispatcher.
		}
	}
}

// NopPublisher discards events; used in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
