// Package progress implements the publish/subscribe channel that carries
// workflow progress events from the executor to external observers.
package progress

import (
	"sort"
	"sync"

	"github.com/troupelabs/troupe/pkg/models"
)

// Handler receives one progress event. Handlers run synchronously on the
// publishing goroutine and should return quickly.
type Handler func(models.WorkflowProgress)

// Bus fans progress events out to subscribed handlers. Delivery is
// synchronous and serialized, so observers see events in emission order.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]Handler
	nextID int

	// emitMu serializes delivery; concurrent publishers take it in turn,
	// which defines the emission order observers see.
	emitMu sync.Mutex
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers a handler and returns a disposer that removes it.
// Calling the disposer more than once is harmless.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers one event to every current subscriber, in subscription
// order. The subscriber set is snapshotted first, so a handler that
// subscribes or disposes during delivery takes effect from the next event.
func (b *Bus) Publish(p models.WorkflowProgress) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.Unlock()

	b.emitMu.Lock()
	defer b.emitMu.Unlock()
	for _, h := range handlers {
		h(p)
	}
}

// SubscriberCount returns the number of registered handlers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
