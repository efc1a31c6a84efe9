// Package store fans live snapshots out to subscribed clients. Every
// successful write publishes the full current list for its collection;
// subscribers treat each snapshot as the sole source of truth, so dropping
// an intermediate snapshot for a slow consumer is safe because the next one
// supersedes it.
package store

import "sync"

const (
	CollectionVehicles  = "vehicles"
	CollectionLuggage   = "luggage"
	CollectionAmenities = "amenities"
)

type Hub struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]chan any
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[int]chan any),
	}
}

// Subscribe registers a listener for a collection. The returned channel
// receives snapshots; cancel removes the subscription and closes the
// channel.
func (h *Hub) Subscribe(collection string) (<-chan any, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int]chan any)
	}
	id := h.next
	h.next++

	ch := make(chan any, 8)
	h.subs[collection][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[collection][id]; ok {
			delete(h.subs[collection], id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the snapshot to every subscriber of the collection.
// Subscribers with full buffers are skipped.
func (h *Hub) Publish(collection string, snapshot any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[collection] {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
