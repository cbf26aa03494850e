// Package notify implements the fan-out primitive behind content-change
// signals. Sources broadcast after every mutation; the joined list and
// any other subscriber hear about it through callbacks registered here.
package notify

import "sync"

// Hub dispatches a parameterless change signal to its subscribers.
// The zero value is ready to use.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// Subscribe registers fn and returns a cancel function that removes the
// registration. Cancel is idempotent.
func (h *Hub) Subscribe(fn func()) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]func())
	}
	id := h.next
	h.next++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
		})
	}
}

// Broadcast invokes every subscriber once. Callbacks run outside the
// hub lock, so a subscriber may cancel itself or trigger further
// broadcasts without deadlocking. Invocation order is unspecified.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
