// Package state holds the client-side stores. Each store wraps one service,
// keeps the last known server data in memory and notifies subscribers after
// every transition.
//
// Fetches are ticketed per resource: a response is applied only when no newer
// fetch of the same resource has started since. Mutations always apply.
package state

import (
	"context"
	"sync"

	"musicworks/internal/util"
	"musicworks/pkg/domain"
)

// hub is the locking and notification core shared by the stores.
type hub[S any] struct {
	mu        sync.Mutex
	state     S
	inflight  int
	tickets   map[string]uint64
	listeners map[uint64]func(S)
	nextID    uint64

	clone      func(S) S
	setLoading func(*S, bool)
}

func newHub[S any](initial S, clone func(S) S, setLoading func(*S, bool)) *hub[S] {
	return &hub[S]{
		state:      initial,
		tickets:    make(map[string]uint64),
		listeners:  make(map[uint64]func(S)),
		clone:      clone,
		setLoading: setLoading,
	}
}

// Snapshot returns a copy of the current state.
func (h *hub[S]) Snapshot() S {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clone(h.state)
}

// Subscribe registers fn to run after every state transition. The returned
// func removes it.
func (h *hub[S]) Subscribe(fn func(S)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// begin enters loading, applies mutate and returns a ticket for resource.
// An empty resource marks an untracked action.
func (h *hub[S]) begin(resource string, mutate func(*S)) uint64 {
	h.mu.Lock()
	h.inflight++
	var ticket uint64
	if resource != "" {
		h.tickets[resource]++
		ticket = h.tickets[resource]
	}
	h.setLoading(&h.state, true)
	if mutate != nil {
		mutate(&h.state)
	}
	snap, listeners := h.prepareLocked()
	h.mu.Unlock()
	notify(snap, listeners)
	return ticket
}

// finish leaves loading and applies apply when ticket is still current for
// resource. It reports whether apply ran.
func (h *hub[S]) finish(ctx context.Context, resource string, ticket uint64, apply func(*S)) bool {
	h.mu.Lock()
	h.inflight--
	current := resource == "" || h.tickets[resource] == ticket
	if current && apply != nil {
		apply(&h.state)
	}
	h.setLoading(&h.state, h.inflight > 0)
	snap, listeners := h.prepareLocked()
	h.mu.Unlock()

	if !current {
		util.LoggerFromContext(ctx).Debug("stale response dropped", "resource", resource, "ticket", ticket)
	}
	notify(snap, listeners)
	return current
}

// update applies a synchronous transition.
func (h *hub[S]) update(fn func(*S)) {
	h.mu.Lock()
	fn(&h.state)
	snap, listeners := h.prepareLocked()
	h.mu.Unlock()
	notify(snap, listeners)
}

func (h *hub[S]) prepareLocked() (S, []func(S)) {
	listeners := make([]func(S), 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	return h.clone(h.state), listeners
}

func notify[S any](snap S, listeners []func(S)) {
	for _, fn := range listeners {
		fn(snap)
	}
}

// checkPage logs a page whose pagination contradicts its data. The page is
// still applied as received.
func checkPage[T any](ctx context.Context, resource string, page domain.Page[T]) {
	if page.Valid() {
		return
	}
	p := page.Pagination
	util.LoggerFromContext(ctx).Debug("malformed page",
		"resource", resource,
		"items", len(page.Data),
		"total", p.Total,
		"limit", p.Limit,
		"total_pages", p.TotalPages,
	)
}
