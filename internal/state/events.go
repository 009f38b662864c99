package state

import "sync"

// Event identifies a class of state change.
type Event string

const (
	EventConnectivity Event = "connectivity"
	EventPending      Event = "pending"
	EventSync         Event = "sync"
	EventFavorites    Event = "favorites"
	EventPlaylists    Event = "playlists"
	EventFolders      Event = "folders"
	EventLibrary      Event = "library"
	EventQueue        Event = "queue"
)

// registry is a minimal synchronous pub/sub. Handlers run on the caller's
// goroutine after the container lock has been released, so they may read
// container state but must not block.
type registry struct {
	mu     sync.Mutex
	nextID int
	subs   map[Event]map[int]func()
}

func newRegistry() *registry {
	return &registry{subs: make(map[Event]map[int]func())}
}

func (r *registry) subscribe(e Event, fn func()) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	if r.subs[e] == nil {
		r.subs[e] = make(map[int]func())
	}
	r.subs[e][id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs[e], id)
	}
}

func (r *registry) emit(e Event) {
	r.mu.Lock()
	handlers := make([]func(), 0, len(r.subs[e]))
	for _, fn := range r.subs[e] {
		handlers = append(handlers, fn)
	}
	r.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// Subscribe registers a handler for an event class and returns its
// cancellation function.
func (c *Container) Subscribe(e Event, fn func()) (cancel func()) {
	return c.events.subscribe(e, fn)
}

// Notify fires an event class directly; used by components that mutate
// cached collections through the store rather than the container.
func (c *Container) Notify(e Event) {
	c.events.emit(e)
}
