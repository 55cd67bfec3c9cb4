// internal/service/globe/window.go

package globe

import (
	"sort"
	"sync"

	"roomglobe/internal/domain/globe"
)

// Dispatcher is an in-process globe.Window. The host feeds it window-level
// pointer events; it fans them out to whoever is listening at that moment.
type Dispatcher struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]listener
}

type listener struct {
	kind globe.PointerKind
	fn   func(globe.PointerEvent)
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[int]listener)}
}

// Listen implements globe.Window. Calling release more than once is harmless.
func (d *Dispatcher) Listen(kind globe.PointerKind, fn func(globe.PointerEvent)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.listeners[id] = listener{kind: kind, fn: fn}

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

// Dispatch delivers ev to the listeners registered for its kind and returns
// how many were called. Listeners may release themselves while running.
func (d *Dispatcher) Dispatch(ev globe.PointerEvent) int {
	d.mu.Lock()
	ids := make([]int, 0, len(d.listeners))
	for id, l := range d.listeners {
		if l.kind == ev.Kind {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	fns := make([]func(globe.PointerEvent), len(ids))
	for i, id := range ids {
		fns[i] = d.listeners[id].fn
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
	return len(fns)
}

// Len returns the number of registered listeners
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}
