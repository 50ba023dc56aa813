// ABOUTME: Engine instance registry
// ABOUTME: Resolves device completion handlers to the engine that owns them
package engine

import (
	"sync"

	"github.com/google/uuid"
)

// registry maps session IDs to running engines. Device handlers carry only
// the ID, so notifications arriving after Stop resolve to nothing.
type registry struct {
	mu      sync.RWMutex
	engines map[uuid.UUID]*Engine
}

var instances = &registry{engines: make(map[uuid.UUID]*Engine)}

func (r *registry) register(e *Engine) uuid.UUID {
	id := uuid.New()

	r.mu.Lock()
	r.engines[id] = e
	r.mu.Unlock()

	return id
}

func (r *registry) lookup(id uuid.UUID) *Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engines[id]
}

func (r *registry) unregister(id uuid.UUID) {
	r.mu.Lock()
	delete(r.engines, id)
	r.mu.Unlock()
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}
