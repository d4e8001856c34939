package ecs

// World owns the entity pool, the component registry and a deferred
// destruction queue. Entities marked during a tick stay alive and queryable
// until CleanupSystem flushes the queue.
type World struct {
	pool     *EntityPool
	registry *Registry
	queue    []EntityID
	queued   map[EntityID]struct{}
}

func NewWorld() *World {
	return &World{
		pool:     NewEntityPool(),
		registry: NewRegistry(),
		queue:    make([]EntityID, 0, 64),
		queued:   make(map[EntityID]struct{}, 64),
	}
}

func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID { return w.pool.Create() }

func (w *World) Alive(id EntityID) bool { return w.pool.Alive(id) }

// Pending returns how many distinct entities wait in the destroy queue.
func (w *World) Pending() int { return len(w.queue) }

// MarkForDestruction queues an entity for end-of-tick cleanup. Dead and
// already queued ids are ignored.
func (w *World) MarkForDestruction(id EntityID) {
	if !w.pool.Alive(id) {
		return
	}
	if _, dup := w.queued[id]; dup {
		return
	}
	w.queued[id] = struct{}{}
	w.queue = append(w.queue, id)
}

// FlushDestroyQueue destroys the queued entities in marking order, drops
// their components and returns how many were destroyed.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.queue {
		if !w.pool.Alive(id) {
			continue
		}
		w.registry.RemoveAll(id)
		w.pool.Destroy(id)
		n++
	}
	w.queue = w.queue[:0]
	clear(w.queued)
	return n
}
