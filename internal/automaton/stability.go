package automaton

// StabilityRegistry collects the structural entities a job places and runs
// the support recomputation once, after the last batch.
type StabilityRegistry struct {
	handles   []EntityHandle
	finalized bool
}

// Register adds a structural entity. Nothing is computed here; placing
// elements must not trigger incremental support updates.
func (r *StabilityRegistry) Register(h EntityHandle) {
	r.handles = append(r.handles, h)
}

func (r *StabilityRegistry) Len() int { return len(r.handles) }

// Finalize clears support state on every registered entity and then
// recomputes stability for each, in registration order. A second call is a no-op.
func (r *StabilityRegistry) Finalize(host StabilityHost) {
	if r.finalized || host == nil {
		r.finalized = true
		return
	}
	r.finalized = true
	for _, h := range r.handles {
		host.ResetSupport(h)
	}
	for _, h := range r.handles {
		host.RecomputeStability(h)
	}
}

// Drop forgets every handle, used when a canceled job's entities are killed.
func (r *StabilityRegistry) Drop() {
	r.handles = nil
	r.finalized = true
}
