package world

import (
	"github.com/l1jgo/autobuild/internal/automaton"
	"github.com/l1jgo/autobuild/internal/blueprint"
	"github.com/l1jgo/autobuild/internal/component"
	"github.com/l1jgo/autobuild/internal/core/ecs"
)

const (
	supportReach = 3.5  // farthest a supporting part's center may be
	supportDecay = 0.9  // stability lost per support hop
	minStability = 0.05 // below this a part counts as unsupported
)

// ResetSupport implements automaton.StabilityHost.
func (s *Sandbox) ResetSupport(h automaton.EntityHandle) {
	s.settling()
	s.resets++
	id := ecs.EntityID(h)
	if !s.parts.Has(id) {
		return
	}
	s.supports.Set(id, &component.Support{})
}

// RecomputeStability grounds foundations and rests every other part on the
// most stable structural neighbour of its own construction at or below it.
func (s *Sandbox) RecomputeStability(h automaton.EntityHandle) {
	s.settling()
	s.recomputes++
	id := ecs.EntityID(h)
	p, ok := s.parts.Get(id)
	if !ok || !p.Spawned || !p.Category.Structural() {
		return
	}
	sup, ok := s.supports.Get(id)
	if !ok {
		sup = &component.Support{}
		s.supports.Set(id, sup)
	}
	t, _ := s.transforms.Get(id)

	if p.Category == blueprint.Foundation {
		sup.Grounded = t.Pos.Y-s.GroundHeight(t.Pos) >= -1e-6
		sup.Stability = 1
		sup.Supports = nil
		return
	}

	best := 0.0
	sup.Supports = sup.Supports[:0]
	for _, other := range s.grid.Near(t.Pos, supportReach) {
		if other == id {
			continue
		}
		op, _ := s.parts.Get(other)
		if op.ConstructionID != p.ConstructionID || !op.Category.Structural() {
			continue
		}
		ot, _ := s.transforms.Get(other)
		if ot.Pos.Y > t.Pos.Y+1e-6 || ot.Pos.Dist(t.Pos) > supportReach {
			continue
		}
		base, ok := s.supports.Get(other)
		if !ok || base.Stability < minStability {
			continue
		}
		sup.Supports = append(sup.Supports, other)
		best = max(best, base.Stability*supportDecay)
	}
	sup.Stability = best
}

// Stability returns the computed support state of a part.
func (s *Sandbox) Stability(h automaton.EntityHandle) (component.Support, bool) {
	sup, ok := s.supports.Get(ecs.EntityID(h))
	if !ok {
		return component.Support{}, false
	}
	return *sup, true
}

// Settled counts the parts that carry a support record and how many of them
// ended below the unsupported threshold.
func (s *Sandbox) Settled() (parts, unsupported int) {
	ecs.Each2(s.parts, s.supports, func(_ ecs.EntityID, p *component.Part, sup *component.Support) {
		if !p.Spawned || !p.Category.Structural() {
			return
		}
		parts++
		if sup.Stability < minStability {
			unsupported++
		}
	})
	return parts, unsupported
}

// Unsupported lists, in ascending handle order, the structural parts of a
// construction whose stability fell below the unsupported threshold.
func (s *Sandbox) Unsupported(constructionID string) []automaton.EntityHandle {
	var out []automaton.EntityHandle
	for _, id := range ecs.Join2(s.parts, s.supports) {
		p, _ := s.parts.Get(id)
		sup, _ := s.supports.Get(id)
		if p.Spawned && p.Category.Structural() && p.ConstructionID == constructionID && sup.Stability < minStability {
			out = append(out, automaton.EntityHandle(id))
		}
	}
	return out
}

// StabilityStats reports how many resets and recomputes were requested and
// how many parts had been spawned when the first of them arrived (-1 if none).
func (s *Sandbox) StabilityStats() (resets, recomputes, spawnedAtSettle int) {
	return s.resets, s.recomputes, s.spawnedAtSettle
}

func (s *Sandbox) settling() {
	if s.spawnedAtSettle < 0 {
		s.spawnedAtSettle = len(s.spawnOrder)
	}
}
