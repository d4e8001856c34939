package automaton

import (
	"fmt"

	"github.com/l1jgo/autobuild/internal/blueprint"
	"github.com/l1jgo/autobuild/internal/config"
	"github.com/l1jgo/autobuild/internal/geom"
)

// scheduler walks a job's batches in build order. It owns the cursor into
// the element arena and the per-batch validation flag.
type scheduler struct {
	plan     *blueprint.Classification
	world    []blueprint.WorldElement // same layout as plan.Elements
	orderIdx int                      // index into blueprint.BuildOrder
	next     int                      // absolute arena index of the next element
	checked  bool                     // current batch passed validation
}

func newScheduler(plan *blueprint.Classification, world []blueprint.WorldElement) *scheduler {
	s := &scheduler{plan: plan, world: world}
	s.skipEmpty()
	return s
}

// skipEmpty moves the cursor to the first non-empty batch at or after orderIdx.
func (s *scheduler) skipEmpty() {
	for s.orderIdx < len(blueprint.BuildOrder) {
		r := s.plan.Ranges[blueprint.BuildOrder[s.orderIdx]]
		if r.Len() > 0 {
			s.next = r.Start
			return
		}
		s.orderIdx++
	}
}

func (s *scheduler) done() bool { return s.orderIdx >= len(blueprint.BuildOrder) }

func (s *scheduler) category() blueprint.Category {
	return blueprint.BuildOrder[s.orderIdx]
}

func (s *scheduler) batch() []blueprint.WorldElement {
	r := s.plan.Ranges[s.category()]
	return s.world[r.Start:r.End]
}

// current is the element the executor works on next.
func (s *scheduler) current() *blueprint.WorldElement {
	return &s.world[s.next]
}

// advance moves past the current element and reports whether the batch is finished.
func (s *scheduler) advance() bool {
	s.next++
	if s.next < s.plan.Ranges[s.category()].End {
		return false
	}
	s.orderIdx++
	s.checked = false
	s.skipEmpty()
	return true
}

// needsValidation reports whether the current batch must pass the
// obstruction walk before anything in it is placed.
func (s *scheduler) needsValidation() bool {
	if s.checked {
		return false
	}
	cat := s.category()
	return cat == blueprint.Wall || cat == blueprint.Roof
}

// ValidateBatch walks consecutive element positions of a wall or roof batch.
// Each position must have a clear sight line from the previous one, lie
// outside prevent-building volumes, overlap no construction except the job's
// own, and stay off roads. own may be nil.
func ValidateBatch(cfg config.BuildConfig, q CollisionQuery, cat blueprint.Category,
	batch []blueprint.WorldElement, own map[EntityHandle]struct{}) error {
	blocked := ErrWallBlocked
	if cat == blueprint.Roof {
		blocked = ErrRoofBlocked
	}

	var prev geom.Vec3
	for i := range batch {
		pos := batch[i].Position
		eye := pos.Lift(cfg.SightLift)
		if i > 0 && !q.LineClear(prev, eye) {
			return fmt.Errorf("%s %d: sight line from previous element obstructed: %w", cat, i, blocked)
		}
		if len(q.OverlapSphere(pos, cfg.PreventRadius, LayerPreventBuilding)) > 0 {
			return fmt.Errorf("%s %d: inside prevent-building volume: %w", cat, i, blocked)
		}
		for _, h := range q.OverlapSphere(pos, cfg.OverlapRadius, LayerConstruction) {
			if _, mine := own[h]; !mine {
				return fmt.Errorf("%s %d: overlaps entity %d: %w", cat, i, h, blocked)
			}
		}
		if q.OnRoad(pos) {
			return fmt.Errorf("%s %d: on road: %w", cat, i, blocked)
		}
		prev = eye
	}
	return nil
}
