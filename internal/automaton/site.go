package automaton

import (
	"fmt"

	"github.com/l1jgo/autobuild/internal/blueprint"
	"github.com/l1jgo/autobuild/internal/config"
	"github.com/l1jgo/autobuild/internal/geom"
)

// SiteState is the progress of a site search.
type SiteState int

const (
	SearchingGround SiteState = iota
	GroundFound
	GroundRejected
)

func (s SiteState) String() string {
	switch s {
	case SearchingGround:
		return "searching"
	case GroundFound:
		return "found"
	case GroundRejected:
		return "rejected"
	}
	return fmt.Sprintf("SiteState(%d)", int(s))
}

const groundEpsilon = 1e-6

// SiteSearch finds the vertical offset at which every foundation of a
// blueprint sits on or above ground, and rejects sites that fail any
// placement rule. One Step is one full pass over the foundations.
type SiteSearch struct {
	cfg         config.BuildConfig
	query       CollisionQuery
	owner       OwnerID
	anchor      blueprint.Anchor
	foundations []blueprint.ElementDescriptor

	offset     float64
	iterations int
	state      SiteState
	err        error
}

// NewSiteSearch starts a search for the given foundations. An empty
// foundation set is accepted at offset zero on the first step.
func NewSiteSearch(cfg config.BuildConfig, q CollisionQuery, owner OwnerID,
	anchor blueprint.Anchor, foundations []blueprint.ElementDescriptor) *SiteSearch {
	return &SiteSearch{cfg: cfg, query: q, owner: owner, anchor: anchor, foundations: foundations}
}

func (s *SiteSearch) State() SiteState { return s.state }
func (s *SiteSearch) Offset() float64  { return s.offset }
func (s *SiteSearch) Err() error       { return s.err }
func (s *SiteSearch) Iterations() int  { return s.iterations }

// Step runs one pass. When a foundation is below ground the offset is raised
// and the pass ends; the next Step restarts the scan from the first foundation.
func (s *SiteSearch) Step() SiteState {
	if s.state != SearchingGround {
		return s.state
	}
	if s.iterations >= s.cfg.MaxAnchorIterations {
		return s.reject(fmt.Errorf("offset still rising after %d passes: %w", s.iterations, ErrNoGroundFound))
	}
	s.iterations++

	for i, f := range s.foundations {
		pos, rot := blueprint.ToWorld(f.LocalPosition, f.LocalRotation, s.anchor)
		p := pos.Lift(s.offset)
		ground := s.query.GroundHeight(p)

		if p.Y < ground-groundEpsilon {
			s.offset += ground - p.Y
			return s.state
		}
		if err := s.checkFoundation(i, p, rot, ground); err != nil {
			return s.reject(err)
		}
	}
	s.state = GroundFound
	return s.state
}

func (s *SiteSearch) checkFoundation(i int, p, rot geom.Vec3, ground float64) error {
	cfg := s.cfg
	if p.Y-ground > cfg.MaxGroundClearance {
		return fmt.Errorf("foundation %d floats %.2f above ground: %w", i, p.Y-ground, ErrNoGroundFound)
	}
	if ground < cfg.WaterLevel-cfg.MaxWaterDepth {
		return fmt.Errorf("foundation %d over water %.2f deep: %w", i, cfg.WaterLevel-ground, ErrNoGroundFound)
	}
	bottom := p.Lift(cfg.CapsuleLift)
	if s.query.CapsuleCollides(bottom, bottom.Lift(cfg.CapsuleHeight), cfg.CapsuleRadius) {
		return fmt.Errorf("foundation %d at %v: %w", i, p, ErrCollisionDetected)
	}
	for _, pt := range footprint(p, rot.Y, cfg.FootprintHalfExtent) {
		if s.query.OnRoad(pt) {
			return fmt.Errorf("foundation %d at %v: %w", i, pt, ErrTooCloseToRoad)
		}
	}
	if s.query.BuildingBlocked(s.owner, p) {
		return fmt.Errorf("foundation %d at %v: %w", i, p, ErrBuildingBlocked)
	}
	return nil
}

func (s *SiteSearch) reject(err error) SiteState {
	s.state = GroundRejected
	s.err = err
	return s.state
}

// footprint returns the center and four corners of a square foundation.
func footprint(center geom.Vec3, yaw, half float64) [5]geom.Vec3 {
	corners := [4]geom.Vec3{
		{X: -half, Z: -half}, {X: half, Z: -half},
		{X: half, Z: half}, {X: -half, Z: half},
	}
	pts := [5]geom.Vec3{center}
	for i, c := range corners {
		pts[i+1] = c.RotateY(yaw).Add(center)
	}
	return pts
}
