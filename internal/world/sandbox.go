package world

import (
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/automaton"
	"github.com/l1jgo/autobuild/internal/blueprint"
	"github.com/l1jgo/autobuild/internal/component"
	"github.com/l1jgo/autobuild/internal/core/ecs"
	"github.com/l1jgo/autobuild/internal/data"
	"github.com/l1jgo/autobuild/internal/geom"
)

const (
	partRadius      = 0.5  // collision radius of a placed part
	privilegeRadius = 15.0 // authority range of a spawned privilege node
)

// Sandbox is an in-memory world built from a site description. It provides
// every world-side collaborator the build automaton needs.
// Accessed only from the game loop goroutine.
type Sandbox struct {
	ecs  *ecs.World
	site *data.Site
	log  *zap.Logger

	transforms *ecs.PtrComponentStore[component.Transform]
	parts      *ecs.PtrComponentStore[component.Part]
	supports   *ecs.PtrComponentStore[component.Support]
	prevents   *ecs.PtrComponentStore[component.PreventVolume]

	grid        *Grid // spawned parts
	preventGrid *Grid

	inventories map[automaton.OwnerID]*Inventory

	spawnOrder      []automaton.EntityHandle
	resets          int
	recomputes      int
	spawnedAtSettle int // spawn count when the first stability call arrived, -1 before
}

// NewSandbox builds a world for site. Prevent volumes become entities and
// each configured inventory is created for its owner.
func NewSandbox(site *data.Site, log *zap.Logger) *Sandbox {
	if site == nil {
		site = &data.Site{Name: "flat"}
	}
	if log == nil {
		log = zap.NewNop()
	}
	w := ecs.NewWorld()
	s := &Sandbox{
		ecs:             w,
		site:            site,
		log:             log,
		transforms:      ecs.NewPtrComponentStore[component.Transform](),
		parts:           ecs.NewPtrComponentStore[component.Part](),
		supports:        ecs.NewPtrComponentStore[component.Support](),
		prevents:        ecs.NewPtrComponentStore[component.PreventVolume](),
		grid:            NewGrid(),
		preventGrid:     NewGrid(),
		inventories:     make(map[automaton.OwnerID]*Inventory),
		spawnedAtSettle: -1,
	}
	w.Registry().Register(s.transforms, s.parts, s.supports, s.prevents)

	for _, v := range site.Prevent {
		id := w.CreateEntity()
		pos := geom.V(v.X, v.Y, v.Z)
		s.transforms.Set(id, &component.Transform{Pos: pos})
		s.prevents.Set(id, &component.PreventVolume{Radius: v.Radius})
		s.preventGrid.Add(id, pos)
	}
	for owner, items := range site.Inventories {
		s.inventories[automaton.OwnerID(owner)] = NewInventory(items)
	}
	return s
}

// ECS exposes the entity world so the cleanup system can flush it.
func (s *Sandbox) ECS() *ecs.World { return s.ecs }

func (s *Sandbox) Site() *data.Site { return s.site }

// ── Inventories ────────────────────────────────────────────────────

// Inventory implements automaton.Inventories.
func (s *Sandbox) Inventory(owner automaton.OwnerID) (automaton.InventorySource, bool) {
	inv, ok := s.inventories[owner]
	if !ok {
		return nil, false
	}
	return inv, true
}

// Wallet returns the owner's inventory, creating an empty one if needed.
func (s *Sandbox) Wallet(owner automaton.OwnerID) *Inventory {
	inv, ok := s.inventories[owner]
	if !ok {
		inv = NewInventory(nil)
		s.inventories[owner] = inv
	}
	return inv
}

// ── WorldFactory ───────────────────────────────────────────────────

func (s *Sandbox) CreateEntity(kind blueprint.Kind, pos, rot geom.Vec3) (automaton.EntityHandle, error) {
	if kind == "" {
		return 0, fmt.Errorf("create entity: empty kind")
	}
	id := s.ecs.CreateEntity()
	s.transforms.Set(id, &component.Transform{Pos: pos, Rot: rot})
	s.parts.Set(id, &component.Part{Kind: kind})
	return automaton.EntityHandle(id), nil
}

func (s *Sandbox) Configure(h automaton.EntityHandle, setup automaton.EntitySetup) {
	p, ok := s.parts.Get(ecs.EntityID(h))
	if !ok {
		return
	}
	p.Category = setup.Category
	p.Grade = setup.Grade
	p.Skin = setup.Skin
	p.Owner = string(setup.Owner)
	p.ConstructionID = setup.ConstructionID
	p.Flags = maps.Clone(setup.Flags)
}

func (s *Sandbox) Spawn(h automaton.EntityHandle) {
	id := ecs.EntityID(h)
	p, ok := s.parts.Get(id)
	if !ok || p.Spawned {
		return
	}
	t, _ := s.transforms.Get(id)
	p.Spawned = true
	s.grid.Add(id, t.Pos)
	s.spawnOrder = append(s.spawnOrder, h)
}

// Kill removes a part from every query at once; its storage is released
// when the destroy queue is flushed.
func (s *Sandbox) Kill(h automaton.EntityHandle) {
	id := ecs.EntityID(h)
	if p, ok := s.parts.Get(id); ok && p.Spawned {
		t, _ := s.transforms.Get(id)
		s.grid.Remove(id, t.Pos)
		p.Spawned = false
	}
	s.ecs.MarkForDestruction(id)
}

// Place spawns a finished part outside of any job, e.g. pre-existing
// construction of another owner.
func (s *Sandbox) Place(kind blueprint.Kind, cat blueprint.Category, owner string, pos geom.Vec3) automaton.EntityHandle {
	h, _ := s.CreateEntity(kind, pos, geom.Vec3{})
	s.Configure(h, automaton.EntitySetup{Category: cat, Owner: automaton.OwnerID(owner)})
	s.Spawn(h)
	return h
}

// Part returns a copy of a live part.
func (s *Sandbox) Part(h automaton.EntityHandle) (component.Part, component.Transform, bool) {
	id := ecs.EntityID(h)
	if !s.ecs.Alive(id) {
		return component.Part{}, component.Transform{}, false
	}
	p, ok := s.parts.Get(id)
	if !ok {
		return component.Part{}, component.Transform{}, false
	}
	t, _ := s.transforms.Get(id)
	return *p, *t, true
}

// SpawnLog returns every handle spawned so far, in order, including ones
// that were killed later.
func (s *Sandbox) SpawnLog() []automaton.EntityHandle { return s.spawnOrder }

// Count returns the number of spawned parts still in the world.
func (s *Sandbox) Count() int {
	n := 0
	s.parts.Each(func(_ ecs.EntityID, p *component.Part) {
		if p.Spawned {
			n++
		}
	})
	return n
}

// ── CollisionQuery ─────────────────────────────────────────────────

// GroundHeight is the site's base height overridden by the last patch
// covering the point.
func (s *Sandbox) GroundHeight(pos geom.Vec3) float64 {
	h := s.site.BaseHeight
	for _, p := range s.site.Patches {
		if p.Area.Contains(pos.X, pos.Z) {
			h = p.Height
		}
	}
	return h
}

func (s *Sandbox) CapsuleCollides(a, b geom.Vec3, radius float64) bool {
	reach := radius + partRadius
	for _, id := range s.grid.Along(a, b, reach) {
		t, _ := s.transforms.Get(id)
		if geom.SegmentPointDist(a, b, t.Pos) < reach {
			return true
		}
	}
	return false
}

// OverlapSphere returns handles in ascending order.
func (s *Sandbox) OverlapSphere(pos geom.Vec3, radius float64, layer automaton.Layer) []automaton.EntityHandle {
	var hits []automaton.EntityHandle
	switch layer {
	case automaton.LayerConstruction:
		for _, id := range s.grid.Near(pos, radius+partRadius) {
			t, _ := s.transforms.Get(id)
			if t.Pos.Dist(pos) < radius+partRadius {
				hits = append(hits, automaton.EntityHandle(id))
			}
		}
	case automaton.LayerPreventBuilding:
		s.prevents.Each(func(id ecs.EntityID, v *component.PreventVolume) {
			t, _ := s.transforms.Get(id)
			if t.Pos.Dist(pos) < radius+v.Radius {
				hits = append(hits, automaton.EntityHandle(id))
			}
		})
	}
	slices.Sort(hits)
	return hits
}

// LineClear reports whether no spawned part touches the segment ab.
func (s *Sandbox) LineClear(a, b geom.Vec3) bool {
	for _, id := range s.grid.Along(a, b, partRadius) {
		t, _ := s.transforms.Get(id)
		if geom.SegmentPointDist(a, b, t.Pos) < partRadius {
			return false
		}
	}
	return true
}

func (s *Sandbox) OnRoad(pos geom.Vec3) bool {
	for _, r := range s.site.Roads {
		if r.Contains(pos.X, pos.Z) {
			return true
		}
	}
	return false
}

// BuildingBlocked reports whether pos lies inside an authority area that
// does not list owner: a site privilege zone or another owner's spawned
// privilege node.
func (s *Sandbox) BuildingBlocked(owner automaton.OwnerID, pos geom.Vec3) bool {
	for _, z := range s.site.Privilege {
		if pos.DistXZ(geom.V(z.X, 0, z.Z)) <= z.Radius && !slices.Contains(z.Owners, string(owner)) {
			return true
		}
	}
	for _, id := range s.grid.Near(pos, privilegeRadius) {
		p, _ := s.parts.Get(id)
		if p.Category != blueprint.PrivilegeNode || p.Owner == string(owner) {
			continue
		}
		t, _ := s.transforms.Get(id)
		if t.Pos.DistXZ(pos) <= privilegeRadius {
			return true
		}
	}
	return false
}
