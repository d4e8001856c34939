package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/autobuild/internal/automaton"
	"github.com/l1jgo/autobuild/internal/blueprint"
	"github.com/l1jgo/autobuild/internal/data"
	"github.com/l1jgo/autobuild/internal/geom"
)

func TestInventoryTakeGive(t *testing.T) {
	inv := NewInventory(map[string]int{"wood": 100, "stones": 0})
	assert.Equal(t, []string{"wood"}, inv.Items())

	assert.Equal(t, 60, inv.Take("wood", 60))
	assert.Equal(t, 40, inv.Take("wood", 60))
	assert.Zero(t, inv.Take("wood", 1))
	assert.Zero(t, inv.Take("wood", -5))

	inv.Give("wood", 7)
	inv.Add("metal.fragments", -3)
	assert.Equal(t, map[string]int{"wood": 7}, inv.Snapshot())
}

func TestGridNear(t *testing.T) {
	g := NewGrid()
	g.Add(1, geom.V(-0.5, 0, -0.5))
	g.Add(2, geom.V(7.9, 0, 0))
	g.Add(3, geom.V(40, 0, 40))

	assert.ElementsMatch(t, []any{uint64(1), uint64(2)}, toAny(g.Near(geom.V(0, 0, 0), 1)))
	g.Remove(2, geom.V(7.9, 0, 0))
	assert.Len(t, g.Near(geom.V(0, 0, 0), 1), 1)
	assert.Len(t, g.Along(geom.V(0, 0, 0), geom.V(40, 0, 40), 1), 2)
}

func toAny[T ~uint64](ids []T) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}

func TestGroundHeightPatches(t *testing.T) {
	sb := NewSandbox(&data.Site{BaseHeight: 5, Patches: []data.HeightPatch{
		{Area: data.Rect{MinX: 0, MinZ: 0, MaxX: 10, MaxZ: 10}, Height: 7},
		{Area: data.Rect{MinX: 5, MinZ: 5, MaxX: 10, MaxZ: 10}, Height: 9},
	}}, nil)
	assert.Equal(t, 5.0, sb.GroundHeight(geom.V(-1, 0, 0)))
	assert.Equal(t, 7.0, sb.GroundHeight(geom.V(1, 0, 1)))
	assert.Equal(t, 9.0, sb.GroundHeight(geom.V(6, 0, 6)))
}

func TestSandboxLifecycle(t *testing.T) {
	sb := NewSandbox(&data.Site{Inventories: map[string]map[string]int{"alice": {"wood": 10}}}, nil)

	inv, ok := sb.Inventory("alice")
	require.True(t, ok)
	assert.Equal(t, 10, inv.GetAmount("wood"))
	_, ok = sb.Inventory("bob")
	assert.False(t, ok)

	_, err := sb.CreateEntity("", geom.Vec3{}, geom.Vec3{})
	assert.Error(t, err)

	h, err := sb.CreateEntity("wall", geom.V(1, 0, 0), geom.V(0, 90, 0))
	require.NoError(t, err)
	assert.Empty(t, sb.OverlapSphere(geom.V(1, 0, 0), 0.1, automaton.LayerConstruction), "not spawned yet")

	flags := map[string]bool{"locked": true}
	sb.Configure(h, automaton.EntitySetup{Category: blueprint.Wall, Grade: blueprint.GradeStone, Owner: "alice", ConstructionID: "c1", Flags: flags})
	flags["locked"] = false
	sb.Spawn(h)
	sb.Spawn(h)
	assert.Len(t, sb.SpawnLog(), 1)
	assert.Equal(t, []automaton.EntityHandle{h}, sb.OverlapSphere(geom.V(1, 0, 0), 0.1, automaton.LayerConstruction))
	assert.False(t, sb.LineClear(geom.V(0, 0, 0), geom.V(2, 0, 0)))
	assert.True(t, sb.CapsuleCollides(geom.V(1, -1, 0), geom.V(1, 1, 0), 0.1))

	p, tr, ok := sb.Part(h)
	require.True(t, ok)
	assert.Equal(t, blueprint.GradeStone, p.Grade)
	assert.Equal(t, "c1", p.ConstructionID)
	assert.True(t, p.Flags["locked"], "flags are copied at configure time")
	assert.Equal(t, 90.0, tr.Rot.Y)
	assert.Equal(t, 1, sb.Count())

	sb.Kill(h)
	assert.Zero(t, sb.Count())
	assert.True(t, sb.LineClear(geom.V(0, 0, 0), geom.V(2, 0, 0)))
	sb.ECS().FlushDestroyQueue()
	_, _, ok = sb.Part(h)
	assert.False(t, ok)
}

func TestPreventVolumesAreEntities(t *testing.T) {
	sb := NewSandbox(&data.Site{Prevent: []data.Sphere{{X: 10, Y: 0, Z: 0, Radius: 2}}}, nil)
	assert.Len(t, sb.OverlapSphere(geom.V(11, 0, 0), 0.5, automaton.LayerPreventBuilding), 1)
	assert.Empty(t, sb.OverlapSphere(geom.V(13, 0, 0), 0.5, automaton.LayerPreventBuilding))
	assert.Empty(t, sb.OverlapSphere(geom.V(10, 0, 0), 0.5, automaton.LayerConstruction))
}

func TestBuildingBlocked(t *testing.T) {
	sb := NewSandbox(&data.Site{Privilege: []data.PrivilegeZone{{X: 0, Z: 0, Radius: 5, Owners: []string{"alice"}}}}, nil)
	assert.False(t, sb.BuildingBlocked("alice", geom.V(1, 0, 1)))
	assert.True(t, sb.BuildingBlocked("bob", geom.V(1, 0, 1)))
	assert.False(t, sb.BuildingBlocked("bob", geom.V(10, 0, 0)))

	sb.Place("cupboard.tool", blueprint.PrivilegeNode, "carol", geom.V(30, 0, 0))
	assert.True(t, sb.BuildingBlocked("bob", geom.V(40, 0, 0)))
	assert.False(t, sb.BuildingBlocked("carol", geom.V(40, 0, 0)))
	assert.False(t, sb.BuildingBlocked("bob", geom.V(60, 0, 0)))
}

func TestStabilityRestsOnOwnConstruction(t *testing.T) {
	sb := NewSandbox(&data.Site{}, nil)
	place := func(cat blueprint.Category, cid string, pos geom.Vec3) automaton.EntityHandle {
		h, _ := sb.CreateEntity("part", pos, geom.Vec3{})
		sb.Configure(h, automaton.EntitySetup{Category: cat, ConstructionID: cid})
		sb.Spawn(h)
		return h
	}
	f := place(blueprint.Foundation, "a", geom.V(0, 0, 0))
	w := place(blueprint.Wall, "a", geom.V(1.5, 0, 0))
	stray := place(blueprint.Wall, "b", geom.V(-1.5, 0, 0))

	for _, h := range []automaton.EntityHandle{f, w, stray} {
		sb.ResetSupport(h)
	}
	for _, h := range []automaton.EntityHandle{f, w, stray} {
		sb.RecomputeStability(h)
	}

	fs, _ := sb.Stability(f)
	assert.True(t, fs.Grounded)
	assert.Equal(t, 1.0, fs.Stability)

	ws, _ := sb.Stability(w)
	assert.InDelta(t, supportDecay, ws.Stability, 1e-9)
	assert.Len(t, ws.Supports, 1)

	ss, _ := sb.Stability(stray)
	assert.Zero(t, ss.Stability)

	parts, loose := sb.Settled()
	assert.Equal(t, 3, parts)
	assert.Equal(t, 1, loose)
	assert.Equal(t, []automaton.EntityHandle{stray}, sb.Unsupported("b"))
	assert.Empty(t, sb.Unsupported("a"))

	resets, recomputes, at := sb.StabilityStats()
	assert.Equal(t, 3, resets)
	assert.Equal(t, 3, recomputes)
	assert.Equal(t, 3, at)
}
