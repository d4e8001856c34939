package world

import (
	"math"

	"github.com/l1jgo/autobuild/internal/core/ecs"
	"github.com/l1jgo/autobuild/internal/geom"
)

// Grid is a cell-based spatial index over the ground plane.
// Accessed only from the game loop goroutine, so no locks.

const cellSize = 8.0

type cellKey struct {
	cx int32
	cz int32
}

func toCellCoord(v float64) int32 {
	return int32(math.Floor(v / cellSize))
}

// Grid tracks which entities are in which cells.
type Grid struct {
	cells map[cellKey]map[ecs.EntityID]struct{}
}

func NewGrid() *Grid {
	return &Grid{
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
	}
}

func (g *Grid) key(p geom.Vec3) cellKey {
	return cellKey{cx: toCellCoord(p.X), cz: toCellCoord(p.Z)}
}

// Add places an entity into the grid.
func (g *Grid) Add(id ecs.EntityID, p geom.Vec3) {
	k := g.key(p)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

// Remove takes an entity out of the grid.
func (g *Grid) Remove(id ecs.EntityID, p geom.Vec3) {
	k := g.key(p)
	if cell := g.cells[k]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Near returns every entity in the cells overlapping the square of half
// size radius around p. Caller does fine-grained distance filtering.
func (g *Grid) Near(p geom.Vec3, radius float64) []ecs.EntityID {
	minX, maxX := toCellCoord(p.X-radius), toCellCoord(p.X+radius)
	minZ, maxZ := toCellCoord(p.Z-radius), toCellCoord(p.Z+radius)
	var result []ecs.EntityID
	for cx := minX; cx <= maxX; cx++ {
		for cz := minZ; cz <= maxZ; cz++ {
			for id := range g.cells[cellKey{cx: cx, cz: cz}] {
				result = append(result, id)
			}
		}
	}
	return result
}

// Along returns every entity near the segment ab.
func (g *Grid) Along(a, b geom.Vec3, radius float64) []ecs.EntityID {
	c := a.Add(b).Scale(0.5)
	return g.Near(c, a.DistXZ(b)/2+radius)
}
