package component

import (
	"github.com/l1jgo/autobuild/internal/blueprint"
	"github.com/l1jgo/autobuild/internal/geom"
)

// Transform is an entity's world placement.
type Transform struct {
	Pos geom.Vec3
	Rot geom.Vec3 // Euler degrees
}

// Part is a placed building element.
// Pure data. All mutations happen in the world.
type Part struct {
	Kind           blueprint.Kind
	Category       blueprint.Category
	Grade          blueprint.Grade
	Skin           uint64
	Owner          string
	ConstructionID string
	Flags          map[string]bool
	Spawned        bool // false between create and spawn
}
