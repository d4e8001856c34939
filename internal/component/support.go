package component

import "github.com/l1jgo/autobuild/internal/core/ecs"

// Support is the stability state of a structural part.
type Support struct {
	Grounded  bool
	Supports  []ecs.EntityID // parts this one rests on
	Stability float64        // 0..1; 1 for grounded parts
}

// PreventVolume marks a sphere nothing may be built in. The sphere's center
// is the entity's Transform.
type PreventVolume struct {
	Radius float64
}
