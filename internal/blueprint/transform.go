package blueprint

import "github.com/l1jgo/autobuild/internal/geom"

// Anchor is the world point and yaw correction a whole blueprint is placed on.
type Anchor struct {
	Position geom.Vec3
	Yaw      float64 // degrees
}

// ToWorld maps a blueprint-local transform onto the anchor. Every element of
// a job goes through the same rotation and translation.
func ToWorld(localPos, localRot geom.Vec3, anchor Anchor) (geom.Vec3, geom.Vec3) {
	pos := localPos.RotateY(anchor.Yaw).Add(anchor.Position)
	rot := geom.Vec3{
		X: geom.NormalizeDeg(localRot.X),
		Y: geom.NormalizeDeg(localRot.Y + anchor.Yaw),
		Z: geom.NormalizeDeg(localRot.Z),
	}
	return pos, rot
}

// FromWorld is the capture-time transform and the exact inverse of ToWorld.
func FromWorld(worldPos, worldRot geom.Vec3, anchor Anchor) (geom.Vec3, geom.Vec3) {
	pos := worldPos.Sub(anchor.Position).RotateY(-anchor.Yaw)
	rot := geom.Vec3{
		X: geom.NormalizeDeg(worldRot.X),
		Y: geom.NormalizeDeg(worldRot.Y - anchor.Yaw),
		Z: geom.NormalizeDeg(worldRot.Z),
	}
	return pos, rot
}

// Resolve transforms descriptors into world elements. offsetY is added to
// every resulting position, after rotation.
func Resolve(descs []ElementDescriptor, anchor Anchor, offsetY float64) []WorldElement {
	out := make([]WorldElement, len(descs))
	for i, d := range descs {
		pos, rot := ToWorld(d.LocalPosition, d.LocalRotation, anchor)
		out[i] = WorldElement{ElementDescriptor: d, Position: pos.Lift(offsetY), Rotation: rot}
	}
	return out
}
