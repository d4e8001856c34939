package geom

import "math"

// Vec3 is a world or blueprint-local point. Y is up.
type Vec3 struct {
	X, Y, Z float64
}

func V(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

// Up is the unit vertical vector.
var Up = Vec3{Y: 1}

func (v Vec3) Add(o Vec3) Vec3       { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3       { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(k float64) Vec3  { return Vec3{v.X * k, v.Y * k, v.Z * k} }
func (v Vec3) WithY(y float64) Vec3  { return Vec3{v.X, y, v.Z} }
func (v Vec3) Lift(dy float64) Vec3  { return Vec3{v.X, v.Y + dy, v.Z} }
func (v Vec3) Len() float64          { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }
func (v Vec3) Dist(o Vec3) float64   { return v.Sub(o).Len() }
func (v Vec3) DistXZ(o Vec3) float64 { return math.Hypot(v.X-o.X, v.Z-o.Z) }

// NearlyEqual compares component-wise within eps.
func (v Vec3) NearlyEqual(o Vec3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

// RotateY rotates v about the vertical axis by deg degrees (clockwise seen
// from above, matching a positive yaw).
func (v Vec3) RotateY(deg float64) Vec3 {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Vec3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// NormalizeDeg maps an angle into [0, 360).
func NormalizeDeg(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// AngleDelta returns the smallest signed difference a-b in degrees, in (-180, 180].
func AngleDelta(a, b float64) float64 {
	d := NormalizeDeg(a - b)
	if d > 180 {
		d -= 360
	}
	return d
}

// SegmentPointDist returns the distance from p to the segment ab.
func SegmentPointDist(a, b, p Vec3) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y + ab.Z*ab.Z
	if l2 == 0 {
		return p.Dist(a)
	}
	t := (p.Sub(a).X*ab.X + p.Sub(a).Y*ab.Y + p.Sub(a).Z*ab.Z) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(a.Add(ab.Scale(t)))
}
