package core

// Ray represents a ray with an origin and direction. The direction is not
// required to be unit length; intersection distances are reported in units of
// the direction's length. ErrorOffset is the distance by which rays spawned
// from a surface are displaced to avoid self-intersection.
type Ray struct {
	Origin      Vec3
	Direction   Vec3
	ErrorOffset float64
}

// NewRay creates a new ray with a zero error offset
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// NewOffsetRay creates a new ray carrying the given error offset
func NewOffsetRay(origin, direction Vec3, errorOffset float64) Ray {
	return Ray{Origin: origin, Direction: direction, ErrorOffset: errorOffset}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}
