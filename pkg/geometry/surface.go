package geometry

import (
	"fmt"
	"math"

	"github.com/groundrt/ground/pkg/core"
)

// MeshIDNone is the sentinel mesh id marking a missing surface point,
// most importantly a ray that did not hit anything
const MeshIDNone = -1

// normalEpsilon is the tolerance used when validating unit-length normals
const normalEpsilon = 1e-6

// SurfacePoint identifies a point on a mesh surface. It is always derived
// from a (mesh, primitive, barycentric) triple; Position, Normal and UV are
// the resolved world position, (possibly shading) normal and texture
// coordinates at that triple
type SurfacePoint struct {
	MeshID      int       // Index into the scene's mesh table, MeshIDNone if none
	PrimID      int       // Triangle index within the mesh
	Barycentric core.Vec2 // (b1, b2) with b0 = 1 - b1 - b2
	Position    core.Vec3
	Normal      core.Vec3
	UV          core.Vec2
}

// IsValid returns true if the point references a mesh
func (p *SurfacePoint) IsValid() bool {
	return p.MeshID != MeshIDNone
}

// Hit is a surface point found by tracing a ray, together with the ray
// parameter at which it was found and the error offset to use when spawning
// follow-up rays from it
type Hit struct {
	Point       SurfacePoint
	Distance    float64
	ErrorOffset float64
}

// Miss returns the sentinel hit for a ray that intersected nothing
func Miss() Hit {
	return Hit{Point: SurfacePoint{MeshID: MeshIDNone}}
}

// IsValid returns true if the hit found a surface
func (h *Hit) IsValid() bool {
	return h.Point.IsValid()
}

// SurfaceSample is a surface point produced by primary-sample-space mapping.
// Jacobian is the density-conversion factor from the unit square to the
// surface-area measure, i.e. the reciprocal of the area density of the point
type SurfaceSample struct {
	Point    SurfacePoint
	Jacobian float64
}

// GeometryTerms holds the cosines, squared distance and combined geometric
// term between two surface points
type GeometryTerms struct {
	CosFrom         float64
	CosTo           float64
	SquaredDistance float64
	GeomTerm        float64
}

// ComputeGeometryTerms evaluates the geometric coupling between two surface
// points: cosFrom·cosTo / squaredDistance. Coincident points yield a zero
// geometric term instead of NaN/Inf. Both normals must be unit length
func ComputeGeometryTerms(from, to *SurfacePoint) GeometryTerms {
	if !from.Normal.IsUnitLength(normalEpsilon) {
		panic(fmt.Sprintf("geometry: from.Normal is not unit length: %+v", from.Normal))
	}
	if !to.Normal.IsUnitLength(normalEpsilon) {
		panic(fmt.Sprintf("geometry: to.Normal is not unit length: %+v", to.Normal))
	}

	dir := to.Position.Subtract(from.Position)
	squaredDistance := dir.LengthSquared()
	dir = dir.Multiply(1.0 / math.Sqrt(squaredDistance))

	cosFrom := math.Abs(from.Normal.Dot(dir))
	cosTo := math.Abs(to.Normal.Dot(dir.Negate()))

	geomTerm := cosFrom * cosTo / squaredDistance

	// Sampling the exact same point for "from" and "to" must not poison the
	// accumulator with NaN
	if squaredDistance == 0 {
		cosFrom, cosTo, geomTerm = 0, 0, 0
	}

	return GeometryTerms{
		CosFrom:         cosFrom,
		CosTo:           cosTo,
		SquaredDistance: squaredDistance,
		GeomTerm:        geomTerm,
	}
}
