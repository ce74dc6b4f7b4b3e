// Package material defines the polymorphic scattering contract evaluated at
// surface points, plus the concrete generic (diffuse + emissive) variant.
package material

import (
	"github.com/groundrt/ground/pkg/core"
	"github.com/groundrt/ground/pkg/geometry"
)

// BsdfSampleInfo carries the sampling densities of a scattering direction in
// solid-angle measure. Forward is the density under the technique that
// generated the direction; Reverse is the density the same direction would
// have under the opposite subpath's sampling convention. Both are required
// for MIS weight computation
type BsdfSampleInfo struct {
	Forward float64
	Reverse float64
}

// Material is the scattering model attached to a mesh. All directions point
// away from the surface
type Material interface {
	// EvaluateBsdf returns the non-negative scattering value for the given
	// direction pair
	EvaluateBsdf(point *geometry.SurfacePoint, inDir, outDir core.Vec3, isOnLightSubpath bool) core.Vec3

	// WrapPrimarySampleToBsdf maps a primary sample from the unit square to
	// a scattered direction, returning the direction and its densities
	WrapPrimarySampleToBsdf(point *geometry.SurfacePoint, outDir core.Vec3, primarySample core.Vec2, isOnLightSubpath bool) (core.Vec3, BsdfSampleInfo)

	// ComputeEmission returns the radiance emitted from the point into
	// outDir, zero unless outDir lies on the same side as the shading normal
	ComputeEmission(point *geometry.SurfacePoint, outDir core.Vec3) core.Vec3

	// ComputeJacobians recomputes the sampling densities for an externally
	// supplied direction pair, needed when MIS must weight a direction that
	// a different technique generated
	ComputeJacobians(point *geometry.SurfacePoint, inDir, outDir core.Vec3, isOnLightSubpath bool) BsdfSampleInfo

	// IsEmissive reports whether the material emits light; drives
	// emitter-registry membership
	IsEmissive() bool
}
