package material

import (
	"math"

	"github.com/groundrt/ground/pkg/core"
	"github.com/groundrt/ground/pkg/film"
	"github.com/groundrt/ground/pkg/geometry"
)

// Generic is the uber material: a diffuse reflector with an optional
// base-color texture and an optional emission texture. A nil base color
// reflects nothing; a nil emission makes the material non-emissive
type Generic struct {
	BaseColor *film.Buffer
	Emission  *film.Buffer
}

// NewGeneric creates a generic material from optional base-color and
// emission textures
func NewGeneric(baseColor, emission *film.Buffer) *Generic {
	return &Generic{BaseColor: baseColor, Emission: emission}
}

// reflectance samples the base-color texture at the point's texture
// coordinates, zero if no texture is attached
func (g *Generic) reflectance(point *geometry.SurfacePoint) core.Vec3 {
	if g.BaseColor == nil {
		return core.Vec3{}
	}
	return g.BaseColor.Lookup(point.UV)
}

// EvaluateBsdf returns the diffuse scattering value reflectance/π, zero when
// the two directions lie on opposite sides of the shading normal
func (g *Generic) EvaluateBsdf(point *geometry.SurfacePoint, inDir, outDir core.Vec3, isOnLightSubpath bool) core.Vec3 {
	cosIn := point.Normal.Dot(inDir.Normalize())
	cosOut := point.Normal.Dot(outDir.Normalize())
	if cosIn*cosOut <= 0 {
		return core.Vec3{}
	}
	return g.reflectance(point).Multiply(1.0 / math.Pi)
}

// WrapPrimarySampleToBsdf maps a primary sample to a cosine-weighted
// direction in the hemisphere around the shading normal, flipped to lie on
// the same side as outDir. Forward and reverse densities are both the
// cosine-weighted hemisphere density; they coincide only because the diffuse
// BSDF is symmetric, so asymmetric variants must supply both separately
func (g *Generic) WrapPrimarySampleToBsdf(point *geometry.SurfacePoint, outDir core.Vec3, primarySample core.Vec2, isOnLightSubpath bool) (core.Vec3, BsdfSampleInfo) {
	normal := g.orientedNormal(point, outDir)
	sampled := core.SampleCosineHemisphere(normal, primarySample)
	pdf := core.CosineHemispherePDF(normal, sampled)
	return sampled, BsdfSampleInfo{Forward: pdf, Reverse: pdf}
}

// ComputeEmission returns the emission texture's value at the point, zero if
// no emission texture is attached or outDir points into the surface
func (g *Generic) ComputeEmission(point *geometry.SurfacePoint, outDir core.Vec3) core.Vec3 {
	if g.Emission == nil {
		return core.Vec3{}
	}
	if point.Normal.Dot(outDir) <= 0 {
		return core.Vec3{}
	}
	return g.Emission.Lookup(point.UV)
}

// ComputeJacobians recomputes the cosine-hemisphere densities for an
// externally supplied direction pair
func (g *Generic) ComputeJacobians(point *geometry.SurfacePoint, inDir, outDir core.Vec3, isOnLightSubpath bool) BsdfSampleInfo {
	normal := g.orientedNormal(point, outDir)
	pdf := core.CosineHemispherePDF(normal, inDir)
	return BsdfSampleInfo{Forward: pdf, Reverse: pdf}
}

// IsEmissive reports whether an emission texture is attached
func (g *Generic) IsEmissive() bool {
	return g.Emission != nil
}

// orientedNormal returns the shading normal flipped onto the side that
// outDir points into
func (g *Generic) orientedNormal(point *geometry.SurfacePoint, outDir core.Vec3) core.Vec3 {
	if point.Normal.Dot(outDir) < 0 {
		return point.Normal.Negate()
	}
	return point.Normal
}
