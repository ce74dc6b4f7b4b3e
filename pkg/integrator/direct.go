// Package integrator implements the per-pixel Monte Carlo estimators that
// combine next-event estimation with BSDF importance sampling.
package integrator

import (
	"github.com/groundrt/ground/pkg/core"
	"github.com/groundrt/ground/pkg/geometry"
	"github.com/groundrt/ground/pkg/scene"
)

// Direct estimates direct illumination (single scattering) by combining two
// sampling techniques with multiple importance sampling:
//   - NEE: sample a point on an emitter surface and connect with a shadow ray
//   - BSDF: sample a continuation direction from the material and check
//     whether it lands on a registered emitter
//
// Both technique densities are compared in area measure at the light point,
// weighted with the balance heuristic
type Direct struct {
	scene *scene.Scene
}

// NewDirect creates a direct-lighting estimator for the given finalized scene
func NewDirect(s *scene.Scene) *Direct {
	return &Direct{scene: s}
}

// EstimateRadiance computes the radiance arriving along a camera ray. A ray
// that escapes the scene contributes zero
func (d *Direct) EstimateRadiance(ray core.Ray, sampler core.Sampler) core.Vec3 {
	hit := d.scene.Intersect(ray)
	if !hit.IsValid() {
		return core.Vec3{}
	}

	mat := d.scene.Material(hit.Point.MeshID)
	if mat == nil {
		return core.Vec3{}
	}

	outDir := ray.Direction.Negate().Normalize()

	// Zero-bounce: a camera ray striking an emitter directly uses that single
	// technique with weight 1
	radiance := mat.ComputeEmission(&hit.Point, outDir)

	emitters := d.scene.Emitters()
	if len(emitters) == 0 {
		return radiance
	}
	selectionPmf := 1.0 / float64(len(emitters))

	radiance = radiance.Add(d.sampleNextEvent(&hit, outDir, emitters, selectionPmf, sampler))
	radiance = radiance.Add(d.sampleBsdf(&hit, outDir, selectionPmf, sampler))

	return radiance
}

// sampleNextEvent runs the NEE technique: pick an emitter, sample a point on
// its surface, test occlusion and weight the contribution against the BSDF
// technique's density for the same direction
func (d *Direct) sampleNextEvent(hit *geometry.Hit, outDir core.Vec3, emitters []int, selectionPmf float64, sampler core.Sampler) core.Vec3 {
	mat := d.scene.Material(hit.Point.MeshID)

	// Uniform emitter selection, folded into the light density below
	pick := int(sampler.Get1D() * float64(len(emitters)))
	if pick >= len(emitters) {
		pick = len(emitters) - 1
	}
	lightID := emitters[pick]
	lightMat := d.scene.Material(lightID)

	primary := sampler.Get2D()
	lightSample := d.scene.SampleSurface(lightID, primary.X, primary.Y)

	// Area density of this technique at the sampled light point
	lightPdfArea := selectionPmf / lightSample.Jacobian

	if d.scene.IsOccluded(hit, lightSample.Point.Position) {
		return core.Vec3{}
	}

	terms := geometry.ComputeGeometryTerms(&hit.Point, &lightSample.Point)
	if terms.GeomTerm <= 0 {
		return core.Vec3{}
	}

	// Direction from the shaded point toward the light, and the emission
	// leaving the light toward the shaded point
	inDir := lightSample.Point.Position.Subtract(hit.Point.Position).Normalize()
	emission := lightMat.ComputeEmission(&lightSample.Point, inDir.Negate())
	if emission.IsZero() {
		return core.Vec3{}
	}

	bsdf := mat.EvaluateBsdf(&hit.Point, inDir, outDir, false)

	// The BSDF technique's solid-angle density for the same direction,
	// converted to area measure at the light point
	jacobians := mat.ComputeJacobians(&hit.Point, inDir, outDir, false)
	bsdfPdfArea := jacobians.Forward * terms.CosTo / terms.SquaredDistance

	weight := core.BalanceHeuristic(lightPdfArea, bsdfPdfArea)

	return emission.MultiplyVec(bsdf).Multiply(weight * terms.GeomTerm / lightPdfArea)
}

// sampleBsdf runs the BSDF-sampling technique: scatter a direction from the
// material, trace it, and count the contribution only when it lands on a
// registered emitter, weighted against the NEE density for that point
func (d *Direct) sampleBsdf(hit *geometry.Hit, outDir core.Vec3, selectionPmf float64, sampler core.Sampler) core.Vec3 {
	mat := d.scene.Material(hit.Point.MeshID)

	inDir, info := mat.WrapPrimarySampleToBsdf(&hit.Point, outDir, sampler.Get2D(), false)
	if info.Forward <= 0 {
		return core.Vec3{}
	}

	bsdfRay := d.scene.SpawnRay(hit, inDir)
	lightHit := d.scene.Intersect(bsdfRay)
	if !lightHit.IsValid() || !d.scene.IsEmitter(lightHit.Point.MeshID) {
		return core.Vec3{}
	}

	lightMat := d.scene.Material(lightHit.Point.MeshID)
	emission := lightMat.ComputeEmission(&lightHit.Point, inDir.Negate())
	if emission.IsZero() {
		return core.Vec3{}
	}

	terms := geometry.ComputeGeometryTerms(&hit.Point, &lightHit.Point)
	if terms.SquaredDistance <= 0 {
		return core.Vec3{}
	}

	bsdf := mat.EvaluateBsdf(&hit.Point, inDir, outDir, false)

	// Both technique densities in area measure at the point the ray landed on
	bsdfPdfArea := info.Forward * terms.CosTo / terms.SquaredDistance
	lightPdfArea := selectionPmf / d.scene.Mesh(lightHit.Point.MeshID).SurfaceJacobian()

	weight := core.BalanceHeuristic(bsdfPdfArea, lightPdfArea)

	return emission.MultiplyVec(bsdf).Multiply(weight * terms.CosFrom / info.Forward)
}
