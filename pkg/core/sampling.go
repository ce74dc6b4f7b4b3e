package core

import (
	"math"
	"math/rand"
)

// Sampler provides primary samples for rendering algorithms.
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// SampleCosineHemisphere maps a primary sample from the unit square to a
// cosine-weighted direction in the hemisphere around normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	// Generate point in unit disk using uniform random sampling
	a := 2.0 * math.Pi * sample.X
	z := sample.Y
	r := math.Sqrt(z)

	x := r * math.Cos(a)
	y := r * math.Sin(a)
	zCoord := math.Sqrt(1.0 - z)

	// Create local coordinate system around normal
	// Find a vector perpendicular to normal
	var nt Vec3
	if math.Abs(normal.X) > 0.1 {
		nt = NewVec3(0, 1, 0)
	} else {
		nt = NewVec3(1, 0, 0)
	}

	// Create orthonormal basis
	tangent := nt.Cross(normal).Normalize()
	bitangent := normal.Cross(tangent)

	// Transform to world space
	return tangent.Multiply(x).Add(bitangent.Multiply(y)).Add(normal.Multiply(zCoord))
}

// CosineHemispherePDF returns the solid-angle density of a cosine-weighted
// hemisphere sample: cos(θ)/π, clamped to zero below the horizon
func CosineHemispherePDF(normal, direction Vec3) float64 {
	cosTheta := direction.Normalize().Dot(normal)
	if cosTheta <= 0 {
		return 0
	}
	return cosTheta / math.Pi
}

// SampleUniformTriangle maps a primary sample from the unit square to uniform
// barycentric coordinates (b1, b2) with b0 = 1 - b1 - b2
func SampleUniformTriangle(sample Vec2) Vec2 {
	sqrtX := math.Sqrt(sample.X)
	return NewVec2(1.0-sqrtX, sample.Y*sqrtX)
}

// BalanceHeuristic computes the MIS weight for a technique with density pdfA
// against a competing technique with density pdfB: pdfA / (pdfA + pdfB).
// Both densities must be expressed in the same measure
func BalanceHeuristic(pdfA, pdfB float64) float64 {
	if pdfA <= 0 {
		return 0
	}
	return pdfA / (pdfA + pdfB)
}

// PowerHeuristic computes the MIS weight using the power heuristic with β=2:
// (nf·fPdf)² / ((nf·fPdf)² + (ng·gPdf)²)
func PowerHeuristic(nf int, fPdf float64, ng int, gPdf float64) float64 {
	f := float64(nf) * fPdf
	g := float64(ng) * gPdf
	if f <= 0 {
		return 0
	}
	return (f * f) / (f*f + g*g)
}
