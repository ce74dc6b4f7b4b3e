package geometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/groundrt/ground/pkg/core"
)

// DefaultErrorOffset is the distance rays spawned from a mesh surface are
// displaced along the normal to avoid self-intersection
const DefaultErrorOffset = 1e-4

// Mesh owns per-mesh vertex and index data plus optional per-vertex texture
// coordinates and shading normals. It exposes primary-sample-space surface
// sampling and barycentric attribute interpolation
type Mesh struct {
	vertices       []core.Vec3
	indices        []int
	texCoords      []core.Vec2 // optional, one per vertex
	shadingNormals []core.Vec3 // optional, one per vertex

	faceNormals []core.Vec3 // precomputed geometric normal per triangle
	areaCDF     []float64   // cumulative triangle areas for area-proportional sampling
	totalArea   float64
	errorOffset float64
}

// NewMesh creates a triangle mesh from vertices and face indices. Texture
// coordinates and shading normals are optional; when supplied they must hold
// one entry per vertex. The index count must be a multiple of three and all
// indices must be in range
func NewMesh(vertices []core.Vec3, indices []int, texCoords []core.Vec2, shadingNormals []core.Vec3) (*Mesh, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("geometry: index count %d is not a multiple of 3", len(indices))
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(vertices) {
			return nil, fmt.Errorf("geometry: face index %d out of bounds (%d vertices)", idx, len(vertices))
		}
	}
	if texCoords != nil && len(texCoords) != len(vertices) {
		return nil, fmt.Errorf("geometry: got %d texture coordinates for %d vertices", len(texCoords), len(vertices))
	}
	if shadingNormals != nil && len(shadingNormals) != len(vertices) {
		return nil, fmt.Errorf("geometry: got %d shading normals for %d vertices", len(shadingNormals), len(vertices))
	}

	m := &Mesh{
		vertices:       vertices,
		indices:        indices,
		texCoords:      texCoords,
		shadingNormals: shadingNormals,
		errorOffset:    DefaultErrorOffset,
	}
	m.precompute()
	return m, nil
}

// precompute caches face normals and the cumulative area table
func (m *Mesh) precompute() {
	numTriangles := m.NumTriangles()
	m.faceNormals = make([]core.Vec3, numTriangles)
	m.areaCDF = make([]float64, numTriangles)

	for i := 0; i < numTriangles; i++ {
		v0, v1, v2 := m.TriangleVertices(i)
		cross := v1.Subtract(v0).Cross(v2.Subtract(v0))
		m.faceNormals[i] = cross.Normalize()

		m.totalArea += 0.5 * cross.Length()
		m.areaCDF[i] = m.totalArea
	}
}

// NumVertices returns the number of vertices in the mesh
func (m *Mesh) NumVertices() int {
	return len(m.vertices)
}

// NumIndices returns the number of face indices in the mesh
func (m *Mesh) NumIndices() int {
	return len(m.indices)
}

// NumTriangles returns the number of triangles in the mesh
func (m *Mesh) NumTriangles() int {
	return len(m.indices) / 3
}

// Area returns the total surface area of the mesh
func (m *Mesh) Area() float64 {
	return m.totalArea
}

// ErrorOffset returns the self-intersection offset for rays spawned from
// this mesh
func (m *Mesh) ErrorOffset() float64 {
	return m.errorOffset
}

// TriangleVertices returns the three vertices of the given triangle
func (m *Mesh) TriangleVertices(primID int) (core.Vec3, core.Vec3, core.Vec3) {
	return m.vertices[m.indices[primID*3]],
		m.vertices[m.indices[primID*3+1]],
		m.vertices[m.indices[primID*3+2]]
}

// FaceNormal returns the geometric normal of the given triangle
func (m *Mesh) FaceNormal(primID int) core.Vec3 {
	return m.faceNormals[primID]
}

// Position interpolates the world position at barycentric coordinates
// (b1, b2) within the given triangle
func (m *Mesh) Position(primID int, barycentric core.Vec2) core.Vec3 {
	v0, v1, v2 := m.TriangleVertices(primID)
	b0 := 1.0 - barycentric.X - barycentric.Y
	return v0.Multiply(b0).
		Add(v1.Multiply(barycentric.X)).
		Add(v2.Multiply(barycentric.Y))
}

// ComputeShadingNormal interpolates the per-vertex shading normals at the
// given triangle and barycentric coordinates. Meshes without shading normals
// fall back to the geometric face normal; this never fails
func (m *Mesh) ComputeShadingNormal(primID int, barycentric core.Vec2) core.Vec3 {
	if m.shadingNormals == nil {
		return m.faceNormals[primID]
	}
	n0 := m.shadingNormals[m.indices[primID*3]]
	n1 := m.shadingNormals[m.indices[primID*3+1]]
	n2 := m.shadingNormals[m.indices[primID*3+2]]
	b0 := 1.0 - barycentric.X - barycentric.Y
	return n0.Multiply(b0).
		Add(n1.Multiply(barycentric.X)).
		Add(n2.Multiply(barycentric.Y)).
		Normalize()
}

// ComputeTextureCoordinates interpolates the per-vertex texture coordinates
// at the given triangle and barycentric coordinates. Meshes without texture
// coordinates fall back to (0, 0); this never fails
func (m *Mesh) ComputeTextureCoordinates(primID int, barycentric core.Vec2) core.Vec2 {
	if m.texCoords == nil {
		return core.Vec2{}
	}
	t0 := m.texCoords[m.indices[primID*3]]
	t1 := m.texCoords[m.indices[primID*3+1]]
	t2 := m.texCoords[m.indices[primID*3+2]]
	b0 := 1.0 - barycentric.X - barycentric.Y
	return t0.Multiply(b0).
		Add(t1.Multiply(barycentric.X)).
		Add(t2.Multiply(barycentric.Y))
}

// MakeSurfacePoint resolves the full surface point at the given triangle and
// barycentric coordinates. The MeshID is left for the caller to fill in,
// since a mesh does not know its id in the scene's table
func (m *Mesh) MakeSurfacePoint(primID int, barycentric core.Vec2) SurfacePoint {
	return SurfacePoint{
		MeshID:      MeshIDNone,
		PrimID:      primID,
		Barycentric: barycentric,
		Position:    m.Position(primID, barycentric),
		Normal:      m.ComputeShadingNormal(primID, barycentric),
		UV:          m.ComputeTextureCoordinates(primID, barycentric),
	}
}

// PrimarySampleToSurface deterministically maps a point (u, v) on the unit
// square onto the mesh surface: the triangle is selected proportionally to
// its area and the remainder of u is folded with v into uniform barycentric
// coordinates. The returned jacobian is the reciprocal of the area density
// of the point, which for this mapping is the total surface area.
// Preconditions: u, v ∈ [0,1] and the mesh has positive total area
func (m *Mesh) PrimarySampleToSurface(u, v float64) SurfaceSample {
	if u < 0 || u > 1 || v < 0 || v > 1 {
		panic(fmt.Sprintf("geometry: primary sample (%g, %g) outside [0,1]²", u, v))
	}
	if m.totalArea <= 0 {
		panic("geometry: cannot sample a degenerate mesh with zero area")
	}

	// Area-proportional triangle selection on the cumulative area table
	target := u * m.totalArea
	primID := sort.SearchFloat64s(m.areaCDF, target)
	if primID >= len(m.areaCDF) {
		primID = len(m.areaCDF) - 1
	}

	// Reuse u within the selected triangle's CDF span so that (u, v) stays
	// uniformly distributed on the unit square
	cdfLow := 0.0
	if primID > 0 {
		cdfLow = m.areaCDF[primID-1]
	}
	span := m.areaCDF[primID] - cdfLow
	remapped := 0.5
	if span > 0 {
		remapped = math.Min((target-cdfLow)/span, 1.0)
	}

	barycentric := core.SampleUniformTriangle(core.NewVec2(remapped, v))

	return SurfaceSample{
		Point:    m.MakeSurfacePoint(primID, barycentric),
		Jacobian: m.totalArea,
	}
}

// SurfaceJacobian returns the density-conversion factor of the primary-sample
// mapping for any point on this mesh (the total surface area). Used when a
// different technique produced the point and its sampling density is needed
// for MIS weighting
func (m *Mesh) SurfaceJacobian() float64 {
	return m.totalArea
}
