package geometry

import (
	"sort"

	"github.com/groundrt/ground/pkg/core"
)

// Primitive references a single triangle of a mesh in the scene's mesh table
type Primitive struct {
	Mesh   *Mesh
	MeshID int
	PrimID int
}

// boundingBox returns the AABB of the referenced triangle
func (p Primitive) boundingBox() AABB {
	v0, v1, v2 := p.Mesh.TriangleVertices(p.PrimID)
	return NewAABBFromPoints(v0, v1, v2)
}

// intersect tests the ray against the referenced triangle using the
// Möller-Trumbore algorithm. On a hit it returns the ray parameter (in units
// of the direction's length) and the barycentric coordinates (b1, b2)
func (p Primitive) intersect(ray core.Ray, tMin, tMax float64) (float64, core.Vec2, bool) {
	const epsilon = 1e-12

	v0, v1, v2 := p.Mesh.TriangleVertices(p.PrimID)
	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// Determinant near zero: ray lies in the triangle's plane
	if a > -epsilon && a < epsilon {
		return 0, core.Vec2{}, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(v0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, core.Vec2{}, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, core.Vec2{}, false
	}

	t := f * edge2.Dot(q)
	if t < tMin || t > tMax {
		return 0, core.Vec2{}, false
	}

	return t, core.NewVec2(u, v), true
}

// Leaf threshold: nodes with this many or fewer primitives stay leaves
const leafThreshold = 8

// bvhNode is a node in the bounding volume hierarchy
type bvhNode struct {
	boundingBox AABB
	left        *bvhNode
	right       *bvhNode
	primitives  []Primitive // non-nil only for leaf nodes
}

// BVH is the intersection backend committed by Scene.Finalize: a bounding
// volume hierarchy over all triangles of all meshes. Queries are safe for
// concurrent use once built
type BVH struct {
	root *bvhNode
}

// NewBVH builds a BVH over the given primitives
func NewBVH(primitives []Primitive) *BVH {
	if len(primitives) == 0 {
		return &BVH{}
	}

	// Copy so that sorting during the build does not disturb the caller
	prims := make([]Primitive, len(primitives))
	copy(prims, primitives)

	return &BVH{root: buildBVH(prims)}
}

// buildBVH recursively splits primitives at the median of the longest axis
func buildBVH(prims []Primitive) *bvhNode {
	boundingBox := prims[0].boundingBox()
	for _, p := range prims[1:] {
		boundingBox = boundingBox.Union(p.boundingBox())
	}

	if len(prims) <= leafThreshold {
		return &bvhNode{boundingBox: boundingBox, primitives: prims}
	}

	axis := boundingBox.LongestAxis()
	sort.Slice(prims, func(i, j int) bool {
		ci := prims[i].boundingBox().Center()
		cj := prims[j].boundingBox().Center()
		switch axis {
		case 0:
			return ci.X < cj.X
		case 1:
			return ci.Y < cj.Y
		default:
			return ci.Z < cj.Z
		}
	})

	mid := len(prims) / 2
	return &bvhNode{
		boundingBox: boundingBox,
		left:        buildBVH(prims[:mid]),
		right:       buildBVH(prims[mid:]),
	}
}

// Intersect returns the nearest hit along the ray within [tMin, tMax], or a
// miss. The hit carries the fully resolved surface point of the triangle
func (bvh *BVH) Intersect(ray core.Ray, tMin, tMax float64) Hit {
	if bvh.root == nil {
		return Miss()
	}

	best, ok := bvh.intersectNode(bvh.root, ray, tMin, tMax)
	if !ok {
		return Miss()
	}

	point := best.prim.Mesh.MakeSurfacePoint(best.prim.PrimID, best.barycentric)
	point.MeshID = best.prim.MeshID
	return Hit{
		Point:       point,
		Distance:    best.t,
		ErrorOffset: best.prim.Mesh.ErrorOffset(),
	}
}

// nodeHit is the raw intersection result before surface-point resolution
type nodeHit struct {
	prim        Primitive
	t           float64
	barycentric core.Vec2
}

// intersectNode recursively finds the nearest primitive intersection
func (bvh *BVH) intersectNode(node *bvhNode, ray core.Ray, tMin, tMax float64) (nodeHit, bool) {
	if !node.boundingBox.Hit(ray, tMin, tMax) {
		return nodeHit{}, false
	}

	if node.primitives != nil {
		var best nodeHit
		found := false
		closest := tMax
		for _, prim := range node.primitives {
			if t, barycentric, ok := prim.intersect(ray, tMin, closest); ok {
				found = true
				closest = t
				best = nodeHit{prim: prim, t: t, barycentric: barycentric}
			}
		}
		return best, found
	}

	var best nodeHit
	found := false
	closest := tMax

	if node.left != nil {
		if hit, ok := bvh.intersectNode(node.left, ray, tMin, closest); ok {
			found = true
			closest = hit.t
			best = hit
		}
	}
	if node.right != nil {
		if hit, ok := bvh.intersectNode(node.right, ray, tMin, closest); ok {
			found = true
			closest = hit.t
			best = hit
		}
	}

	return best, found
}
