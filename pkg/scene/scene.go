// Package scene owns the mesh table, material assignment and emitter
// registry, and delegates nearest-hit queries to the BVH intersection
// backend once the scene is finalized.
package scene

import (
	"fmt"
	"math"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/groundrt/ground/pkg/core"
	"github.com/groundrt/ground/pkg/geometry"
	"github.com/groundrt/ground/pkg/material"
)

// State is the scene lifecycle state
type State int

const (
	// Building allows meshes and material assignments to be added
	Building State = iota
	// Finalized allows intersection and sampling queries only
	Finalized
)

// Scene owns an ordered collection of meshes with stable integer ids, a
// mesh→material assignment and an emitter registry. It enforces a
// Building→Finalized lifecycle: AddMesh is valid only while Building,
// Intersect and all sampling queries only once Finalized. A finalized scene
// is read-only and safe for concurrent queries
type Scene struct {
	state     State
	meshes    []*geometry.Mesh
	materials []material.Material // parallel to meshes, nil when unassigned
	emitters  []int               // mesh ids with emissive materials, ascending
	bvh       *geometry.BVH
	log       *zap.Logger
}

// New creates an empty scene in the Building state. A nil logger disables
// scene logging
func New(log *zap.Logger) *Scene {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scene{state: Building, log: log}
}

// State returns the current lifecycle state
func (s *Scene) State() State {
	return s.state
}

// AddMesh appends a mesh to the scene's table and returns its stable id.
// Valid only in the Building state
func (s *Scene) AddMesh(mesh *geometry.Mesh) (int, error) {
	if s.state != Building {
		return geometry.MeshIDNone, fmt.Errorf("scene: AddMesh called after Finalize")
	}
	s.meshes = append(s.meshes, mesh)
	s.materials = append(s.materials, nil)
	return len(s.meshes) - 1, nil
}

// AssignMaterial attaches a material to a mesh. Valid only in the Building
// state; emitter-registry membership is decided at Finalize
func (s *Scene) AssignMaterial(meshID int, mat material.Material) error {
	if s.state != Building {
		return fmt.Errorf("scene: AssignMaterial called after Finalize")
	}
	if meshID < 0 || meshID >= len(s.meshes) {
		return fmt.Errorf("scene: mesh id %d out of range (%d meshes)", meshID, len(s.meshes))
	}
	s.materials[meshID] = mat
	return nil
}

// Finalize computes the emitter registry and commits the geometry to the
// intersection backend. It must be called exactly once; no meshes may be
// added afterwards
func (s *Scene) Finalize() error {
	if s.state != Building {
		return fmt.Errorf("scene: Finalize called twice")
	}

	// Scan meshes in id order so the registry is ascending
	for meshID, mat := range s.materials {
		if mat != nil && mat.IsEmissive() {
			s.emitters = append(s.emitters, meshID)
		}
	}

	var primitives []geometry.Primitive
	for meshID, mesh := range s.meshes {
		for primID := 0; primID < mesh.NumTriangles(); primID++ {
			primitives = append(primitives, geometry.Primitive{
				Mesh:   mesh,
				MeshID: meshID,
				PrimID: primID,
			})
		}
	}
	s.bvh = geometry.NewBVH(primitives)
	s.state = Finalized

	s.log.Info("scene finalized",
		zap.Int("meshes", len(s.meshes)),
		zap.Int("triangles", len(primitives)),
		zap.Ints("emitters", s.emitters))
	return nil
}

// NumMeshes returns the number of meshes in the scene's table
func (s *Scene) NumMeshes() int {
	return len(s.meshes)
}

// Mesh returns the mesh with the given id
func (s *Scene) Mesh(meshID int) *geometry.Mesh {
	return s.meshes[meshID]
}

// Material returns the material assigned to a mesh, nil if none
func (s *Scene) Material(meshID int) material.Material {
	return s.materials[meshID]
}

// Emitters returns the mesh ids whose materials are emissive, in ascending
// id order. Valid only once Finalized
func (s *Scene) Emitters() []int {
	return s.emitters
}

// IsEmitter reports whether the mesh id is in the emitter registry
func (s *Scene) IsEmitter(meshID int) bool {
	for _, id := range s.emitters {
		if id == meshID {
			return true
		}
	}
	return false
}

// Intersect returns the nearest hit along the ray, or a hit with
// MeshID == MeshIDNone when the ray escapes the scene. Valid only once
// Finalized
func (s *Scene) Intersect(ray core.Ray) geometry.Hit {
	if s.state != Finalized {
		panic("scene: Intersect called before Finalize")
	}
	return s.bvh.Intersect(ray, ray.ErrorOffset, math.Inf(1))
}

// TraceMulti fans a batch of independent ray queries across the worker pool.
// Each result is written to its own output slot, so no synchronization is
// needed beyond the final join. Valid only once Finalized
func (s *Scene) TraceMulti(rays []core.Ray) []geometry.Hit {
	if s.state != Finalized {
		panic("scene: TraceMulti called before Finalize")
	}

	hits := make([]geometry.Hit, len(rays))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	const chunkSize = 256
	for start := 0; start < len(rays); start += chunkSize {
		start := start
		end := min(start+chunkSize, len(rays))
		g.Go(func() error {
			for i := start; i < end; i++ {
				hits[i] = s.Intersect(rays[i])
			}
			return nil
		})
	}
	// Workers never return errors; Wait only joins them
	_ = g.Wait()

	return hits
}

// SampleSurface maps a primary sample onto the surface of the given mesh and
// stamps the mesh id into the returned point
func (s *Scene) SampleSurface(meshID int, u, v float64) geometry.SurfaceSample {
	sample := s.meshes[meshID].PrimarySampleToSurface(u, v)
	sample.Point.MeshID = meshID
	return sample
}

// SpawnRay creates a ray leaving the hit surface in the given direction,
// displacing the origin along the surface normal to the side the direction
// points into
func (s *Scene) SpawnRay(from *geometry.Hit, direction core.Vec3) core.Ray {
	sign := 1.0
	if direction.Dot(from.Point.Normal) < 0 {
		sign = -1.0
	}
	origin := from.Point.Position.Add(from.Point.Normal.Multiply(sign * from.ErrorOffset))
	return core.NewOffsetRay(origin, direction, from.ErrorOffset)
}

// IsOccluded tests whether anything blocks the segment between the hit
// surface and the target position. The shadow-ray origin is displaced along
// the surface normal toward the side the segment points into, and the ray
// keeps the unnormalized direction target−origin, so the target sits at
// parameter 1: a blocker exists iff an intersection is found at a parameter
// strictly below 1−errorOffset
func (s *Scene) IsOccluded(from *geometry.Hit, target core.Vec3) bool {
	sign := 1.0
	if target.Subtract(from.Point.Position).Dot(from.Point.Normal) < 0 {
		sign = -1.0
	}
	origin := from.Point.Position.Add(from.Point.Normal.Multiply(sign * from.ErrorOffset))
	shadowDir := target.Subtract(origin)

	shadowHit := s.Intersect(core.NewOffsetRay(origin, shadowDir, from.ErrorOffset))
	return shadowHit.IsValid() && shadowHit.Distance < 1.0-from.ErrorOffset
}
