// Package api exposes the public query surface of the renderer core as an
// explicit context object: scene construction, image management, tracing and
// the sampling/evaluation queries. Every call validates its ids, domains and
// lifecycle state; violations are returned as errors that the caller must
// treat as programming mistakes, not runtime conditions
package api

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/groundrt/ground/pkg/core"
	"github.com/groundrt/ground/pkg/film"
	"github.com/groundrt/ground/pkg/geometry"
	"github.com/groundrt/ground/pkg/material"
	"github.com/groundrt/ground/pkg/scene"
)

// NoImage marks an absent texture in AddGenericMaterial
const NoImage = -1

// Context owns one scene, an image table and a material registry. It
// replaces process-wide registries: create one per render job and drop it
// when done
type Context struct {
	scene     *scene.Scene
	images    []*film.Buffer
	materials []material.Material
	log       *zap.Logger
}

// New creates a context with an empty scene in the Building state
func New(log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{scene: scene.New(log), log: log}
}

// Scene returns the context's scene
func (c *Context) Scene() *scene.Scene {
	return c.scene
}

// AddTriangleMesh appends a mesh to the scene and returns its stable id.
// texCoords and shadingNormals are optional (nil); when supplied they must
// hold one entry per vertex
func (c *Context) AddTriangleMesh(vertices []core.Vec3, indices []int, texCoords []core.Vec2, shadingNormals []core.Vec3) (int, error) {
	mesh, err := geometry.NewMesh(vertices, indices, texCoords, shadingNormals)
	if err != nil {
		return geometry.MeshIDNone, fmt.Errorf("api: AddTriangleMesh: %w", err)
	}
	meshID, err := c.scene.AddMesh(mesh)
	if err != nil {
		return geometry.MeshIDNone, fmt.Errorf("api: AddTriangleMesh: %w", err)
	}
	return meshID, nil
}

// FinalizeScene computes the emitter registry and commits the geometry to
// the intersection backend. Must be called exactly once
func (c *Context) FinalizeScene() error {
	if err := c.scene.Finalize(); err != nil {
		return fmt.Errorf("api: FinalizeScene: %w", err)
	}
	return nil
}

// TraceSingle intersects one ray with the finalized scene
func (c *Context) TraceSingle(ray core.Ray) (geometry.Hit, error) {
	if err := c.requireFinalized("TraceSingle"); err != nil {
		return geometry.Miss(), err
	}
	return c.scene.Intersect(ray), nil
}

// TraceMulti intersects a batch of independent rays across the worker pool
func (c *Context) TraceMulti(rays []core.Ray) ([]geometry.Hit, error) {
	if err := c.requireFinalized("TraceMulti"); err != nil {
		return nil, err
	}
	return c.scene.TraceMulti(rays), nil
}

// IsOccluded tests visibility between a hit surface and a target position
func (c *Context) IsOccluded(from *geometry.Hit, target core.Vec3) (bool, error) {
	if err := c.requireFinalized("IsOccluded"); err != nil {
		return false, err
	}
	return c.scene.IsOccluded(from, target), nil
}

// SpawnRay creates a ray leaving the hit surface in the given direction,
// displaced by the hit's error offset
func (c *Context) SpawnRay(from *geometry.Hit, direction core.Vec3) core.Ray {
	return c.scene.SpawnRay(from, direction)
}

// WrapPrimarySampleToSurface maps a unit-square point onto the surface of
// the given mesh and returns the sample with its area jacobian
func (c *Context) WrapPrimarySampleToSurface(meshID int, u, v float64) (geometry.SurfaceSample, error) {
	if err := c.requireFinalized("WrapPrimarySampleToSurface"); err != nil {
		return geometry.SurfaceSample{}, err
	}
	if err := c.checkMeshID("WrapPrimarySampleToSurface", meshID); err != nil {
		return geometry.SurfaceSample{}, err
	}
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return geometry.SurfaceSample{}, fmt.Errorf("api: WrapPrimarySampleToSurface: primary sample (%g, %g) outside [0,1]²", u, v)
	}
	return c.scene.SampleSurface(meshID, u, v), nil
}

// ComputePrimaryToSurfaceJacobian returns the density-conversion factor of
// the primary-sample mapping at the given surface point
func (c *Context) ComputePrimaryToSurfaceJacobian(point *geometry.SurfacePoint) (float64, error) {
	if err := c.checkMeshID("ComputePrimaryToSurfaceJacobian", point.MeshID); err != nil {
		return 0, err
	}
	return c.scene.Mesh(point.MeshID).SurfaceJacobian(), nil
}

// ComputeShadingNormal interpolates the shading normal at a surface point
func (c *Context) ComputeShadingNormal(point *geometry.SurfacePoint) (core.Vec3, error) {
	if err := c.checkMeshID("ComputeShadingNormal", point.MeshID); err != nil {
		return core.Vec3{}, err
	}
	return c.scene.Mesh(point.MeshID).ComputeShadingNormal(point.PrimID, point.Barycentric), nil
}

// CreateImage adds an accumulation buffer to the image table and returns
// its id
func (c *Context) CreateImage(width, height, channels int) (int, error) {
	buffer, err := film.NewBuffer(width, height, channels)
	if err != nil {
		return -1, fmt.Errorf("api: CreateImage: %w", err)
	}
	c.images = append(c.images, buffer)
	return len(c.images) - 1, nil
}

// Image returns the buffer with the given id
func (c *Context) Image(imageID int) (*film.Buffer, error) {
	if imageID < 0 || imageID >= len(c.images) {
		return nil, fmt.Errorf("api: image id %d out of range (%d images)", imageID, len(c.images))
	}
	return c.images[imageID], nil
}

// AddSplat accumulates value into an image at the given coordinate
func (c *Context) AddSplat(imageID int, x, y float64, value []float64) error {
	buffer, err := c.Image(imageID)
	if err != nil {
		return err
	}
	buffer.AddSplat(x, y, value)
	return nil
}

// AddSplatMulti accumulates a batch of splats across the worker pool
func (c *Context) AddSplatMulti(imageID int, xs, ys []float64, values [][]float64) error {
	buffer, err := c.Image(imageID)
	if err != nil {
		return err
	}
	return buffer.AddSplatMulti(xs, ys, values)
}

// WriteImage serializes an image to disk, choosing the encoding from the
// file extension
func (c *Context) WriteImage(imageID int, path string) error {
	buffer, err := c.Image(imageID)
	if err != nil {
		return err
	}
	return buffer.WriteFile(path)
}

// AddGenericMaterial registers a generic material built from optional
// base-color and emission images (NoImage for none) and returns its id
func (c *Context) AddGenericMaterial(baseColorImage, emissionImage int) (int, error) {
	var baseColor, emission *film.Buffer
	var err error

	if baseColorImage != NoImage {
		if baseColor, err = c.Image(baseColorImage); err != nil {
			return -1, fmt.Errorf("api: AddGenericMaterial: base color: %w", err)
		}
	}
	if emissionImage != NoImage {
		if emission, err = c.Image(emissionImage); err != nil {
			return -1, fmt.Errorf("api: AddGenericMaterial: emission: %w", err)
		}
	}

	c.materials = append(c.materials, material.NewGeneric(baseColor, emission))
	return len(c.materials) - 1, nil
}

// AssignMaterial attaches a registered material to a mesh. Valid only while
// the scene is still building, since emitter membership is decided at
// FinalizeScene
func (c *Context) AssignMaterial(meshID, materialID int) error {
	if materialID < 0 || materialID >= len(c.materials) {
		return fmt.Errorf("api: AssignMaterial: material id %d out of range (%d materials)", materialID, len(c.materials))
	}
	if err := c.scene.AssignMaterial(meshID, c.materials[materialID]); err != nil {
		return fmt.Errorf("api: AssignMaterial: %w", err)
	}
	return nil
}

// EvaluateBsdf evaluates the scattering value at a surface point
func (c *Context) EvaluateBsdf(point *geometry.SurfacePoint, inDir, outDir core.Vec3, isOnLightSubpath bool) (core.Vec3, error) {
	mat, err := c.materialAt("EvaluateBsdf", point)
	if err != nil {
		return core.Vec3{}, err
	}
	return mat.EvaluateBsdf(point, inDir, outDir, isOnLightSubpath), nil
}

// WrapPrimarySampleToBsdf maps a unit-square point to a scattered direction
// at a surface point
func (c *Context) WrapPrimarySampleToBsdf(point *geometry.SurfacePoint, outDir core.Vec3, u, v float64, isOnLightSubpath bool) (core.Vec3, material.BsdfSampleInfo, error) {
	mat, err := c.materialAt("WrapPrimarySampleToBsdf", point)
	if err != nil {
		return core.Vec3{}, material.BsdfSampleInfo{}, err
	}
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return core.Vec3{}, material.BsdfSampleInfo{}, fmt.Errorf("api: WrapPrimarySampleToBsdf: primary sample (%g, %g) outside [0,1]²", u, v)
	}
	dir, info := mat.WrapPrimarySampleToBsdf(point, outDir, core.NewVec2(u, v), isOnLightSubpath)
	return dir, info, nil
}

// ComputeEmission returns the radiance emitted from a surface point into
// outDir
func (c *Context) ComputeEmission(point *geometry.SurfacePoint, outDir core.Vec3) (core.Vec3, error) {
	mat, err := c.materialAt("ComputeEmission", point)
	if err != nil {
		return core.Vec3{}, err
	}
	return mat.ComputeEmission(point, outDir), nil
}

// ComputeJacobians recomputes the sampling densities for an externally
// supplied direction pair at a surface point
func (c *Context) ComputeJacobians(point *geometry.SurfacePoint, inDir, outDir core.Vec3, isOnLightSubpath bool) (material.BsdfSampleInfo, error) {
	mat, err := c.materialAt("ComputeJacobians", point)
	if err != nil {
		return material.BsdfSampleInfo{}, err
	}
	return mat.ComputeJacobians(point, inDir, outDir, isOnLightSubpath), nil
}

// materialAt resolves the material assigned to the point's mesh
func (c *Context) materialAt(op string, point *geometry.SurfacePoint) (material.Material, error) {
	if err := c.checkMeshID(op, point.MeshID); err != nil {
		return nil, err
	}
	mat := c.scene.Material(point.MeshID)
	if mat == nil {
		return nil, fmt.Errorf("api: %s: mesh %d has no material assigned", op, point.MeshID)
	}
	return mat, nil
}

func (c *Context) checkMeshID(op string, meshID int) error {
	if meshID < 0 || meshID >= c.scene.NumMeshes() {
		return fmt.Errorf("api: %s: mesh id %d out of range (%d meshes)", op, meshID, c.scene.NumMeshes())
	}
	return nil
}

func (c *Context) requireFinalized(op string) error {
	if c.scene.State() != scene.Finalized {
		return fmt.Errorf("api: %s: scene is not finalized", op)
	}
	return nil
}
