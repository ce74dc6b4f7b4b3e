package api

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundrt/ground/pkg/core"
	"github.com/groundrt/ground/pkg/geometry"
)

func quadVertices(z, halfSize float64) []core.Vec3 {
	return []core.Vec3{
		{X: -halfSize, Y: -halfSize, Z: z},
		{X: halfSize, Y: -halfSize, Z: z},
		{X: halfSize, Y: halfSize, Z: z},
		{X: -halfSize, Y: halfSize, Z: z},
	}
}

var quadIndices = []int{0, 1, 2, 0, 2, 3}

// finalizedContext builds a context with one diffuse quad at z=1 and one
// emissive quad at z=-1, already finalized
func finalizedContext(t *testing.T) (ctx *Context, quadID, lightID int) {
	t.Helper()
	ctx = New(nil)

	var err error
	quadID, err = ctx.AddTriangleMesh(quadVertices(1, 1), quadIndices, nil, nil)
	require.NoError(t, err)
	lightID, err = ctx.AddTriangleMesh(quadVertices(-1, 0.1), quadIndices, nil, nil)
	require.NoError(t, err)

	baseColor, err := ctx.CreateImage(1, 1, 3)
	require.NoError(t, err)
	require.NoError(t, ctx.AddSplat(baseColor, 0, 0, []float64{0.3, 0.3, 0.3}))
	emission, err := ctx.CreateImage(1, 1, 3)
	require.NoError(t, err)
	require.NoError(t, ctx.AddSplat(emission, 0, 0, []float64{10, 10, 10}))

	diffuseID, err := ctx.AddGenericMaterial(baseColor, NoImage)
	require.NoError(t, err)
	lightMatID, err := ctx.AddGenericMaterial(NoImage, emission)
	require.NoError(t, err)

	require.NoError(t, ctx.AssignMaterial(quadID, diffuseID))
	require.NoError(t, ctx.AssignMaterial(lightID, lightMatID))
	require.NoError(t, ctx.FinalizeScene())
	return ctx, quadID, lightID
}

func TestContext_AddTriangleMesh_Validation(t *testing.T) {
	ctx := New(nil)

	_, err := ctx.AddTriangleMesh(quadVertices(0, 1), []int{0, 1}, nil, nil)
	assert.Error(t, err)

	_, err = ctx.AddTriangleMesh(quadVertices(0, 1), []int{0, 1, 9}, nil, nil)
	assert.Error(t, err)

	id, err := ctx.AddTriangleMesh(quadVertices(0, 1), quadIndices, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, id)
}

func TestContext_LifecycleValidation(t *testing.T) {
	ctx := New(nil)
	_, err := ctx.AddTriangleMesh(quadVertices(0, 1), quadIndices, nil, nil)
	require.NoError(t, err)

	// Queries before FinalizeScene are rejected
	_, err = ctx.TraceSingle(core.NewRay(core.NewVec3(0, 0, -1), core.NewVec3(0, 0, 1)))
	assert.Error(t, err)
	_, err = ctx.TraceMulti(nil)
	assert.Error(t, err)
	_, err = ctx.WrapPrimarySampleToSurface(0, 0.5, 0.5)
	assert.Error(t, err)

	require.NoError(t, ctx.FinalizeScene())

	// Mutations after FinalizeScene are rejected
	_, err = ctx.AddTriangleMesh(quadVertices(2, 1), quadIndices, nil, nil)
	assert.Error(t, err)
	assert.Error(t, ctx.FinalizeScene())
}

func TestContext_TraceSingle(t *testing.T) {
	ctx, quadID, _ := finalizedContext(t)

	hit, err := ctx.TraceSingle(core.NewRay(core.NewVec3(0.5, 0.5, 0), core.NewVec3(0, 0, 1)))
	require.NoError(t, err)
	require.True(t, hit.IsValid())
	assert.Equal(t, quadID, hit.Point.MeshID)
	assert.InDelta(t, 1.0, hit.Distance, 1e-9)

	miss, err := ctx.TraceSingle(core.NewRay(core.NewVec3(5, 5, 0), core.NewVec3(0, 0, 1)))
	require.NoError(t, err)
	assert.False(t, miss.IsValid())
}

func TestContext_TraceMulti(t *testing.T) {
	ctx, quadID, _ := finalizedContext(t)

	rays := []core.Ray{
		core.NewRay(core.NewVec3(0.5, 0.5, 0), core.NewVec3(0, 0, 1)),
		core.NewRay(core.NewVec3(5, 5, 0), core.NewVec3(0, 0, 1)),
	}
	hits, err := ctx.TraceMulti(rays)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, quadID, hits[0].Point.MeshID)
	assert.False(t, hits[1].IsValid())
}

func TestContext_WrapPrimarySampleToSurface(t *testing.T) {
	ctx, quadID, _ := finalizedContext(t)

	sample, err := ctx.WrapPrimarySampleToSurface(quadID, 0.25, 0.75)
	require.NoError(t, err)
	assert.Equal(t, quadID, sample.Point.MeshID)
	assert.Greater(t, sample.Jacobian, 0.0)

	jacobian, err := ctx.ComputePrimaryToSurfaceJacobian(&sample.Point)
	require.NoError(t, err)
	assert.Equal(t, sample.Jacobian, jacobian)

	// Domain violations are errors at the boundary, not panics
	_, err = ctx.WrapPrimarySampleToSurface(quadID, 1.5, 0.5)
	assert.Error(t, err)
	_, err = ctx.WrapPrimarySampleToSurface(quadID, 0.5, -0.1)
	assert.Error(t, err)
	_, err = ctx.WrapPrimarySampleToSurface(99, 0.5, 0.5)
	assert.Error(t, err)
}

func TestContext_OcclusionAndSpawnRay(t *testing.T) {
	ctx, _, _ := finalizedContext(t)

	hit, err := ctx.TraceSingle(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1)))
	require.NoError(t, err)
	require.True(t, hit.IsValid())

	// The light quad sits between the diffuse quad's center and z=-3
	occluded, err := ctx.IsOccluded(&hit, core.NewVec3(0, 0, -3))
	require.NoError(t, err)
	assert.True(t, occluded)

	// A target the light quad does not cover is visible
	hitSide, err := ctx.TraceSingle(core.NewRay(core.NewVec3(0.8, 0.8, -3), core.NewVec3(0, 0, 1)))
	require.NoError(t, err)
	require.True(t, hitSide.IsValid())
	visible, err := ctx.IsOccluded(&hitSide, core.NewVec3(0.8, 0.8, -3))
	require.NoError(t, err)
	assert.False(t, visible)

	spawned := ctx.SpawnRay(&hit, core.NewVec3(0, 0, -1))
	assert.Equal(t, hit.ErrorOffset, spawned.ErrorOffset)
	assert.Less(t, spawned.Origin.Z, hit.Point.Position.Z)
}

func TestContext_ComputeShadingNormal(t *testing.T) {
	ctx, quadID, _ := finalizedContext(t)

	point := geometry.SurfacePoint{MeshID: quadID, PrimID: 0, Barycentric: core.NewVec2(0.3, 0.3)}
	normal, err := ctx.ComputeShadingNormal(&point)
	require.NoError(t, err)
	assert.Equal(t, core.NewVec3(0, 0, 1), normal)

	point.MeshID = 42
	_, err = ctx.ComputeShadingNormal(&point)
	assert.Error(t, err)
}

func TestContext_ImageTable(t *testing.T) {
	ctx := New(nil)

	imageID, err := ctx.CreateImage(4, 4, 3)
	require.NoError(t, err)
	require.NoError(t, ctx.AddSplat(imageID, 1, 1, []float64{1, 2, 3}))
	require.NoError(t, ctx.AddSplat(imageID, 1, 1, []float64{1, 0, 0}))

	buffer, err := ctx.Image(imageID)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 3}, buffer.Value(1, 1))

	// Invalid dimensions and ids are errors
	_, err = ctx.CreateImage(0, 4, 3)
	assert.Error(t, err)
	_, err = ctx.Image(5)
	assert.Error(t, err)
	assert.Error(t, ctx.AddSplat(5, 0, 0, []float64{1}))
}

func TestContext_AddSplatMulti(t *testing.T) {
	ctx := New(nil)
	imageID, err := ctx.CreateImage(2, 2, 1)
	require.NoError(t, err)

	require.NoError(t, ctx.AddSplatMulti(imageID,
		[]float64{0, 1}, []float64{0, 1}, [][]float64{{1}, {2}}))

	buffer, err := ctx.Image(imageID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, buffer.At(0, 0, 0))
	assert.Equal(t, 2.0, buffer.At(1, 1, 0))

	assert.Error(t, ctx.AddSplatMulti(99, nil, nil, nil))
}

func TestContext_WriteImage(t *testing.T) {
	ctx := New(nil)
	imageID, err := ctx.CreateImage(2, 2, 3)
	require.NoError(t, err)

	dir := t.TempDir()
	assert.NoError(t, ctx.WriteImage(imageID, filepath.Join(dir, "out.png")))
	assert.NoError(t, ctx.WriteImage(imageID, filepath.Join(dir, "out.pfm")))
	assert.Error(t, ctx.WriteImage(imageID, filepath.Join(dir, "out.bmp")))
	assert.Error(t, ctx.WriteImage(99, filepath.Join(dir, "out.png")))
}

func TestContext_AddGenericMaterial_Validation(t *testing.T) {
	ctx := New(nil)

	// Both textures absent is a valid black material
	matID, err := ctx.AddGenericMaterial(NoImage, NoImage)
	require.NoError(t, err)
	assert.Equal(t, 0, matID)

	_, err = ctx.AddGenericMaterial(7, NoImage)
	assert.Error(t, err)
	_, err = ctx.AddGenericMaterial(NoImage, 7)
	assert.Error(t, err)
}

func TestContext_AssignMaterial_Validation(t *testing.T) {
	ctx := New(nil)
	meshID, err := ctx.AddTriangleMesh(quadVertices(0, 1), quadIndices, nil, nil)
	require.NoError(t, err)

	assert.Error(t, ctx.AssignMaterial(meshID, 0))

	matID, err := ctx.AddGenericMaterial(NoImage, NoImage)
	require.NoError(t, err)
	assert.Error(t, ctx.AssignMaterial(5, matID))
	assert.NoError(t, ctx.AssignMaterial(meshID, matID))
}

func TestContext_MaterialQueries(t *testing.T) {
	ctx, quadID, lightID := finalizedContext(t)

	hit, err := ctx.TraceSingle(core.NewRay(core.NewVec3(0.5, 0.5, 0), core.NewVec3(0, 0, 1)))
	require.NoError(t, err)
	require.True(t, hit.IsValid())
	require.Equal(t, quadID, hit.Point.MeshID)

	inDir := core.NewVec3(0, 0, -1)
	outDir := core.NewVec3(0.2, 0, -1).Normalize()

	bsdf, err := ctx.EvaluateBsdf(&hit.Point, inDir, outDir, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.3/math.Pi, bsdf.X, 1e-12)

	dir, info, err := ctx.WrapPrimarySampleToBsdf(&hit.Point, outDir, 0.4, 0.6, false)
	require.NoError(t, err)
	assert.Greater(t, info.Forward, 0.0)

	jacobians, err := ctx.ComputeJacobians(&hit.Point, dir, outDir, false)
	require.NoError(t, err)
	assert.InDelta(t, info.Forward, jacobians.Forward, 1e-12)

	// Primary-sample domain violation
	_, _, err = ctx.WrapPrimarySampleToBsdf(&hit.Point, outDir, 2, 0.5, false)
	assert.Error(t, err)

	// Emission of the light mesh toward its facing side
	lightSample, err := ctx.WrapPrimarySampleToSurface(lightID, 0.5, 0.5)
	require.NoError(t, err)
	emission, err := ctx.ComputeEmission(&lightSample.Point, core.NewVec3(0, 0, 1))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, emission.X, 1e-12)

	// Queries against an unknown mesh are errors
	bare := geometry.SurfacePoint{MeshID: 99}
	_, err = ctx.EvaluateBsdf(&bare, inDir, outDir, false)
	assert.Error(t, err)
}
