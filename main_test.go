package main

import (
	"math"
	"testing"

	"github.com/groundrt/ground/pkg/api"
	"github.com/groundrt/ground/pkg/core"
)

func TestBuildReferenceScene(t *testing.T) {
	ctx := api.New(nil)
	if err := buildReferenceScene(ctx); err != nil {
		t.Fatalf("buildReferenceScene failed: %v", err)
	}

	s := ctx.Scene()
	if s.NumMeshes() != 2 {
		t.Fatalf("Expected 2 meshes, got %d", s.NumMeshes())
	}

	// The light quad is mesh 1, the only emitter
	emitters := s.Emitters()
	if len(emitters) != 1 || emitters[0] != 1 {
		t.Fatalf("Expected emitter registry [1], got %v", emitters)
	}

	// A ray from the camera position through the image center hits the light
	// quad before the diffuse quad behind it
	hit, err := ctx.TraceSingle(core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1)))
	if err != nil {
		t.Fatalf("TraceSingle failed: %v", err)
	}
	if !hit.IsValid() || hit.Point.MeshID != 1 {
		t.Fatalf("Expected the center ray to hit the light quad, got %+v", hit.Point)
	}
	if math.Abs(hit.Distance-4.0) > 1e-9 {
		t.Errorf("Expected the light quad at distance 4, got %v", hit.Distance)
	}
}

func TestBuildReferenceScene_MaterialParameters(t *testing.T) {
	ctx := api.New(nil)
	if err := buildReferenceScene(ctx); err != nil {
		t.Fatalf("buildReferenceScene failed: %v", err)
	}

	// The diffuse quad reflects 0.3/π on its lit side
	hit, err := ctx.TraceSingle(core.NewRay(core.NewVec3(0.5, 0.5, -5), core.NewVec3(0, 0, 1)))
	if err != nil {
		t.Fatalf("TraceSingle failed: %v", err)
	}
	if !hit.IsValid() || hit.Point.MeshID != 0 {
		t.Fatalf("Expected a hit on the diffuse quad, got %+v", hit.Point)
	}

	inDir := core.NewVec3(0, 0, -1)
	outDir := core.NewVec3(0.1, 0, -1).Normalize()
	bsdf, err := ctx.EvaluateBsdf(&hit.Point, inDir, outDir, false)
	if err != nil {
		t.Fatalf("EvaluateBsdf failed: %v", err)
	}
	if math.Abs(bsdf.X-0.3/math.Pi) > 1e-12 {
		t.Errorf("Expected reflectance/π, got %v", bsdf.X)
	}

	// The light quad emits 10 toward the diffuse quad
	sample, err := ctx.WrapPrimarySampleToSurface(1, 0.5, 0.5)
	if err != nil {
		t.Fatalf("WrapPrimarySampleToSurface failed: %v", err)
	}
	emission, err := ctx.ComputeEmission(&sample.Point, core.NewVec3(0, 0, 1))
	if err != nil {
		t.Fatalf("ComputeEmission failed: %v", err)
	}
	if math.Abs(emission.X-10) > 1e-12 {
		t.Errorf("Expected emission 10, got %v", emission.X)
	}
}
