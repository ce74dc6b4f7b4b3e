// Command ground renders the reference scene: a diffuse quad lit by a small
// area light, estimated with next-event sampling and BSDF sampling combined
// by multiple importance sampling.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/groundrt/ground/pkg/api"
	"github.com/groundrt/ground/pkg/config"
	"github.com/groundrt/ground/pkg/core"
	"github.com/groundrt/ground/pkg/logger"
	"github.com/groundrt/ground/pkg/renderer"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (defaults apply if empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("render failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := api.New(log)

	if err := buildReferenceScene(ctx); err != nil {
		return err
	}

	frameBuffer, err := ctx.CreateImage(cfg.Render.Width, cfg.Render.Height, 3)
	if err != nil {
		return err
	}
	buffer, err := ctx.Image(frameBuffer)
	if err != nil {
		return err
	}

	camera := renderer.NewCamera(core.NewVec3(0, 0, -5), 45.0, cfg.Render.Width, cfg.Render.Height)

	start := time.Now()
	err = renderer.New(ctx.Scene(), camera, log).Render(buffer, renderer.Options{
		SamplesPerPixel: cfg.Render.SamplesPerPixel,
		TileSize:        cfg.Render.TileSize,
		Workers:         cfg.Render.Workers,
		Seed:            cfg.Render.Seed,
	})
	if err != nil {
		return err
	}
	log.Info("render completed", zap.Duration("elapsed", time.Since(start)))

	for _, path := range []string{cfg.Output.PNGPath, cfg.Output.PFMPath} {
		if path == "" {
			continue
		}
		if err := ctx.WriteImage(frameBuffer, path); err != nil {
			return err
		}
		log.Info("image written", zap.String("path", path))
	}
	return nil
}

// buildReferenceScene assembles the two-quad scene: an illuminated diffuse
// quad and a small emissive quad between it and the camera
func buildReferenceScene(ctx *api.Context) error {
	quadVertices := []core.Vec3{
		{X: -1, Y: -1, Z: 0},
		{X: 1, Y: -1, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: -1, Y: 1, Z: 0},
	}
	quadIndices := []int{0, 1, 2, 0, 2, 3}

	quadID, err := ctx.AddTriangleMesh(quadVertices, quadIndices, nil, nil)
	if err != nil {
		return err
	}

	lightVertices := []core.Vec3{
		{X: -0.1, Y: -0.1, Z: -1},
		{X: 0.1, Y: -0.1, Z: -1},
		{X: 0.1, Y: 0.1, Z: -1},
		{X: -0.1, Y: 0.1, Z: -1},
	}
	lightIndices := []int{0, 1, 2, 0, 2, 3}

	lightID, err := ctx.AddTriangleMesh(lightVertices, lightIndices, nil, nil)
	if err != nil {
		return err
	}

	// 1x1 textures hold the constant material parameters
	reflectTexture, err := constantImage(ctx, []float64{0.3, 0.3, 0.3})
	if err != nil {
		return err
	}
	emitTexture, err := constantImage(ctx, []float64{10, 10, 10})
	if err != nil {
		return err
	}

	diffuseMaterial, err := ctx.AddGenericMaterial(reflectTexture, api.NoImage)
	if err != nil {
		return err
	}
	lightMaterial, err := ctx.AddGenericMaterial(api.NoImage, emitTexture)
	if err != nil {
		return err
	}

	if err := ctx.AssignMaterial(quadID, diffuseMaterial); err != nil {
		return err
	}
	if err := ctx.AssignMaterial(lightID, lightMaterial); err != nil {
		return err
	}

	return ctx.FinalizeScene()
}

// constantImage creates a 1x1 image holding a single splatted value
func constantImage(ctx *api.Context, value []float64) (int, error) {
	imageID, err := ctx.CreateImage(1, 1, len(value))
	if err != nil {
		return -1, err
	}
	if err := ctx.AddSplat(imageID, 0, 0, value); err != nil {
		return -1, err
	}
	return imageID, nil
}
