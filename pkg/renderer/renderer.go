// Package renderer drives per-pixel estimation across a bounded worker pool
// and splats the results into an accumulation buffer.
package renderer

import (
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/groundrt/ground/pkg/core"
	"github.com/groundrt/ground/pkg/film"
	"github.com/groundrt/ground/pkg/integrator"
	"github.com/groundrt/ground/pkg/scene"
)

// Options configures a render pass
type Options struct {
	SamplesPerPixel int
	TileSize        int
	Workers         int // <= 0 means one worker per CPU
	Seed            int64
}

// tile is one rectangular partition of the film
type tile struct {
	x0, y0, x1, y1 int
	index          int
}

// Renderer estimates the radiance of every pixel and accumulates the result
// into a film buffer. Tiles are disjoint pixel partitions processed by a
// bounded worker pool; sub-pixel jitter stays within the pixel, so tile
// writes never overlap and the buffer's atomic splats carry any remaining
// shared-coordinate accumulation
type Renderer struct {
	scene  *scene.Scene
	camera *Camera
	log    *zap.Logger
}

// New creates a renderer for a finalized scene. A nil logger disables
// render logging
func New(s *scene.Scene, camera *Camera, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{scene: s, camera: camera, log: log}
}

// Render runs one full pass over the film, splatting every sample into the
// buffer scaled by 1/samplesPerPixel so the accumulated pixel value is the
// Monte Carlo mean. The frame runs to completion; there is no cancellation
func (r *Renderer) Render(buffer *film.Buffer, opts Options) error {
	if buffer.Width() != r.camera.Width() || buffer.Height() != r.camera.Height() {
		return fmt.Errorf("renderer: buffer %dx%d does not match camera film %dx%d",
			buffer.Width(), buffer.Height(), r.camera.Width(), r.camera.Height())
	}
	if opts.SamplesPerPixel <= 0 {
		opts.SamplesPerPixel = 1
	}
	if opts.TileSize <= 0 {
		opts.TileSize = 32
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tiles := makeTiles(r.camera.Width(), r.camera.Height(), opts.TileSize)
	estimator := integrator.NewDirect(r.scene)

	r.log.Info("render pass started",
		zap.Int("width", r.camera.Width()),
		zap.Int("height", r.camera.Height()),
		zap.Int("samplesPerPixel", opts.SamplesPerPixel),
		zap.Int("tiles", len(tiles)),
		zap.Int("workers", workers))

	start := time.Now()

	var g errgroup.Group
	g.SetLimit(workers)
	for _, t := range tiles {
		t := t
		g.Go(func() error {
			// Deterministic per-tile stream keeps renders reproducible for a
			// fixed seed regardless of worker scheduling
			sampler := core.NewRandomSampler(rand.New(rand.NewSource(opts.Seed + int64(t.index))))
			r.renderTile(t, buffer, estimator, sampler, opts.SamplesPerPixel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.log.Info("render pass finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// renderTile estimates every pixel in the tile's bounds
func (r *Renderer) renderTile(t tile, buffer *film.Buffer, estimator *integrator.Direct, sampler core.Sampler, samplesPerPixel int) {
	sampleScale := 1.0 / float64(samplesPerPixel)

	for y := t.y0; y < t.y1; y++ {
		for x := t.x0; x < t.x1; x++ {
			for s := 0; s < samplesPerPixel; s++ {
				jitter := sampler.Get2D()
				filmX := float64(x) + jitter.X
				filmY := float64(y) + jitter.Y

				ray := r.camera.GenerateRay(filmX, filmY)
				radiance := estimator.EstimateRadiance(ray, sampler)

				buffer.AddSplat(filmX, filmY, []float64{
					radiance.X * sampleScale,
					radiance.Y * sampleScale,
					radiance.Z * sampleScale,
				})
			}
		}
	}
}

// makeTiles partitions the film into disjoint tiles
func makeTiles(width, height, tileSize int) []tile {
	var tiles []tile
	index := 0
	for y0 := 0; y0 < height; y0 += tileSize {
		for x0 := 0; x0 < width; x0 += tileSize {
			tiles = append(tiles, tile{
				x0:    x0,
				y0:    y0,
				x1:    min(x0+tileSize, width),
				y1:    min(y0+tileSize, height),
				index: index,
			})
			index++
		}
	}
	return tiles
}
