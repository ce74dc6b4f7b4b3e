// Package film provides the splat-only floating-point accumulation buffer
// that render results and textures are stored in.
package film

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/groundrt/ground/pkg/core"
)

// Buffer is a width×height×channels grid of floating-point accumulators.
// It is written only via splats (add-at-coordinate), never via overwrite, so
// that multiple contributions to the same pixel compose correctly. Splat
// adds are atomic per channel, making concurrent splats from multiple
// workers safe even when they target the same coordinate
type Buffer struct {
	width    int
	height   int
	channels int
	data     []uint64 // float64 bit patterns, accessed atomically
}

// NewBuffer creates an accumulation buffer with all values zero
func NewBuffer(width, height, channels int) (*Buffer, error) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return nil, fmt.Errorf("film: invalid buffer dimensions %dx%dx%d", width, height, channels)
	}
	return &Buffer{
		width:    width,
		height:   height,
		channels: channels,
		data:     make([]uint64, width*height*channels),
	}, nil
}

// Width returns the buffer width in pixels
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height in pixels
func (b *Buffer) Height() int { return b.height }

// Channels returns the number of channels per pixel
func (b *Buffer) Channels() int { return b.channels }

// AddSplat accumulates value into the pixel containing the (possibly
// sub-pixel) coordinate (x, y). Coordinates outside the buffer are dropped.
// Value entries beyond the channel count are ignored; missing entries
// contribute nothing
func (b *Buffer) AddSplat(x, y float64, value []float64) {
	px := int(math.Floor(x))
	py := int(math.Floor(y))
	if px < 0 || px >= b.width || py < 0 || py >= b.height {
		return
	}

	base := (py*b.width + px) * b.channels
	n := min(len(value), b.channels)
	for c := 0; c < n; c++ {
		b.atomicAdd(base+c, value[c])
	}
}

// AddSplatMulti fans a batch of independent splats across the worker pool.
// Each splat is an independent atomic accumulation, so no further
// synchronization is needed
func (b *Buffer) AddSplatMulti(xs, ys []float64, values [][]float64) error {
	if len(xs) != len(ys) || len(xs) != len(values) {
		return fmt.Errorf("film: splat batch length mismatch: %d xs, %d ys, %d values", len(xs), len(ys), len(values))
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	const chunkSize = 4096
	for start := 0; start < len(xs); start += chunkSize {
		start := start
		end := min(start+chunkSize, len(xs))
		g.Go(func() error {
			for i := start; i < end; i++ {
				b.AddSplat(xs[i], ys[i], values[i])
			}
			return nil
		})
	}
	return g.Wait()
}

// atomicAdd performs a lock-free floating-point add on one accumulator cell
func (b *Buffer) atomicAdd(idx int, v float64) {
	for {
		oldBits := atomic.LoadUint64(&b.data[idx])
		newBits := math.Float64bits(math.Float64frombits(oldBits) + v)
		if atomic.CompareAndSwapUint64(&b.data[idx], oldBits, newBits) {
			return
		}
	}
}

// At returns the accumulated value of one channel at integer pixel
// coordinates
func (b *Buffer) At(x, y, channel int) float64 {
	idx := (y*b.width+x)*b.channels + channel
	return math.Float64frombits(atomic.LoadUint64(&b.data[idx]))
}

// Value returns all channel values at integer pixel coordinates
func (b *Buffer) Value(x, y int) []float64 {
	out := make([]float64, b.channels)
	for c := range out {
		out[c] = b.At(x, y, c)
	}
	return out
}

// Lookup samples the buffer as a texture at texture coordinates in [0,1]²
// using nearest-texel filtering with clamped addressing. Single-channel
// buffers are replicated to grey; buffers with three or more channels map
// their first three channels to RGB
func (b *Buffer) Lookup(uv core.Vec2) core.Vec3 {
	x := clampTexel(int(uv.X*float64(b.width)), b.width)
	y := clampTexel(int(uv.Y*float64(b.height)), b.height)

	if b.channels < 3 {
		v := b.At(x, y, 0)
		return core.NewVec3(v, v, v)
	}
	return core.NewVec3(b.At(x, y, 0), b.At(x, y, 1), b.At(x, y, 2))
}

func clampTexel(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
