package renderer

import (
	"math"

	"github.com/groundrt/ground/pkg/core"
)

// Camera generates primary rays for film samples. It is a simple
// perspective camera at a fixed position looking down +z with +y up
type Camera struct {
	position      core.Vec3
	width, height int
	halfWidth     float64 // viewport half extents at focal length 1
	halfHeight    float64
}

// NewCamera creates a perspective camera from a position, a vertical field
// of view in degrees and the film resolution
func NewCamera(position core.Vec3, verticalFovDegrees float64, width, height int) *Camera {
	halfHeight := math.Tan(verticalFovDegrees * math.Pi / 360.0)
	aspectRatio := float64(width) / float64(height)

	return &Camera{
		position:   position,
		width:      width,
		height:     height,
		halfWidth:  aspectRatio * halfHeight,
		halfHeight: halfHeight,
	}
}

// Width returns the film width in pixels
func (c *Camera) Width() int { return c.width }

// Height returns the film height in pixels
func (c *Camera) Height() int { return c.height }

// GenerateRay creates the camera ray through the (possibly sub-pixel) film
// sample (filmX, filmY), with (0, 0) at the top-left film corner
func (c *Camera) GenerateRay(filmX, filmY float64) core.Ray {
	s := filmX / float64(c.width)
	t := filmY / float64(c.height)

	direction := core.NewVec3(
		(2*s-1)*c.halfWidth,
		(1-2*t)*c.halfHeight,
		1,
	)
	return core.NewRay(c.position, direction)
}
