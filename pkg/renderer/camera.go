package renderer

import (
	"image"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/scene"
)

// Camera generates rays for rendering. The eye sits at Position looking down +z
// through an image plane at z=0 whose pixels are one world unit apart.
type Camera struct {
	Position core.Vec3
	Width    int
	Height   int
	Viewport image.Rectangle
}

// NewCamera creates a camera from a scene's camera configuration
func NewCamera(cfg scene.CameraConfig) *Camera {
	return &Camera{
		Position: cfg.Position,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Viewport: cfg.Bounds(),
	}
}

// direction maps an image-plane coordinate to a unit view direction.
// The image center uses integer halving so odd sizes match the pixel grid.
func (c *Camera) direction(x, y float64) core.Vec3 {
	return core.NewVec3(
		x-float64(c.Width/2),
		y-float64(c.Height/2),
		-c.Position.Z,
	).Normalize()
}

// Ray returns the ray through the center of pixel (x, y)
func (c *Camera) Ray(x, y int) core.Ray {
	return core.NewRay(c.Position, c.direction(float64(x), float64(y)))
}

// NodeRay returns the ray through the upper-left corner of pixel (x, y)
func (c *Camera) NodeRay(x, y int) core.Ray {
	return core.NewRay(c.Position, c.direction(float64(x)-0.5, float64(y)-0.5))
}

// SupersampleRays returns an n x n grid of rays evenly spread across pixel (x, y),
// edge to edge. A single sample degenerates to the pixel center.
func (c *Camera) SupersampleRays(x, y, n int) []core.Ray {
	rays := make([]core.Ray, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			rays = append(rays, core.NewRay(c.Position, c.direction(
				float64(x)+subpixelOffset(i, n),
				float64(y)+subpixelOffset(j, n),
			)))
		}
	}
	return rays
}

func subpixelOffset(i, n int) float64 {
	if n < 2 {
		return 0
	}
	return -0.5 + float64(i)/float64(n-1)
}
