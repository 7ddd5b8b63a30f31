package renderer

import (
	"context"
	"image"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/geometry"
	"github.com/df07/go-caustic-raytracer/pkg/scene"
)

// Mask marks viewport pixels that need supersampling
type Mask struct {
	bounds image.Rectangle
	bits   []bool
}

// NewMask creates an empty mask covering bounds
func NewMask(bounds image.Rectangle) *Mask {
	return &Mask{bounds: bounds, bits: make([]bool, bounds.Dx()*bounds.Dy())}
}

func (m *Mask) index(x, y int) int {
	return (y-m.bounds.Min.Y)*m.bounds.Dx() + (x - m.bounds.Min.X)
}

// Mark flags pixel (x, y)
func (m *Mask) Mark(x, y int) { m.bits[m.index(x, y)] = true }

// Marked reports whether pixel (x, y) is flagged
func (m *Mask) Marked(x, y int) bool { return m.bits[m.index(x, y)] }

// Count returns the number of flagged pixels
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// cornersNeedSupersampling decides a pixel from the identities seen at its four
// corners. Four sphere hits never need it, whichever spheres they are.
func cornersNeedSupersampling(a, b, c, d geometry.ShapeID) bool {
	if a.Kind == geometry.KindSphere && b.Kind == geometry.KindSphere &&
		c.Kind == geometry.KindSphere && d.Kind == geometry.KindSphere {
		return false
	}
	return a != b || b != c || c != d
}

// DetectEdges probes the primitive identity at every pixel corner of the
// viewport and marks pixels whose four corners disagree
func DetectEdges(ctx context.Context, s *scene.Scene, cam *Camera) (*Mask, error) {
	bounds := cam.Viewport
	w, h := bounds.Dx(), bounds.Dy()

	// (w+1) x (h+1) corner grid, row-major
	corners := make([]geometry.ShapeID, (w+1)*(h+1))
	for y := 0; y <= h; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x <= w; x++ {
			corners[y*(w+1)+x] = s.Probe(cam.NodeRay(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}

	mask := NewMask(bounds)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*(w+1) + x
			if cornersNeedSupersampling(corners[i], corners[i+1], corners[i+w+1], corners[i+w+2]) {
				mask.Mark(bounds.Min.X+x, bounds.Min.Y+y)
			}
		}
	}
	return mask, nil
}

// DetectColorEdges compares every pixel with its right, lower and lower-right
// neighbours and marks both pixels of any pair whose channels differ by more than threshold
func DetectColorEdges(fb *Framebuffer, threshold int) *Mask {
	bounds := fb.Bounds()
	mask := NewMask(bounds)
	neighbours := []image.Point{{1, 0}, {0, 1}, {1, 1}}

	for y := bounds.Min.Y; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X; x < bounds.Max.X-1; x++ {
			c := fb.At(x, y)
			for _, d := range neighbours {
				if core.MaxChannelDelta(c, fb.At(x+d.X, y+d.Y)) > threshold {
					mask.Mark(x, y)
					mask.Mark(x+d.X, y+d.Y)
				}
			}
		}
	}
	return mask
}

// Supersample casts an n x n grid of full-depth rays across pixel (x, y) and
// returns their channel-wise integer average
func Supersample(rt *Raytracer, cam *Camera, x, y, n, depth int) core.Color {
	var r, g, b int
	rays := cam.SupersampleRays(x, y, n)
	for _, ray := range rays {
		c := rt.Cast(ray.Origin, ray.Direction, depth)
		r += int(c.R)
		g += int(c.G)
		b += int(c.B)
	}
	count := len(rays)
	return core.NewColor(uint8(r/count), uint8(g/count), uint8(b/count))
}
