package renderer

import (
	"image"

	"github.com/df07/go-caustic-raytracer/pkg/core"
)

// Framebuffer is a contiguous row-major RGB8 buffer covering the viewport.
// Rows are written by at most one worker at a time.
type Framebuffer struct {
	bounds image.Rectangle
	pix    []core.Color
}

// NewFramebuffer allocates a black buffer for bounds
func NewFramebuffer(bounds image.Rectangle) *Framebuffer {
	return &Framebuffer{
		bounds: bounds,
		pix:    make([]core.Color, bounds.Dx()*bounds.Dy()),
	}
}

// Bounds returns the pixel rectangle the buffer covers
func (fb *Framebuffer) Bounds() image.Rectangle { return fb.bounds }

func (fb *Framebuffer) index(x, y int) int {
	return (y-fb.bounds.Min.Y)*fb.bounds.Dx() + (x - fb.bounds.Min.X)
}

// Set writes pixel (x, y) in image coordinates
func (fb *Framebuffer) Set(x, y int, c core.Color) {
	fb.pix[fb.index(x, y)] = c
}

// At reads pixel (x, y) in image coordinates
func (fb *Framebuffer) At(x, y int) core.Color {
	return fb.pix[fb.index(x, y)]
}

// Image converts the buffer to an opaque RGBA image with the same bounds
func (fb *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(fb.bounds)
	i := 0
	for y := fb.bounds.Min.Y; y < fb.bounds.Max.Y; y++ {
		for x := fb.bounds.Min.X; x < fb.bounds.Max.X; x++ {
			img.SetRGBA(x, y, fb.pix[i].RGBA())
			i++
		}
	}
	return img
}
