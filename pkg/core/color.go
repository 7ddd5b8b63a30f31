package core

import "image/color"

// Color is an 8-bit RGB color. Shading accumulates in Vec3 (channel values on the
// 0-255 scale) and converts back with ColorFromVec.
type Color struct {
	R, G, B uint8
}

// Named colors used by the built-in scenes
var (
	Black     = Color{0, 0, 0}
	White     = Color{255, 255, 255}
	DarkGray  = Color{169, 169, 169}
	Gray      = Color{128, 128, 128}
	LightGray = Color{211, 211, 211}
	Red       = Color{255, 0, 0}
	Green     = Color{0, 128, 0}
	Yellow    = Color{255, 255, 0}
	Purple    = Color{128, 0, 128}
	Orange    = Color{255, 165, 0}
	Cyan      = Color{0, 255, 255}
)

// NewColor creates a color from 8-bit channels
func NewColor(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ColorFromVec truncates each channel toward zero and clamps it to [0, 255]
func ColorFromVec(v Vec3) Color {
	return Color{R: clampChannel(v.X), G: clampChannel(v.Y), B: clampChannel(v.Z)}
}

func clampChannel(v float64) uint8 {
	if v != v || v <= 0 { // NaN never reaches the image
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// Vec returns the channels as a Vec3 on the 0-255 scale
func (c Color) Vec() Vec3 {
	return Vec3{X: float64(c.R), Y: float64(c.G), Z: float64(c.B)}
}

// Scale multiplies every channel by s, truncating and clamping the result
func (c Color) Scale(s float64) Color {
	return ColorFromVec(c.Vec().Multiply(s))
}

// RGBA converts to an opaque image/color value
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// MaxChannelDelta returns the largest absolute per-channel difference between two colors
func MaxChannelDelta(a, b Color) int {
	return max(absDiff(a.R, b.R), absDiff(a.G, b.G), absDiff(a.B, b.B))
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
