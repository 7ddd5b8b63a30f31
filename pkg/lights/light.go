package lights

import "github.com/df07/go-caustic-raytracer/pkg/core"

// Light is a point light. Intensity scales both the shading contribution and the
// energy carried by photons in the caustic pass.
type Light struct {
	Position  core.Vec3  `json:"position"`
	Intensity float64    `json:"intensity"`
	Color     core.Color `json:"color"`
}

// New creates a point light
func New(position core.Vec3, intensity float64, color core.Color) Light {
	return Light{Position: position, Intensity: intensity, Color: color}
}

// PhotonColor is the energy a photon starts with: color × intensity, truncated per channel
func (l Light) PhotonColor() core.Color {
	return l.Color.Scale(l.Intensity)
}

// Tint returns the light color as 0-1 factors
func (l Light) Tint() core.Vec3 {
	return l.Color.Vec().Multiply(1.0 / 255)
}
