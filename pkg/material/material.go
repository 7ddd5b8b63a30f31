package material

import "github.com/df07/go-caustic-raytracer/pkg/core"

// Coefficient slots in Material.Coefficients
const (
	ScatterCoef = iota
	SpecularCoef
	ReflectivityCoef
	TransmissivityCoef
)

// Material describes how a surface shades. Coefficients are nominally in [0,1] but are
// not validated; overshooting combinations saturate at the final clamp.
type Material struct {
	Color            core.Color `json:"color"`
	SpecularExponent float64    `json:"specularExponent"`
	RefractionIndex  float64    `json:"refractionIndex"`
	// Coefficients holds [scatter, specular, reflectivity, transmissivity]
	Coefficients [4]float64 `json:"coefficients"`
}

// New creates a material from its base color, specular exponent, refraction index and coefficients
func New(color core.Color, specularExponent, refractionIndex float64, coefficients [4]float64) Material {
	return Material{
		Color:            color,
		SpecularExponent: specularExponent,
		RefractionIndex:  refractionIndex,
		Coefficients:     coefficients,
	}
}

// Default is a plain gray diffuse surface that does not bend light
func Default() Material {
	return New(core.Gray, 0, 1, [4]float64{1, 0, 0, 0})
}

// Diffuse is a shorthand for a purely diffuse surface of the given color
func Diffuse(color core.Color) Material {
	return New(color, 0, 1, [4]float64{})
}

// Scatter is the weight of the scattered diffuse fan against the direct diffuse term
func (m Material) Scatter() float64 { return m.Coefficients[ScatterCoef] }

// Specular is the weight of the specular highlight
func (m Material) Specular() float64 { return m.Coefficients[SpecularCoef] }

// Reflectivity is the weight of the mirror reflection
func (m Material) Reflectivity() float64 { return m.Coefficients[ReflectivityCoef] }

// Transmissivity is the weight of the refracted ray
func (m Material) Transmissivity() float64 { return m.Coefficients[TransmissivityCoef] }

// CausticCapable reports whether the surface redirects light, making it a photon target
func (m Material) CausticCapable() bool {
	return m.Reflectivity() > 0 || m.Transmissivity() > 0
}

// IsDiffuseOnly reports whether photons landing here should be deposited
func (m Material) IsDiffuseOnly() bool {
	return m.Reflectivity() == 0 && m.Transmissivity() == 0
}
