package material

import (
	"testing"

	"github.com/df07/go-caustic-raytracer/pkg/core"
)

func TestMaterial_Accessors(t *testing.T) {
	m := New(core.Red, 30, 1.5, [4]float64{0.1, 0.5, 0.2, 0.8})

	if m.Scatter() != 0.1 || m.Specular() != 0.5 || m.Reflectivity() != 0.2 || m.Transmissivity() != 0.8 {
		t.Errorf("Unexpected coefficients: scatter=%f specular=%f reflectivity=%f transmissivity=%f",
			m.Scatter(), m.Specular(), m.Reflectivity(), m.Transmissivity())
	}
}

func TestMaterial_Classification(t *testing.T) {
	tests := []struct {
		name        string
		material    Material
		caustic     bool
		diffuseOnly bool
	}{
		{"default", Default(), false, true},
		{"diffuse", Diffuse(core.White), false, true},
		{"specular only", New(core.White, 50, 1, [4]float64{0, 1, 0, 0}), false, true},
		{"mirror", New(core.Black, 0, 1, [4]float64{0, 0, 1, 0}), true, false},
		{"glass", New(core.White, 30, 1.5, [4]float64{0, 0.5, 0, 0.8}), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.material.CausticCapable(); got != tt.caustic {
				t.Errorf("CausticCapable() = %t, want %t", got, tt.caustic)
			}
			if got := tt.material.IsDiffuseOnly(); got != tt.diffuseOnly {
				t.Errorf("IsDiffuseOnly() = %t, want %t", got, tt.diffuseOnly)
			}
		})
	}
}
