package core

import (
	"math"
	"testing"
)

func TestRotateAroundAxis(t *testing.T) {
	tests := []struct {
		name     string
		vector   Vec3
		rotation Mat4
		expected Vec3
	}{
		{
			name:     "No rotation",
			vector:   NewVec3(1, 0, 0),
			rotation: Identity(),
			expected: NewVec3(1, 0, 0),
		},
		{
			name:     "90 degree rotation around Z axis",
			vector:   NewVec3(1, 0, 0),
			rotation: RotateZ(math.Pi / 2),
			expected: NewVec3(0, 1, 0),
		},
		{
			name:     "90 degree rotation around Y axis",
			vector:   NewVec3(1, 0, 0),
			rotation: RotateY(math.Pi / 2),
			expected: NewVec3(0, 0, -1),
		},
		{
			name:     "90 degree rotation around X axis",
			vector:   NewVec3(0, 1, 0),
			rotation: RotateX(math.Pi / 2),
			expected: NewVec3(0, 0, 1),
		},
		{
			name:     "180 degree rotation around Y axis",
			vector:   NewVec3(1, 0, 0),
			rotation: RotateY(math.Pi),
			expected: NewVec3(-1, 0, 0),
		},
		{
			name:     "Combined rotations",
			vector:   NewVec3(1, 0, 0),
			rotation: RotateY(math.Pi / 2).Mul(RotateZ(math.Pi / 2)), // 90° Y then 90° Z
			expected: NewVec3(0, 0, -1),
		},
		{
			name:     "Arbitrary axis keeps vectors on the axis fixed",
			vector:   NewVec3(1, 1, 1),
			rotation: RotateAroundAxis(NewVec3(2, 2, 2), 1.234),
			expected: NewVec3(1, 1, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TransformDirection(tt.vector, tt.rotation)

			const tolerance = 1e-9
			if result.Subtract(tt.expected).Length() > tolerance {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestTransformPoint_TranslationOnlyAffectsPoints(t *testing.T) {
	m := Scale(2, 2, 2).Mul(Translate(1, -2, 3))
	p := TransformPoint(NewVec3(1, 1, 1), m)
	if p.Subtract(NewVec3(3, 0, 5)).Length() > 1e-12 {
		t.Errorf("Expected (3,0,5), got %v", p)
	}

	d := TransformDirection(NewVec3(1, 1, 1), m)
	if d.Subtract(NewVec3(2, 2, 2)).Length() > 1e-12 {
		t.Errorf("Expected direction (2,2,2), got %v", d)
	}
}

func TestReflect_Involution(t *testing.T) {
	vectors := []Vec3{
		NewVec3(1, 0, 0),
		NewVec3(0.3, -0.7, 0.2).Normalize(),
		NewVec3(-1, -1, 1).Normalize(),
		NewVec3(0, 0, -1),
	}
	normals := []Vec3{
		NewVec3(0, 1, 0),
		NewVec3(1, 1, 0).Normalize(),
		NewVec3(-0.2, 0.5, 0.9).Normalize(),
	}

	for _, v := range vectors {
		for _, n := range normals {
			twice := Reflect(Reflect(v, n), n)
			if twice.Subtract(v).Length() > 1e-9 {
				t.Errorf("reflect(reflect(%v, %v)) = %v, want original", v, n, twice)
			}
		}
	}
}

func TestReflect_MirrorsAcrossPlane(t *testing.T) {
	r := Reflect(NewVec3(1, -1, 0), NewVec3(0, 1, 0))
	if r.Subtract(NewVec3(1, 1, 0)).Length() > 1e-12 {
		t.Errorf("Expected (1,1,0), got %v", r)
	}
}

func TestRefract(t *testing.T) {
	normal := NewVec3(0, 1, 0)

	t.Run("Normal incidence passes straight through", func(t *testing.T) {
		r := Refract(NewVec3(0, -1, 0), normal, 1.5)
		if r.Subtract(NewVec3(0, -1, 0)).Length() > 1e-12 {
			t.Errorf("Expected straight ray, got %v", r)
		}
	})

	t.Run("Entering denser medium bends toward normal", func(t *testing.T) {
		in := NewVec3(1, -1, 0).Normalize()
		r := Refract(in, normal, 1.5)
		sinIn := math.Abs(in.X)
		sinOut := math.Abs(r.Normalize().X)
		if math.Abs(sinIn/sinOut-1.5) > 1e-9 {
			t.Errorf("Snell's law violated: sinIn/sinOut = %f", sinIn/sinOut)
		}
		if r.Y >= 0 {
			t.Errorf("Refracted ray should continue downward, got %v", r)
		}
	})

	t.Run("Leaving medium beyond critical angle is total internal reflection", func(t *testing.T) {
		// Travelling along the normal means we are inside; critical angle for 1.5 is ~41.8°
		in := NewVec3(math.Sin(Radians(60)), math.Cos(Radians(60)), 0)
		r := Refract(in, normal, 1.5)
		if !r.IsZero() {
			t.Errorf("Expected zero sentinel, got %v", r)
		}
	})

	t.Run("Leaving medium below critical angle bends away from normal", func(t *testing.T) {
		in := NewVec3(math.Sin(Radians(20)), math.Cos(Radians(20)), 0)
		r := Refract(in, normal, 1.5)
		if r.IsZero() {
			t.Fatal("Unexpected total internal reflection")
		}
		sinOut := r.Normalize().X
		if math.Abs(sinOut-1.5*math.Sin(Radians(20))) > 1e-9 {
			t.Errorf("Expected sinOut %f, got %f", 1.5*math.Sin(Radians(20)), sinOut)
		}
	})

	t.Run("Index 1 never bends", func(t *testing.T) {
		in := NewVec3(0.6, -0.8, 0)
		r := Refract(in, normal, 1.0)
		if r.Subtract(in).Length() > 1e-12 {
			t.Errorf("Expected unchanged direction, got %v", r)
		}
	})
}

func TestCosBetween_SnapsNoise(t *testing.T) {
	a := NewVec3(1, 0.00005, 0)
	b := NewVec3(0, 1, 0)
	if c := CosBetween(a, b); c != 0 {
		t.Errorf("Expected snapped cosine 0, got %g", c)
	}

	if c := CosBetween(NewVec3(1, 1, 0), NewVec3(1, 0, 0)); math.Abs(c-math.Sqrt2/2) > 1e-12 {
		t.Errorf("Expected cos 45° = %f, got %f", math.Sqrt2/2, c)
	}

	if a := AngleBetween(NewVec3(0, 0, 1), NewVec3(0, 0, -1)); math.Abs(a-math.Pi) > 1e-12 {
		t.Errorf("Expected pi, got %f", a)
	}
}

func TestFalloff(t *testing.T) {
	if f := Falloff(0, 800); f != 1 {
		t.Errorf("Falloff(0) = %f, want 1", f)
	}
	if f := Falloff(800, 800); f != 0 {
		t.Errorf("Falloff(max) = %f, want 0", f)
	}
	if f := Falloff(2000, 800); f != 0 {
		t.Errorf("Falloff beyond max = %f, want 0", f)
	}

	prev := Falloff(0, 800)
	for d := 10.0; d <= 1000; d += 10 {
		f := Falloff(d, 800)
		if f > prev {
			t.Fatalf("Falloff increased between %f and %f", d-10, d)
		}
		prev = f
	}
}

func TestColorFromVec_Clamps(t *testing.T) {
	tests := []struct {
		name string
		in   Vec3
		want Color
	}{
		{"in range truncates", NewVec3(12.9, 100.1, 254.99), Color{12, 100, 254}},
		{"overflow saturates", NewVec3(300, 256, 1e9), Color{255, 255, 255}},
		{"underflow floors at zero", NewVec3(-5, -0.5, 0), Color{0, 0, 0}},
		{"NaN becomes zero", NewVec3(math.NaN(), 10, 10), Color{0, 10, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColorFromVec(tt.in); got != tt.want {
				t.Errorf("ColorFromVec(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaxChannelDelta(t *testing.T) {
	if d := MaxChannelDelta(Color{10, 200, 30}, Color{20, 180, 30}); d != 20 {
		t.Errorf("Expected 20, got %d", d)
	}
}
