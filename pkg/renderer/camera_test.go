package renderer

import (
	"image"
	"math"
	"testing"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/scene"
)

func TestCamera_Ray(t *testing.T) {
	cam := NewCamera(scene.CameraConfig{Position: core.NewVec3(0, 0, -500), Width: 640, Height: 480})

	tests := []struct {
		name     string
		x, y     int
		expected core.Vec3
	}{
		{"image center looks straight ahead", 320, 240, core.NewVec3(0, 0, 1)},
		{"right of center", 820, 240, core.NewVec3(1, 0, 1).Normalize()},
		{"below center (y grows downward)", 320, 740, core.NewVec3(0, 1, 1).Normalize()},
		{"upper-left pixel", 0, 0, core.NewVec3(-320, -240, 500).Normalize()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := cam.Ray(tt.x, tt.y)
			if ray.Origin != cam.Position {
				t.Errorf("Expected origin %v, got %v", cam.Position, ray.Origin)
			}
			if ray.Direction.Subtract(tt.expected).Length() > 1e-12 {
				t.Errorf("Expected direction %v, got %v", tt.expected, ray.Direction)
			}
			if math.Abs(ray.Direction.Length()-1) > 1e-12 {
				t.Errorf("Direction not normalized: %v", ray.Direction)
			}
		})
	}
}

func TestCamera_OddSizeUsesIntegerHalving(t *testing.T) {
	cam := NewCamera(scene.CameraConfig{Position: core.NewVec3(0, 0, -100), Width: 5, Height: 3})
	ray := cam.Ray(2, 1)
	if ray.Direction.Subtract(core.NewVec3(0, 0, 1)).Length() > 1e-12 {
		t.Errorf("Pixel (2,1) of a 5x3 image should be centered, got %v", ray.Direction)
	}
}

func TestCamera_NodeRayIsPixelCorner(t *testing.T) {
	cam := NewCamera(scene.CameraConfig{Position: core.NewVec3(0, 0, -500), Width: 640, Height: 480})
	got := cam.NodeRay(320, 240).Direction
	want := core.NewVec3(-0.5, -0.5, 500).Normalize()
	if got.Subtract(want).Length() > 1e-12 {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCamera_SupersampleRays(t *testing.T) {
	cam := NewCamera(scene.CameraConfig{Position: core.NewVec3(0, 0, -500), Width: 640, Height: 480})

	single := cam.SupersampleRays(10, 20, 1)
	if len(single) != 1 {
		t.Fatalf("Expected 1 ray, got %d", len(single))
	}
	if single[0] != cam.Ray(10, 20) {
		t.Errorf("Single sample should be the pixel center ray")
	}

	grid := cam.SupersampleRays(10, 20, 3)
	if len(grid) != 9 {
		t.Fatalf("Expected 9 rays, got %d", len(grid))
	}
	// The grid runs edge to edge: first sample on the upper-left corner, last on the lower-right
	if grid[0].Direction.Subtract(cam.NodeRay(10, 20).Direction).Length() > 1e-12 {
		t.Errorf("First sample should sit on the upper-left corner, got %v", grid[0].Direction)
	}
	if grid[8].Direction.Subtract(cam.NodeRay(11, 21).Direction).Length() > 1e-12 {
		t.Errorf("Last sample should sit on the lower-right corner, got %v", grid[8].Direction)
	}
	if grid[4] != cam.Ray(10, 20) {
		t.Errorf("Middle sample should be the pixel center")
	}
}

func TestNewCamera_Viewport(t *testing.T) {
	cfg := scene.CameraConfig{Position: core.NewVec3(0, 0, -500), Width: 100, Height: 80}
	if got := NewCamera(cfg).Viewport; got != image.Rect(0, 0, 100, 80) {
		t.Errorf("Expected full-image viewport, got %v", got)
	}

	cfg.Viewport = image.Rect(90, 70, 200, 200)
	if got := NewCamera(cfg).Viewport; got != image.Rect(90, 70, 100, 80) {
		t.Errorf("Expected viewport clipped to the image, got %v", got)
	}
}
