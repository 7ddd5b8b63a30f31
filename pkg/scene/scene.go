package scene

import (
	"image"
	"sync"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/geometry"
	"github.com/df07/go-caustic-raytracer/pkg/lights"
)

// CameraConfig places the eye and sizes the image. The image plane sits at z=0,
// so the eye's distance to it is -Position.Z.
type CameraConfig struct {
	Position core.Vec3
	Width    int
	Height   int
	Viewport image.Rectangle // Region of the image to render; empty means the whole image
}

// Bounds returns the viewport, defaulting to the full image
func (c CameraConfig) Bounds() image.Rectangle {
	full := image.Rect(0, 0, c.Width, c.Height)
	if c.Viewport.Empty() {
		return full
	}
	return c.Viewport.Intersect(full)
}

// Scene contains all the elements needed for rendering. It is built once and
// never mutated by a render.
type Scene struct {
	Name         string
	Meshes       []*geometry.Mesh
	Spheres      []*geometry.Sphere
	Lights       []lights.Light
	CameraConfig CameraConfig

	primitives []geometry.Primitive
	meshStart  []int // index of each mesh's first face in primitives
	lazy       sync.Once
}

// New creates an empty scene
func New(name string, camera CameraConfig) *Scene {
	return &Scene{Name: name, CameraConfig: camera}
}

// AddMesh appends a mesh and returns its index
func (s *Scene) AddMesh(m *geometry.Mesh) int {
	s.Meshes = append(s.Meshes, m)
	s.primitives = nil
	return len(s.Meshes) - 1
}

// AddSphere appends a sphere and returns its index
func (s *Scene) AddSphere(sp *geometry.Sphere) int {
	s.Spheres = append(s.Spheres, sp)
	s.primitives = nil
	return len(s.Spheres) - 1
}

// AddLight appends a point light
func (s *Scene) AddLight(l lights.Light) {
	s.Lights = append(s.Lights, l)
}

// Preprocess flattens meshes and spheres into the ordered primitive list used
// for intersection: every mesh face in mesh order, then every sphere.
// Call it after the last Add and before rendering.
func (s *Scene) Preprocess() error {
	prims := make([]geometry.Primitive, 0, s.GetPrimitiveCount())
	starts := make([]int, len(s.Meshes))
	for mi, m := range s.Meshes {
		starts[mi] = len(prims)
		for fi := range m.Faces {
			prims = append(prims, geometry.NewPolygonPrimitive(m, mi, fi))
		}
	}
	for si, sp := range s.Spheres {
		prims = append(prims, geometry.NewSpherePrimitive(sp, si))
	}
	s.primitives = prims
	s.meshStart = starts
	return nil
}

// Primitives returns the flattened primitive list. A scene that was never
// preprocessed is flattened once on first use, safely from any number of
// goroutines. Adding to a scene after that needs an explicit Preprocess.
func (s *Scene) Primitives() []geometry.Primitive {
	s.lazy.Do(func() {
		if s.primitives == nil {
			_ = s.Preprocess()
		}
	})
	return s.primitives
}

// NearestHit scans every primitive and keeps the smallest positive distance.
// Ties go to the first primitive encountered.
func (s *Scene) NearestHit(ray core.Ray) (geometry.Hit, bool) {
	var best geometry.Hit
	found := false
	for _, p := range s.Primitives() {
		hit, ok := p.Intersect(ray)
		if ok && (!found || hit.T < best.T) {
			best = hit
			found = true
		}
	}
	return best, found
}

// TargetHit intersects ray with a single mesh (nearest of its faces) or sphere
func (s *Scene) TargetHit(ray core.Ray, target geometry.ShapeID) (geometry.Hit, bool) {
	prims := s.Primitives()
	var candidates []geometry.Primitive

	switch target.Kind {
	case geometry.KindMesh:
		if target.Index < 0 || target.Index >= len(s.Meshes) {
			return geometry.Hit{}, false
		}
		start := s.meshStart[target.Index]
		candidates = prims[start : start+len(s.Meshes[target.Index].Faces)]
	case geometry.KindSphere:
		if target.Index < 0 || target.Index >= len(s.Spheres) {
			return geometry.Hit{}, false
		}
		i := len(prims) - len(s.Spheres) + target.Index
		candidates = prims[i : i+1]
	}

	var best geometry.Hit
	found := false
	for _, p := range candidates {
		hit, ok := p.Intersect(ray)
		if ok && (!found || hit.T < best.T) {
			best = hit
			found = true
		}
	}
	return best, found
}

// Probe returns the identity of the nearest primitive along ray, or geometry.NoShape
func (s *Scene) Probe(ray core.Ray) geometry.ShapeID {
	hit, ok := s.NearestHit(ray)
	if !ok {
		return geometry.NoShape
	}
	return hit.ID
}

// FaceCounts returns the number of faces of each mesh, in mesh order
func (s *Scene) FaceCounts() []int {
	counts := make([]int, len(s.Meshes))
	for i, m := range s.Meshes {
		counts[i] = len(m.Faces)
	}
	return counts
}

// PolygonCount returns the total number of mesh faces
func (s *Scene) PolygonCount() int {
	n := 0
	for _, m := range s.Meshes {
		n += len(m.Faces)
	}
	return n
}

// GetPrimitiveCount returns the number of intersectable primitives
func (s *Scene) GetPrimitiveCount() int {
	return s.PolygonCount() + len(s.Spheres)
}
