package geometry

import (
	"github.com/df07/go-caustic-raytracer/pkg/core"
)

// Primitive is anything a ray can hit. The scene flattens meshes into one
// primitive per polygon, followed by the spheres, and scans them in order.
type Primitive interface {
	Intersect(ray core.Ray) (Hit, bool)
	ID() ShapeID
}
