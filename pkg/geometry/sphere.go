package geometry

import (
	"math"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/material"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material material.Material
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, material material.Material) *Sphere {
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: material,
	}
}

// Intersect returns the distance along ray to the sphere surface. The ray direction
// must be unit length. The nearer root wins when it is non-negative, otherwise the
// farther one (the ray starts inside), otherwise there is no hit.
func (s *Sphere) Intersect(ray core.Ray) (float64, bool) {
	// Project the origin-to-center vector onto the ray
	l := s.Center.Subtract(ray.Origin)
	tca := l.Dot(ray.Direction)
	d2 := l.Dot(l) - tca*tca

	r2 := s.Radius * s.Radius
	if d2 > r2 {
		return 0, false
	}

	thc := math.Sqrt(r2 - d2)
	t := tca - thc
	if t < 0 {
		t = tca + thc
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// NormalAt returns the outward unit normal for a point on the surface
func (s *Sphere) NormalAt(point core.Vec3) core.Vec3 {
	return point.Subtract(s.Center).Normalize()
}

// TangentDiskRadius is the radius of the disk through the center, perpendicular to
// the viewing axis, that exactly covers the sphere's silhouette seen from eye.
// Returns 0 when eye is inside the sphere.
func (s *Sphere) TangentDiskRadius(eye core.Vec3) float64 {
	d := core.Distance(eye, s.Center)
	if d <= s.Radius {
		return 0
	}
	return d * s.Radius / math.Sqrt(d*d-s.Radius*s.Radius)
}
