package geometry

import (
	"math"

	"github.com/df07/go-caustic-raytracer/pkg/core"
)

const (
	// parallelEpsilon is the |n·d| below which a ray counts as parallel to a plane
	parallelEpsilon = 1e-6
	// angleSumTolerance is how far the subtended angle sum may drift from 2π for an inside point
	angleSumTolerance = 1e-4
	// coincidentEpsilon short-circuits the angle sum when the point sits on a vertex
	coincidentEpsilon = 1e-7
)

// Polygon is a planar convex face of a mesh. Vertices must be coplanar and form
// a simple polygon; intersection results are undefined otherwise.
type Polygon struct {
	Indices  []int       // Indices into the parent mesh's vertex pool
	Vertices []core.Vec3 // Resolved vertex positions, in winding order
	Normal   core.Vec3   // Unit normal
	offset   float64     // n·v0
}

// NewPolygon creates a polygon whose normal follows the right-hand rule over the
// first three vertices
func NewPolygon(vertices []core.Vec3, indices []int) *Polygon {
	n := vertices[1].Subtract(vertices[0]).Cross(vertices[2].Subtract(vertices[0])).Normalize()
	return NewPolygonWithNormal(vertices, indices, n)
}

// NewPolygonWithNormal creates a polygon with an explicit normal, e.g. one read from a model file
func NewPolygonWithNormal(vertices []core.Vec3, indices []int, normal core.Vec3) *Polygon {
	vs := make([]core.Vec3, len(vertices))
	copy(vs, vertices)
	idx := make([]int, len(indices))
	copy(idx, indices)

	n := normal.Normalize()
	return &Polygon{
		Indices:  idx,
		Vertices: vs,
		Normal:   n,
		offset:   n.Dot(vs[0]),
	}
}

// Intersect tests ray against the polygon. It returns the ray parameter and the hit point.
// Rays nearly parallel to the plane and hits at t <= 0 are misses.
func (p *Polygon) Intersect(ray core.Ray) (float64, core.Vec3, bool) {
	denom := p.Normal.Dot(ray.Direction)
	if math.Abs(denom) < parallelEpsilon {
		return 0, core.Vec3{}, false
	}

	t := (p.offset - p.Normal.Dot(ray.Origin)) / denom
	if t <= 0 {
		return 0, core.Vec3{}, false
	}

	point := ray.At(t)
	if math.Abs(angleSum(point, p.Vertices)-2*math.Pi) > angleSumTolerance {
		return 0, core.Vec3{}, false
	}
	return t, point, true
}

// Contains reports whether a point already known to lie in the plane is inside the boundary
func (p *Polygon) Contains(point core.Vec3) bool {
	return math.Abs(angleSum(point, p.Vertices)-2*math.Pi) <= angleSumTolerance
}

// angleSum adds up the angles subtended at q by each edge. It is 2π for points
// inside the polygon and smaller outside.
func angleSum(q core.Vec3, vertices []core.Vec3) float64 {
	n := len(vertices)
	sum := 0.0
	for i := 0; i < n; i++ {
		p1 := vertices[i].Subtract(q)
		p2 := vertices[(i+1)%n].Subtract(q)

		m := p1.Length() * p2.Length()
		if m <= coincidentEpsilon {
			return 2 * math.Pi
		}
		cos := p1.Dot(p2) / m
		sum += math.Acos(max(-1, min(1, cos)))
	}
	return sum
}

// Center returns the vertex mean
func (p *Polygon) Center() core.Vec3 {
	var c core.Vec3
	for _, v := range p.Vertices {
		c = c.Add(v)
	}
	return c.Multiply(1.0 / float64(len(p.Vertices)))
}

// SurfaceCoords projects a point onto the two edges leaving the first vertex.
// u runs along v1-v0 and v along vLast-v0; both are 0..1 across a parallelogram face.
func (p *Polygon) SurfaceCoords(point core.Vec3) (u, v float64) {
	v0 := p.Vertices[0]
	e1 := p.Vertices[1].Subtract(v0)
	e2 := p.Vertices[len(p.Vertices)-1].Subtract(v0)
	rel := point.Subtract(v0)

	if l := e1.LengthSquared(); l > 0 {
		u = rel.Dot(e1) / l
	}
	if l := e2.LengthSquared(); l > 0 {
		v = rel.Dot(e2) / l
	}
	return u, v
}
