package geometry

import (
	"fmt"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/material"
)

// ShapeKind distinguishes the primitive families a ray can hit
type ShapeKind int

const (
	KindNone ShapeKind = iota
	KindMesh
	KindSphere
)

func (k ShapeKind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindSphere:
		return "sphere"
	default:
		return "none"
	}
}

// ShapeID identifies a primitive within a scene: the mesh or sphere index and,
// for meshes, the face index. Spheres use Face -1.
type ShapeID struct {
	Kind  ShapeKind
	Index int
	Face  int
}

// NoShape is the identity recorded when a ray hits nothing
var NoShape = ShapeID{Kind: KindNone, Index: -1, Face: -1}

func (id ShapeID) String() string {
	if id.Kind == KindMesh {
		return fmt.Sprintf("mesh[%d].face[%d]", id.Index, id.Face)
	}
	if id.Kind == KindSphere {
		return fmt.Sprintf("sphere[%d]", id.Index)
	}
	return "none"
}

// Hit contains information about a ray-primitive intersection
type Hit struct {
	T        float64   // Parameter t along the ray
	Point    core.Vec3 // Point of intersection
	Normal   core.Vec3 // Outward unit normal, not flipped toward the ray
	Material material.Material
	ID       ShapeID
	Polygon  *Polygon // Set for mesh hits, nil for spheres
}

// PolygonPrimitive is one face of a mesh, carrying the mesh's material
type PolygonPrimitive struct {
	Polygon  *Polygon
	Material material.Material
	id       ShapeID
}

// NewPolygonPrimitive wraps face of mesh meshIndex
func NewPolygonPrimitive(mesh *Mesh, meshIndex, face int) *PolygonPrimitive {
	return &PolygonPrimitive{
		Polygon:  mesh.Faces[face],
		Material: mesh.Material,
		id:       ShapeID{Kind: KindMesh, Index: meshIndex, Face: face},
	}
}

// Intersect implements Primitive
func (p *PolygonPrimitive) Intersect(ray core.Ray) (Hit, bool) {
	t, point, ok := p.Polygon.Intersect(ray)
	if !ok {
		return Hit{}, false
	}
	return Hit{
		T:        t,
		Point:    point,
		Normal:   p.Polygon.Normal,
		Material: p.Material,
		ID:       p.id,
		Polygon:  p.Polygon,
	}, true
}

// ID implements Primitive
func (p *PolygonPrimitive) ID() ShapeID { return p.id }

// SpherePrimitive is a sphere placed in a scene
type SpherePrimitive struct {
	Sphere *Sphere
	id     ShapeID
}

// NewSpherePrimitive wraps the sphere at index
func NewSpherePrimitive(sphere *Sphere, index int) *SpherePrimitive {
	return &SpherePrimitive{Sphere: sphere, id: ShapeID{Kind: KindSphere, Index: index, Face: -1}}
}

// Intersect implements Primitive
func (s *SpherePrimitive) Intersect(ray core.Ray) (Hit, bool) {
	t, ok := s.Sphere.Intersect(ray)
	if !ok {
		return Hit{}, false
	}
	point := ray.At(t)
	return Hit{
		T:        t,
		Point:    point,
		Normal:   s.Sphere.NormalAt(point),
		Material: s.Sphere.Material,
		ID:       s.id,
	}, true
}

// ID implements Primitive
func (s *SpherePrimitive) ID() ShapeID { return s.id }
