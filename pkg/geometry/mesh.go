package geometry

import (
	"fmt"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/material"
)

// Mesh is a vertex pool plus polygon faces sharing one material
type Mesh struct {
	Name     string
	Vertices []core.Vec3
	Faces    []*Polygon
	Material material.Material
}

// NewMesh creates an empty mesh
func NewMesh(name string, material material.Material) *Mesh {
	return &Mesh{Name: name, Material: material}
}

// AddVertex appends a vertex to the pool and returns its index
func (m *Mesh) AddVertex(v core.Vec3) int {
	m.Vertices = append(m.Vertices, v)
	return len(m.Vertices) - 1
}

// AddFace adds a polygon over the given vertex indices with a winding-order normal
func (m *Mesh) AddFace(indices ...int) error {
	vs, err := m.resolve(indices)
	if err != nil {
		return err
	}
	m.Faces = append(m.Faces, NewPolygon(vs, indices))
	return nil
}

// AddFaceWithNormal adds a polygon with an explicit normal
func (m *Mesh) AddFaceWithNormal(normal core.Vec3, indices ...int) error {
	vs, err := m.resolve(indices)
	if err != nil {
		return err
	}
	m.Faces = append(m.Faces, NewPolygonWithNormal(vs, indices, normal))
	return nil
}

func (m *Mesh) resolve(indices []int) ([]core.Vec3, error) {
	if len(indices) < 3 {
		return nil, fmt.Errorf("face needs at least 3 vertices, got %d", len(indices))
	}
	vs := make([]core.Vec3, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(m.Vertices) {
			return nil, fmt.Errorf("face vertex index %d out of range [0,%d)", idx, len(m.Vertices))
		}
		vs[i] = m.Vertices[idx]
	}
	return vs, nil
}

// Center returns the mean of the vertex pool
func (m *Mesh) Center() core.Vec3 {
	if len(m.Vertices) == 0 {
		return core.Vec3{}
	}
	var c core.Vec3
	for _, v := range m.Vertices {
		c = c.Add(v)
	}
	return c.Multiply(1.0 / float64(len(m.Vertices)))
}

// Transform returns a new mesh with every vertex mapped through t. Normals are
// re-derived from the transformed winding and kept on the same side as the
// transformed original normal, so non-uniform scales stay correct.
func (m *Mesh) Transform(t core.Mat4) *Mesh {
	out := &Mesh{
		Name:     m.Name,
		Vertices: make([]core.Vec3, len(m.Vertices)),
		Faces:    make([]*Polygon, len(m.Faces)),
		Material: m.Material,
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = core.TransformPoint(v, t)
	}

	for i, f := range m.Faces {
		vs := make([]core.Vec3, len(f.Indices))
		for j, idx := range f.Indices {
			vs[j] = out.Vertices[idx]
		}
		n := vs[1].Subtract(vs[0]).Cross(vs[2].Subtract(vs[0]))
		if n.Dot(core.TransformDirection(f.Normal, t)) < 0 {
			n = n.Negate()
		}
		out.Faces[i] = NewPolygonWithNormal(vs, f.Indices, n)
	}
	return out
}

// WithMaterial returns a shallow copy using a different material
func (m *Mesh) WithMaterial(mat material.Material) *Mesh {
	c := *m
	c.Material = mat
	return &c
}

// orientOutward flips any face whose normal points toward the mesh center
func (m *Mesh) orientOutward() {
	c := m.Center()
	for i, f := range m.Faces {
		if f.Normal.Dot(f.Center().Subtract(c)) < 0 {
			m.Faces[i] = NewPolygonWithNormal(f.Vertices, f.Indices, f.Normal.Negate())
		}
	}
}

// NewQuadMesh builds a single parallelogram centered at center spanning ±u and ±v.
// The normal is u×v.
func NewQuadMesh(name string, center, u, v core.Vec3, mat material.Material) *Mesh {
	m := NewMesh(name, mat)
	a := m.AddVertex(center.Subtract(u).Subtract(v))
	b := m.AddVertex(center.Add(u).Subtract(v))
	c := m.AddVertex(center.Add(u).Add(v))
	d := m.AddVertex(center.Subtract(u).Add(v))
	m.Faces = append(m.Faces, NewPolygonWithNormal(
		[]core.Vec3{m.Vertices[a], m.Vertices[b], m.Vertices[c], m.Vertices[d]},
		[]int{a, b, c, d},
		u.Cross(v),
	))
	return m
}

// NewCubeMesh builds an axis-aligned cube of the given edge length centered on the origin
func NewCubeMesh(name string, size float64, mat material.Material) *Mesh {
	h := size / 2
	m := NewMesh(name, mat)
	for _, p := range [][3]float64{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	} {
		m.AddVertex(core.NewVec3(p[0], p[1], p[2]))
	}

	faces := [][]int{
		{0, 3, 2, 1}, // -z
		{4, 5, 6, 7}, // +z
		{0, 4, 7, 3}, // -x
		{1, 2, 6, 5}, // +x
		{0, 1, 5, 4}, // -y
		{3, 7, 6, 2}, // +y
	}
	for _, f := range faces {
		_ = m.AddFace(f...)
	}
	m.orientOutward()
	return m
}

// NewOctahedronMesh builds a regular octahedron with vertices at distance radius from the origin
func NewOctahedronMesh(name string, radius float64, mat material.Material) *Mesh {
	m := NewMesh(name, mat)
	px := m.AddVertex(core.NewVec3(radius, 0, 0))
	nx := m.AddVertex(core.NewVec3(-radius, 0, 0))
	py := m.AddVertex(core.NewVec3(0, radius, 0))
	ny := m.AddVertex(core.NewVec3(0, -radius, 0))
	pz := m.AddVertex(core.NewVec3(0, 0, radius))
	nz := m.AddVertex(core.NewVec3(0, 0, -radius))

	for _, f := range [][]int{
		{px, py, pz}, {py, nx, pz}, {nx, ny, pz}, {ny, px, pz},
		{py, px, nz}, {nx, py, nz}, {ny, nx, nz}, {px, ny, nz},
	} {
		_ = m.AddFace(f...)
	}
	m.orientOutward()
	return m
}
