package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/geometry"
	"github.com/df07/go-caustic-raytracer/pkg/lights"
	"github.com/df07/go-caustic-raytracer/pkg/loaders"
	"github.com/df07/go-caustic-raytracer/pkg/material"
)

// File is the JSON scene description
type File struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Group       string       `json:"group"`
	Camera      *CameraSpec  `json:"camera"`
	Room        bool         `json:"room"` // include the standard six-wall room
	Meshes      []MeshSpec   `json:"meshes"`
	Spheres     []SphereSpec `json:"spheres"`
	Lights      []LightSpec  `json:"lights"`
}

// CameraSpec overrides the default camera
type CameraSpec struct {
	Position *[3]float64 `json:"position"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Viewport *[4]int     `json:"viewport"` // x0, y0, x1, y1
}

// MaterialSpec is a material with colors as [r, g, b]
type MaterialSpec struct {
	Color            [3]uint8   `json:"color"`
	SpecularExponent float64    `json:"specularExponent"`
	RefractionIndex  float64    `json:"refractionIndex"`
	Coefficients     [4]float64 `json:"coefficients"`
}

// TransformSpec is one step of a mesh placement; exactly one field should be set
type TransformSpec struct {
	Scale     *[3]float64 `json:"scale"`
	Rotate    *RotateSpec `json:"rotate"`
	Translate *[3]float64 `json:"translate"`
}

// RotateSpec rotates about a principal axis ("x", "y", "z") by degrees
type RotateSpec struct {
	Axis    string  `json:"axis"`
	Degrees float64 `json:"degrees"`
}

// MeshSpec places a built-in shape or an OBJ or PLY model
type MeshSpec struct {
	Name       string          `json:"name"`
	Shape      string          `json:"shape"` // "cube", "octahedron", "plane"
	OBJ        string          `json:"obj"`   // path relative to the scene file
	PLY        string          `json:"ply"`   // path relative to the scene file
	Size       float64         `json:"size"`
	Material   MaterialSpec    `json:"material"`
	Transforms []TransformSpec `json:"transforms"`
}

// SphereSpec places a sphere
type SphereSpec struct {
	Center   [3]float64   `json:"center"`
	Radius   float64      `json:"radius"`
	Material MaterialSpec `json:"material"`
}

// LightSpec places a point light
type LightSpec struct {
	Position  [3]float64 `json:"position"`
	Intensity float64    `json:"intensity"`
	Color     [3]uint8   `json:"color"`
}

// LoadSceneFile reads a JSON scene description and builds the scene
func LoadSceneFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scene: parse %s: %w", path, err)
	}
	s, err := f.Build(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("scene: build %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Build creates the scene; OBJ paths are resolved against baseDir
func (f *File) Build(baseDir string) (*Scene, error) {
	camera := DefaultCamera()
	if c := f.Camera; c != nil {
		if c.Position != nil {
			camera.Position = vec(*c.Position)
		}
		if c.Width > 0 {
			camera.Width = c.Width
		}
		if c.Height > 0 {
			camera.Height = c.Height
		}
		if v := c.Viewport; v != nil {
			camera.Viewport.Min.X, camera.Viewport.Min.Y = v[0], v[1]
			camera.Viewport.Max.X, camera.Viewport.Max.Y = v[2], v[3]
		}
	}

	s := New(f.Name, camera)
	if f.Room {
		addRoom(s)
	}

	for i, ms := range f.Meshes {
		mesh, err := ms.build(baseDir)
		if err != nil {
			return nil, fmt.Errorf("mesh %d (%s): %w", i, ms.Name, err)
		}
		s.AddMesh(mesh)
	}

	for i, ss := range f.Spheres {
		if ss.Radius <= 0 {
			return nil, fmt.Errorf("sphere %d: radius must be positive, got %g", i, ss.Radius)
		}
		s.AddSphere(geometry.NewSphere(vec(ss.Center), ss.Radius, ss.Material.toMaterial()))
	}

	for i, ls := range f.Lights {
		if ls.Intensity < 0 {
			return nil, fmt.Errorf("light %d: intensity must not be negative", i)
		}
		s.AddLight(lights.New(vec(ls.Position), ls.Intensity, color(ls.Color)))
	}

	if err := s.Preprocess(); err != nil {
		return nil, err
	}
	return s, nil
}

func (ms MeshSpec) build(baseDir string) (*geometry.Mesh, error) {
	mat := ms.Material.toMaterial()
	size := ms.Size
	if size <= 0 {
		size = 100
	}

	var mesh *geometry.Mesh
	switch {
	case ms.OBJ != "":
		m, err := loaders.LoadOBJ(resolvePath(baseDir, ms.OBJ), mat)
		if err != nil {
			return nil, err
		}
		mesh = m
	case ms.PLY != "":
		m, err := loaders.LoadPLY(resolvePath(baseDir, ms.PLY), mat)
		if err != nil {
			return nil, err
		}
		mesh = m
	case ms.Shape == "cube":
		mesh = geometry.NewCubeMesh(ms.Name, size, mat)
	case ms.Shape == "octahedron":
		mesh = geometry.NewOctahedronMesh(ms.Name, size/2, mat)
	case ms.Shape == "plane":
		h := size / 2
		mesh = geometry.NewQuadMesh(ms.Name, core.Vec3{}, core.NewVec3(0, 0, h), core.NewVec3(h, 0, 0), mat)
	default:
		return nil, fmt.Errorf("unknown shape %q", ms.Shape)
	}
	if ms.Name != "" {
		mesh.Name = ms.Name
	}

	t := core.Identity()
	for i, step := range ms.Transforms {
		m, err := step.matrix()
		if err != nil {
			return nil, fmt.Errorf("transform %d: %w", i, err)
		}
		t = t.Mul(m)
	}
	return mesh.Transform(t), nil
}

func (ts TransformSpec) matrix() (core.Mat4, error) {
	switch {
	case ts.Scale != nil:
		return core.Scale(ts.Scale[0], ts.Scale[1], ts.Scale[2]), nil
	case ts.Translate != nil:
		return core.Translate(ts.Translate[0], ts.Translate[1], ts.Translate[2]), nil
	case ts.Rotate != nil:
		angle := core.Radians(ts.Rotate.Degrees)
		switch strings.ToLower(ts.Rotate.Axis) {
		case "x":
			return core.RotateX(angle), nil
		case "y":
			return core.RotateY(angle), nil
		case "z":
			return core.RotateZ(angle), nil
		}
		return core.Mat4{}, fmt.Errorf("unknown rotation axis %q", ts.Rotate.Axis)
	}
	return core.Mat4{}, fmt.Errorf("empty transform")
}

func (ms MaterialSpec) toMaterial() material.Material {
	idx := ms.RefractionIndex
	if idx <= 0 {
		idx = 1
	}
	return material.New(color(ms.Color), ms.SpecularExponent, idx, ms.Coefficients)
}

func resolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func vec(a [3]float64) core.Vec3 { return core.NewVec3(a[0], a[1], a[2]) }

func color(c [3]uint8) core.Color { return core.NewColor(c[0], c[1], c[2]) }
