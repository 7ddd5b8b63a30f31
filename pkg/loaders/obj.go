package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/geometry"
	"github.com/df07/go-caustic-raytracer/pkg/material"
)

// LoadOBJ loads a Wavefront OBJ file as a single mesh with the given material
func LoadOBJ(filename string, mat material.Material) (*geometry.Mesh, error) {
	startTime := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open OBJ file: %w", err)
	}
	defer file.Close()

	mesh, err := ParseOBJ(file, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OBJ file %s: %w", filename, err)
	}

	fmt.Printf("✅ Loaded OBJ mesh %q: %d vertices, %d faces in %v\n",
		mesh.Name, len(mesh.Vertices), len(mesh.Faces), time.Since(startTime))
	return mesh, nil
}

// ParseOBJ reads the o, v, vn and f statements of an OBJ stream; everything else
// is ignored. Faces may use v, v/vt, v//vn or v/vt/vn references. A face takes
// its normal from the vn of its first vertex when present, otherwise from its winding.
func ParseOBJ(r io.Reader, mat material.Material) (*geometry.Mesh, error) {
	mesh := geometry.NewMesh("object", mat)
	var normals []core.Vec3

	type pendingFace struct {
		line    int
		indices []int
		normal  int // index into normals, -1 if none
	}
	var faces []pendingFace

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "o":
			if len(fields) > 1 {
				mesh.Name = strings.Join(fields[1:], " ")
			}
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", lineNum, err)
			}
			mesh.AddVertex(v)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: normal: %w", lineNum, err)
			}
			normals = append(normals, n)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNum)
			}
			face := pendingFace{line: lineNum, normal: -1}
			for i, ref := range fields[1:] {
				parts := strings.Split(ref, "/")
				idx, err := resolveIndex(parts[0], len(mesh.Vertices))
				if err != nil {
					return nil, fmt.Errorf("line %d: face vertex %q: %w", lineNum, ref, err)
				}
				face.indices = append(face.indices, idx)

				if i == 0 && len(parts) == 3 && parts[2] != "" {
					n, err := resolveIndex(parts[2], len(normals))
					if err != nil {
						return nil, fmt.Errorf("line %d: face normal %q: %w", lineNum, ref, err)
					}
					face.normal = n
				}
			}
			faces = append(faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for _, f := range faces {
		var err error
		if f.normal >= 0 {
			err = mesh.AddFaceWithNormal(normals[f.normal], f.indices...)
		} else {
			err = mesh.AddFace(f.indices...)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", f.line, err)
		}
	}
	return mesh, nil
}

func parseVec3(fields []string) (core.Vec3, error) {
	if len(fields) < 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var xyz [3]float64
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return core.Vec3{}, err
		}
		xyz[i] = f
	}
	return core.NewVec3(xyz[0], xyz[1], xyz[2]), nil
}

// resolveIndex converts a 1-based (or negative, relative) OBJ index to 0-based
func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += count
	default:
		return 0, fmt.Errorf("index 0 is not valid")
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("index out of range [1,%d]", count)
	}
	return i, nil
}

// SaveOBJ writes a mesh as o, v and f statements
func SaveOBJ(w io.Writer, mesh *geometry.Mesh) error {
	bw := bufio.NewWriter(w)
	name := mesh.Name
	if name == "" {
		name = "object"
	}
	fmt.Fprintf(bw, "o %s\n", name)
	for _, v := range mesh.Vertices {
		fmt.Fprintf(bw, "v %s %s %s\n", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
	}
	for _, f := range mesh.Faces {
		refs := make([]string, len(f.Indices))
		for i, idx := range f.Indices {
			refs[i] = strconv.Itoa(idx + 1)
		}
		fmt.Fprintf(bw, "f %s\n", strings.Join(refs, " "))
	}
	return bw.Flush()
}

// SaveOBJFile writes a mesh to filename
func SaveOBJFile(filename string, mesh *geometry.Mesh) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create OBJ file: %w", err)
	}
	if err := SaveOBJ(f, mesh); err != nil {
		f.Close()
		return fmt.Errorf("failed to write OBJ file %s: %w", filename, err)
	}
	return f.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
