package loaders

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/material"
)

// createTestPLY builds a binary PLY square split into two triangles, with
// optional normals and colors that the loader must skip
func createTestPLY(order binary.ByteOrder, formatName string, includeNormals, includeColors bool) []byte {
	var buf bytes.Buffer

	buf.WriteString("ply\n")
	buf.WriteString("format " + formatName + " 1.0\n")
	buf.WriteString("comment made by the test\n")
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")
	if includeNormals {
		buf.WriteString("property float nx\n")
		buf.WriteString("property float ny\n")
		buf.WriteString("property float nz\n")
	}
	if includeColors {
		buf.WriteString("property uchar red\n")
		buf.WriteString("property uchar green\n")
		buf.WriteString("property uchar blue\n")
	}
	buf.WriteString("element face 2\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("end_header\n")

	vertices := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for _, v := range vertices {
		binary.Write(&buf, order, v)
		if includeNormals {
			binary.Write(&buf, order, [3]float32{0, 0, 1})
		}
		if includeColors {
			binary.Write(&buf, order, [3]uint8{255, 128, 0})
		}
	}

	for _, f := range [][3]int32{{0, 1, 2}, {0, 2, 3}} {
		binary.Write(&buf, order, uint8(3))
		binary.Write(&buf, order, f)
	}
	return buf.Bytes()
}

func TestParsePLY_Binary(t *testing.T) {
	tests := []struct {
		name    string
		order   binary.ByteOrder
		format  string
		normals bool
		colors  bool
	}{
		{"little endian positions only", binary.LittleEndian, "binary_little_endian", false, false},
		{"little endian with normals and colors", binary.LittleEndian, "binary_little_endian", true, true},
		{"big endian with colors", binary.BigEndian, "binary_big_endian", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := createTestPLY(tt.order, tt.format, tt.normals, tt.colors)
			mesh, err := ParsePLY(bytes.NewReader(data), material.Default())
			if err != nil {
				t.Fatalf("ParsePLY failed: %v", err)
			}

			if len(mesh.Vertices) != 4 || len(mesh.Faces) != 2 {
				t.Fatalf("Expected 4 vertices and 2 faces, got %d and %d", len(mesh.Vertices), len(mesh.Faces))
			}
			if mesh.Vertices[2] != core.NewVec3(1, 1, 0) {
				t.Errorf("Expected vertex 2 at (1,1,0), got %v", mesh.Vertices[2])
			}
			if got := mesh.Faces[1].Indices; got[0] != 0 || got[1] != 2 || got[2] != 3 {
				t.Errorf("Unexpected face indices %v", got)
			}
			// Counter-clockwise in the xy plane
			if n := mesh.Faces[0].Normal; n.Subtract(core.NewVec3(0, 0, 1)).Length() > 1e-12 {
				t.Errorf("Expected winding normal (0,0,1), got %v", n)
			}
		})
	}
}

func TestParsePLY_ASCIIQuadAndExtraElement(t *testing.T) {
	src := `ply
format ascii 1.0
element vertex 4
property double x
property double y
property double z
property uchar red
element face 1
property list uchar uint vertex_index
element edge 1
property int vertex1
property int vertex2
end_header
-100 0 100 1
100 0 100 2
100 0 -100 3
-100 0 -100 4
4 0 1 2 3
0 1
`
	mesh, err := ParsePLY(strings.NewReader(src), material.Default())
	if err != nil {
		t.Fatalf("ParsePLY failed: %v", err)
	}
	if len(mesh.Faces) != 1 || len(mesh.Faces[0].Vertices) != 4 {
		t.Fatalf("Expected one quad, got %d faces", len(mesh.Faces))
	}
	if mesh.Vertices[0] != core.NewVec3(-100, 0, 100) {
		t.Errorf("Unexpected first vertex %v", mesh.Vertices[0])
	}
}

func TestParsePLY_Errors(t *testing.T) {
	valid := "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n"

	tests := []struct {
		name string
		src  string
	}{
		{"missing magic", "plx\nformat ascii 1.0\nend_header\n"},
		{"no end_header", "ply\nformat ascii 1.0\nelement vertex 0\n"},
		{"unknown format", "ply\nformat binary_middle_endian 1.0\nelement vertex 0\nproperty float x\nproperty float y\nproperty float z\nend_header\n"},
		{"missing z", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nend_header\n0 0\n"},
		{"unknown type", "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n"},
		{"truncated body", valid + "0 0 0\n1 0 0\n"},
		{"index out of range", valid + "0 0 0\n1 0 0\n0 1 0\n3 0 1 7\n"},
		{"degenerate face", valid + "0 0 0\n1 0 0\n0 1 0\n2 0 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePLY(strings.NewReader(tt.src), material.Default()); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadPLY_NamesMeshAfterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square.ply")
	if err := os.WriteFile(path, createTestPLY(binary.LittleEndian, "binary_little_endian", false, false), 0644); err != nil {
		t.Fatalf("Failed to write PLY: %v", err)
	}

	mesh, err := LoadPLY(path, material.Diffuse(core.Red))
	if err != nil {
		t.Fatalf("LoadPLY failed: %v", err)
	}
	if mesh.Name != "square" {
		t.Errorf("Expected mesh name square, got %q", mesh.Name)
	}
	if mesh.Material.Color != core.Red {
		t.Errorf("Expected red material, got %v", mesh.Material.Color)
	}

	if _, err := LoadPLY(filepath.Join(t.TempDir(), "missing.ply"), material.Default()); err == nil {
		t.Error("Expected error for a missing file")
	}
}
