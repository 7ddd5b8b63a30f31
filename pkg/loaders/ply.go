package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/geometry"
	"github.com/df07/go-caustic-raytracer/pkg/material"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format   string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version  string // Usually "1.0"
	Elements []PLYElement
}

// PLYElement is one element block (vertex, face, or anything else) in file order
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// element returns the named element, or nil
func (h *PLYHeader) element(name string) *PLYElement {
	for i := range h.Elements {
		if h.Elements[i].Name == name {
			return &h.Elements[i]
		}
	}
	return nil
}

// LoadPLY loads a PLY model as a single mesh with the given material
func LoadPLY(filename string, mat material.Material) (*geometry.Mesh, error) {
	startTime := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	mesh, err := ParsePLY(file, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY file %s: %w", filename, err)
	}
	mesh.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	fmt.Printf("✅ Loaded PLY mesh %q: %d vertices, %d faces in %v\n",
		mesh.Name, len(mesh.Vertices), len(mesh.Faces), time.Since(startTime))
	return mesh, nil
}

// ParsePLY reads an ascii or binary PLY stream. Vertices take their x, y, z
// properties; faces may have any number of vertices. Other properties and
// elements are skipped, and face normals come from the winding.
func ParsePLY(r io.Reader, mat material.Material) (*geometry.Mesh, error) {
	br := bufio.NewReader(r)
	header, err := parsePLYHeader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "ascii":
		s := bufio.NewScanner(br)
		s.Split(bufio.ScanWords)
		values = &asciiPLYReader{scanner: s}
	case "binary_little_endian":
		values = &binaryPLYReader{r: br, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryPLYReader{r: br, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}

	mesh := geometry.NewMesh("ply", mat)
	for _, el := range header.Elements {
		for i := 0; i < el.Count; i++ {
			if err := readPLYElement(values, el, i, mesh); err != nil {
				return nil, err
			}
		}
	}
	return mesh, nil
}

// readPLYElement reads instance i of el, adding vertices and faces to mesh
func readPLYElement(values plyValueReader, el PLYElement, i int, mesh *geometry.Mesh) error {
	var pos [3]float64
	var indices []int

	for _, prop := range el.Props {
		if prop.IsList {
			n, err := values.read(prop.ListType)
			if err != nil {
				return fmt.Errorf("%s %d: failed to read %s count: %w", el.Name, i, prop.Name, err)
			}
			isIndexList := el.Name == "face" && (prop.Name == "vertex_indices" || prop.Name == "vertex_index")
			for k := 0; k < int(n); k++ {
				v, err := values.read(prop.DataType)
				if err != nil {
					return fmt.Errorf("%s %d: failed to read %s: %w", el.Name, i, prop.Name, err)
				}
				if isIndexList {
					indices = append(indices, int(v))
				}
			}
			continue
		}

		v, err := values.read(prop.Type)
		if err != nil {
			return fmt.Errorf("%s %d: failed to read %s: %w", el.Name, i, prop.Name, err)
		}
		if el.Name == "vertex" {
			switch prop.Name {
			case "x":
				pos[0] = v
			case "y":
				pos[1] = v
			case "z":
				pos[2] = v
			}
		}
	}

	switch el.Name {
	case "vertex":
		mesh.AddVertex(core.NewVec3(pos[0], pos[1], pos[2]))
	case "face":
		if err := mesh.AddFace(indices...); err != nil {
			return fmt.Errorf("face %d: %w", i, err)
		}
	}
	return nil
}

// parsePLYHeader reads up to and including end_header, leaving br at the body
func parsePLYHeader(br *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}

	magic, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("missing ply magic number")
	}

	for {
		raw, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header ended before end_header: %w", err)
		}
		parts := strings.Fields(raw)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			return header, validatePLYHeader(header)
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line: %q", strings.TrimSpace(raw))
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", strings.TrimSpace(raw))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("property before any element")
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			last := &header.Elements[len(header.Elements)-1]
			last.Props = append(last.Props, prop)
		default:
			return nil, fmt.Errorf("unknown header keyword %q", parts[0])
		}
	}
}

// validatePLYHeader checks the vertex element carries positions
func validatePLYHeader(h *PLYHeader) error {
	vertex := h.element("vertex")
	if vertex == nil {
		return fmt.Errorf("no vertex element")
	}
	found := 0
	for _, p := range vertex.Props {
		if !p.IsList && (p.Name == "x" || p.Name == "y" || p.Name == "z") {
			found++
		}
	}
	if found != 3 {
		return fmt.Errorf("vertex element needs x, y and z properties")
	}
	return nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		prop := PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}
		if getTypeSize(prop.ListType) == 0 || getTypeSize(prop.DataType) == 0 {
			return PLYProperty{}, fmt.Errorf("unsupported list types %s %s", prop.ListType, prop.DataType)
		}
		return prop, nil
	}

	if getTypeSize(parts[0]) == 0 {
		return PLYProperty{}, fmt.Errorf("unsupported property type %s", parts[0])
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

// getTypeSize returns the byte size of a PLY scalar type, 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	}
	return 0
}

// plyValueReader reads one scalar of a PLY type from the body
type plyValueReader interface {
	read(dataType string) (float64, error)
}

type asciiPLYReader struct {
	scanner *bufio.Scanner
}

func (r *asciiPLYReader) read(dataType string) (float64, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(r.scanner.Text(), 64)
}

type binaryPLYReader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (r *binaryPLYReader) read(dataType string) (float64, error) {
	b := r.buf[:getTypeSize(dataType)]
	if _, err := io.ReadFull(r.r, b); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(b[0])), nil
	case "uchar", "uint8":
		return float64(b[0]), nil
	case "short", "int16":
		return float64(int16(r.order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(r.order.Uint16(b)), nil
	case "int", "int32":
		return float64(int32(r.order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(r.order.Uint32(b)), nil
	case "float", "float32":
		return float64(math.Float32frombits(r.order.Uint32(b))), nil
	case "double", "float64":
		return math.Float64frombits(r.order.Uint64(b)), nil
	}
	return 0, fmt.Errorf("unsupported PLY type %q", dataType)
}
