package loaders

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"

	"github.com/df07/go-caustic-raytracer/pkg/core"
)

// ImageData contains a decoded image as 8-bit RGB pixels in row-major order
type ImageData struct {
	Width  int
	Height int
	Format string // "png", "jpeg" or "tga"
	Pixels []core.Color
}

// LoadImage loads a PNG, JPEG or TGA image, e.g. a reference render to compare against
func LoadImage(filename string) (*ImageData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	format, decode, err := decoderFor(filename)
	if err != nil {
		return nil, err
	}
	img, err := decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filename, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pixels := make([]core.Color, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535]
			pixels[y*width+x] = core.NewColor(uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}

	return &ImageData{
		Width:  width,
		Height: height,
		Format: format,
		Pixels: pixels,
	}, nil
}

// decoderFor picks the decoder from the file extension. The TGA format has no
// magic number, so image.Decode cannot tell it apart from PNG or JPEG.
func decoderFor(filename string) (string, func(io.Reader) (image.Image, error), error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".png":
		return "png", png.Decode, nil
	case ".jpg", ".jpeg":
		return "jpeg", jpeg.Decode, nil
	case ".tga":
		return "tga", tga.Decode, nil
	default:
		return "", nil, fmt.Errorf("unsupported image format %q for %s", ext, filename)
	}
}

// At returns the pixel at (x, y)
func (d *ImageData) At(x, y int) core.Color {
	return d.Pixels[y*d.Width+x]
}

// RGBA converts the pixels back to an opaque image
func (d *ImageData) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, d.Width, d.Height))
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			img.SetRGBA(x, y, d.At(x, y).RGBA())
		}
	}
	return img
}
