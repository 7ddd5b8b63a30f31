// Package imageio writes rendered images and compares them against references.
package imageio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"github.com/df07/go-caustic-raytracer/pkg/core"
)

// jpegQuality is used for .jpg output
const jpegQuality = 95

// Format is an output encoding
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WebP Format = "webp"
)

// FormatFromPath picks the encoding from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".webp":
		return WebP, nil
	}
	return "", fmt.Errorf("unsupported image extension %q (want .png, .jpg or .webp)", filepath.Ext(path))
}

// Encode writes img to w in the given format
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case WebP:
		return nativewebp.Encode(w, img, nil)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// Save encodes img to path, creating parent directories. The format follows the extension.
func Save(path string, img image.Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("imageio: create dir for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: create %s: %w", path, err)
	}
	defer f.Close()

	if err := Encode(f, img, format); err != nil {
		return fmt.Errorf("imageio: encode %s: %w", path, err)
	}
	return nil
}

// Downscale shrinks img so its longer side is at most maxSide, keeping the
// aspect ratio. Smaller images are returned unchanged.
func Downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}

	var dw, dh int
	if w >= h {
		dw, dh = maxSide, max(1, h*maxSide/w)
	} else {
		dw, dh = max(1, w*maxSide/h), maxSide
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// DiffStats summarizes the per-pixel difference between two images
type DiffStats struct {
	Pixels        int     // Pixels compared
	MaxDelta      int     // Largest channel difference anywhere
	OverThreshold int     // Pixels whose largest channel difference exceeds the threshold
	MeanDelta     float64 // Mean of the per-pixel largest channel difference
}

// Compare diffs two images of the same size, aligned at their top-left corners
func Compare(a, b image.Image, threshold int) (DiffStats, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return DiffStats{}, fmt.Errorf("image sizes differ: %dx%d vs %dx%d", ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}

	stats := DiffStats{Pixels: ab.Dx() * ab.Dy()}
	sum := 0
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			d := core.MaxChannelDelta(
				toColor(a, ab.Min.X+x, ab.Min.Y+y),
				toColor(b, bb.Min.X+x, bb.Min.Y+y))
			sum += d
			stats.MaxDelta = max(stats.MaxDelta, d)
			if d > threshold {
				stats.OverThreshold++
			}
		}
	}
	if stats.Pixels > 0 {
		stats.MeanDelta = float64(sum) / float64(stats.Pixels)
	}
	return stats, nil
}

func toColor(img image.Image, x, y int) core.Color {
	r, g, b, _ := img.At(x, y).RGBA()
	return core.NewColor(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
