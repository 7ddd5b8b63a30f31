package renderer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/df07/go-caustic-raytracer/pkg/core"
)

// Options contains every render setting. JSON names match the option names used
// by scene and options files.
type Options struct {
	Depth                        int  `json:"depth"`                        // Maximum recursion depth
	ScatteredRaysActive          bool `json:"scatteredRaysActive"`          // Hemispherical diffuse fan instead of flat ambient
	ForwardTracingActive         bool `json:"forwardTracingActive"`         // Caustic photon pass and lightmap reads
	EdgeAADetectionActive        bool `json:"edgeAADetectionActive"`        // Geometry edge pre-pass
	PostProcessAADetectionActive bool `json:"postProcessAADetectionActive"` // Color edge pass after the primary render

	TextureResolution         int `json:"textureResolution"`         // Lightmap side length in texels
	SpotSize                  int `json:"spotSize"`                  // Photon splat radius in texels
	InterpolationSize         int `json:"interpolationSize"`         // Lightmap box filter radius in texels
	ForwardShootingResolution int `json:"forwardShootingResolution"` // Photon grid side per (light, object) pair
	PostAAThreshold           int `json:"postAAThreshold"`           // Channel delta that marks a color edge
	SupersamplingResolution   int `json:"supersamplingResolution"`   // N for the NxN sub-ray grid

	Workers         int        `json:"workers"`         // Worker goroutines; 0 means runtime.NumCPU()
	DiffuseRings    int        `json:"diffuseRings"`    // Rings in the diffuse fan
	DiffuseAzimuths int        `json:"diffuseAzimuths"` // Samples per ring in the diffuse fan
	FalloffDistance float64    `json:"falloffDistance"` // Distance at which light reaches zero
	Ambient         core.Color `json:"ambient"`         // Background and flat ambient color
}

// DefaultOptions returns the stock render settings. All optional passes start disabled.
func DefaultOptions() Options {
	return Options{
		Depth:                     3,
		TextureResolution:         512,
		SpotSize:                  2,
		InterpolationSize:         4,
		ForwardShootingResolution: 16,
		PostAAThreshold:           15,
		SupersamplingResolution:   5,
		DiffuseRings:              2,
		DiffuseAzimuths:           4,
		FalloffDistance:           800,
		Ambient:                   core.DarkGray,
	}
}

// Validate reports the first setting that cannot be rendered
func (o Options) Validate() error {
	switch {
	case o.Depth < 0:
		return fmt.Errorf("depth must be >= 0, got %d", o.Depth)
	case o.TextureResolution <= 0:
		return fmt.Errorf("textureResolution must be > 0, got %d", o.TextureResolution)
	case o.SpotSize < 0:
		return fmt.Errorf("spotSize must be >= 0, got %d", o.SpotSize)
	case o.InterpolationSize < 0:
		return fmt.Errorf("interpolationSize must be >= 0, got %d", o.InterpolationSize)
	case o.ForwardShootingResolution <= 0:
		return fmt.Errorf("forwardShootingResolution must be > 0, got %d", o.ForwardShootingResolution)
	case o.PostAAThreshold < 0 || o.PostAAThreshold > 255:
		return fmt.Errorf("postAAThreshold must be in [0, 255], got %d", o.PostAAThreshold)
	case o.SupersamplingResolution <= 0:
		return fmt.Errorf("supersamplingResolution must be > 0, got %d", o.SupersamplingResolution)
	case o.Workers < 0:
		return fmt.Errorf("workers must be >= 0, got %d", o.Workers)
	case o.DiffuseRings < 0 || o.DiffuseAzimuths < 0:
		return fmt.Errorf("diffuse fan must have non-negative rings and azimuths, got %d x %d", o.DiffuseRings, o.DiffuseAzimuths)
	case o.FalloffDistance <= 0:
		return fmt.Errorf("falloffDistance must be > 0, got %g", o.FalloffDistance)
	}
	return nil
}

// LoadOptions reads a JSON options file on top of DefaultOptions; fields missing
// from the file keep their defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("options: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("options: parse %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("options: %s: %w", path, err)
	}
	return opts, nil
}
