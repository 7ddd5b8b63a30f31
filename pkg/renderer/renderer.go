package renderer

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/lightmap"
	"github.com/df07/go-caustic-raytracer/pkg/scene"
)

// DefaultLogger implements core.Logger using standard output
type DefaultLogger struct{}

// Printf implements the core.Logger interface
func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Phase names reported in Progress
const (
	PhaseEdgeDetection   = "edges"
	PhaseForwardTracing  = "caustics"
	PhaseBackwardTracing = "backward"
	PhasePostProcess     = "postprocess"
)

// Progress reports how far the current phase and the whole render have come
type Progress struct {
	Phase    string
	Fraction float64       // Share of the phase completed, in [0, 1]
	Overall  float64       // Share of the render completed, in [0, 1]; every active phase weighs the same
	Elapsed  time.Duration // Since the render started
}

// Result is a finished render
type Result struct {
	Image   *image.RGBA
	Timings Timings
	Stats   RenderStats
}

// Renderer runs the full pipeline for one scene: edge pre-pass, caustic photon
// pass, backward pass, then the color-edge post-process pass
type Renderer struct {
	scene  *scene.Scene
	opts   Options
	logger core.Logger
	camera *Camera
}

// NewRenderer validates opts and prepares a renderer for s
func NewRenderer(s *scene.Scene, opts Options, logger core.Logger) (*Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid render options: %w", err)
	}
	if logger == nil {
		logger = core.NopLogger{}
	}

	camera := NewCamera(s.CameraConfig)
	if camera.Viewport.Empty() {
		return nil, fmt.Errorf("empty viewport %v for %dx%d image", s.CameraConfig.Viewport, s.CameraConfig.Width, s.CameraConfig.Height)
	}
	if err := s.Preprocess(); err != nil {
		return nil, fmt.Errorf("failed to preprocess scene: %w", err)
	}

	return &Renderer{scene: s, opts: opts, logger: logger, camera: camera}, nil
}

// Camera returns the camera rays are generated from
func (r *Renderer) Camera() *Camera { return r.camera }

// Options returns the validated render options
func (r *Renderer) Options() Options { return r.opts }

// Render runs every phase to completion and returns the image
func (r *Renderer) Render(ctx context.Context) (*Result, error) {
	return r.render(ctx, nil)
}

// RenderAsync renders in the background. Progress events are dropped rather
// than blocking the render when the consumer falls behind. Exactly one of the
// result and error channels receives a value; all three are then closed.
func (r *Renderer) RenderAsync(ctx context.Context) (<-chan Progress, <-chan *Result, <-chan error) {
	progressChan := make(chan Progress, 64)
	resultChan := make(chan *Result, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(progressChan)
		defer close(resultChan)
		defer close(errChan)

		result, err := r.render(ctx, func(p Progress) {
			select {
			case progressChan <- p:
			default:
				// Consumer is behind; the next event supersedes this one
			}
		})
		if err != nil {
			errChan <- err
			return
		}
		resultChan <- result
	}()

	return progressChan, resultChan, errChan
}

// render is the single writer of progress: report is only ever called from this goroutine
func (r *Renderer) render(ctx context.Context, report func(Progress)) (*Result, error) {
	start := time.Now()
	bounds := r.camera.Viewport
	fb := NewFramebuffer(bounds)
	stats := RenderStats{Pixels: bounds.Dx() * bounds.Dy()}
	var timings Timings

	phases := r.activePhases()
	notify := func(phase string, fraction float64) {
		if report != nil {
			report(Progress{
				Phase:    phase,
				Fraction: fraction,
				Overall:  overallFraction(phases, phase, fraction),
				Elapsed:  time.Since(start),
			})
		}
	}

	r.logger.Printf("Rendering %s (%dx%d, viewport %v, depth %d)...\n",
		r.scene.Name, r.camera.Width, r.camera.Height, bounds, r.opts.Depth)

	// Edge pre-pass
	phaseStart := time.Now()
	var edges *Mask
	if r.opts.EdgeAADetectionActive {
		notify(PhaseEdgeDetection, 0)
		mask, err := DetectEdges(ctx, r.scene, r.camera)
		if err != nil {
			r.logger.Printf("Rendering cancelled during edge detection\n")
			return nil, err
		}
		edges = mask
		notify(PhaseEdgeDetection, 1)
		r.logger.Printf("Edge detection marked %d pixels in %v\n", edges.Count(), time.Since(phaseStart))
	}
	timings.EdgeDetection = time.Since(phaseStart)

	// Forward caustic pass; the pool drains before the lightmaps are published
	phaseStart = time.Now()
	var lightmaps *lightmap.Set
	if r.opts.ForwardTracingActive {
		lightmaps = lightmap.NewSet(r.scene.FaceCounts(), r.opts.TextureResolution)
		photons, err := r.traceCaustics(ctx, lightmaps, notify)
		stats.Photons = photons
		if err != nil {
			r.logger.Printf("Rendering cancelled during caustic tracing\n")
			return nil, err
		}
		r.logger.Printf("Forward tracing shot %d photons into %d lightmaps in %v\n",
			photons, lightmaps.Len(), time.Since(phaseStart))
	}
	timings.ForwardTracing = time.Since(phaseStart)

	rt := NewRaytracer(r.scene, r.opts, lightmaps)

	// Backward pass
	phaseStart = time.Now()
	var edgeSupersampled atomic.Int64
	err := r.runRows(ctx, PhaseBackwardTracing, notify, func(y int) {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if edges != nil && edges.Marked(x, y) {
				fb.Set(x, y, Supersample(rt, r.camera, x, y, r.opts.SupersamplingResolution, r.opts.Depth))
				edgeSupersampled.Add(1)
				continue
			}
			ray := r.camera.Ray(x, y)
			fb.Set(x, y, rt.Cast(ray.Origin, ray.Direction, r.opts.Depth))
		}
	})
	if err != nil {
		r.logger.Printf("Rendering cancelled during backward tracing\n")
		return nil, err
	}
	stats.EdgeSupersampled = int(edgeSupersampled.Load())
	timings.BackwardTracing = time.Since(phaseStart)
	r.logger.Printf("Backward tracing finished in %v (%d pixels supersampled)\n",
		timings.BackwardTracing, stats.EdgeSupersampled)

	// Post-process pass: detect on the finished image, then resample in place
	phaseStart = time.Now()
	if r.opts.PostProcessAADetectionActive {
		marked := DetectColorEdges(fb, r.opts.PostAAThreshold)
		stats.PostSupersampled = marked.Count()
		err := r.runRows(ctx, PhasePostProcess, notify, func(y int) {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				if marked.Marked(x, y) {
					fb.Set(x, y, Supersample(rt, r.camera, x, y, r.opts.SupersamplingResolution, r.opts.Depth))
				}
			}
		})
		if err != nil {
			r.logger.Printf("Rendering cancelled during post-process\n")
			return nil, err
		}
		r.logger.Printf("Post-process resampled %d pixels in %v\n", stats.PostSupersampled, time.Since(phaseStart))
	}
	timings.PostProcess = time.Since(phaseStart)
	timings.Total = time.Since(start)

	r.logger.Printf("Render completed in %v\n", timings.Total)

	return &Result{Image: fb.Image(), Timings: timings, Stats: stats}, nil
}

// activePhases lists the phases the options enable, in run order
func (r *Renderer) activePhases() []string {
	var phases []string
	if r.opts.EdgeAADetectionActive {
		phases = append(phases, PhaseEdgeDetection)
	}
	if r.opts.ForwardTracingActive {
		phases = append(phases, PhaseForwardTracing)
	}
	phases = append(phases, PhaseBackwardTracing)
	if r.opts.PostProcessAADetectionActive {
		phases = append(phases, PhasePostProcess)
	}
	return phases
}

// overallFraction maps a phase fraction onto the whole render, giving each of
// phases an equal share. An unknown phase reports 0.
func overallFraction(phases []string, phase string, fraction float64) float64 {
	for i, p := range phases {
		if p == phase {
			return (float64(i) + min(max(fraction, 0), 1)) / float64(len(phases))
		}
	}
	return 0
}

// traceCaustics runs the photon jobs on the worker pool and publishes the
// lightmaps once every job has finished
func (r *Renderer) traceCaustics(ctx context.Context, lightmaps *lightmap.Set, notify func(string, float64)) (int, error) {
	tracer := NewCausticTracer(r.scene, r.opts, lightmaps)
	tasks := tracer.Tasks()

	photons, done := 0, 0
	notify(PhaseForwardTracing, 0)
	err := runTasks(ctx, r.opts.Workers, tasks, func(result TaskResult) {
		photons += result.Count
		done++
		notify(PhaseForwardTracing, float64(done)/float64(len(tasks)))
	})
	if err != nil {
		return photons, err
	}

	lightmaps.PublishAll()
	return photons, nil
}

// runRows runs renderRow for every viewport row on the worker pool
func (r *Renderer) runRows(ctx context.Context, phase string, notify func(string, float64), renderRow func(y int)) error {
	bounds := r.camera.Viewport
	tasks := make([]Task, 0, bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		tasks = append(tasks, Task{
			ID: y,
			Run: func(ctx context.Context) (int, error) {
				renderRow(y)
				return bounds.Dx(), nil
			},
		})
	}

	rowsDone := 0
	notify(phase, 0)
	return runTasks(ctx, r.opts.Workers, tasks, func(result TaskResult) {
		if result.Error == nil {
			rowsDone++
		}
		notify(phase, float64(rowsDone)/float64(len(tasks)))
	})
}
