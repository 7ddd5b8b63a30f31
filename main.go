package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-caustic-raytracer/pkg/diagnostics"
	"github.com/df07/go-caustic-raytracer/pkg/imageio"
	"github.com/df07/go-caustic-raytracer/pkg/loaders"
	"github.com/df07/go-caustic-raytracer/pkg/renderer"
	"github.com/df07/go-caustic-raytracer/pkg/scene"
)

const scenesDir = "scenes"

// cliConfig holds everything parsed from the command line
type cliConfig struct {
	sceneName   string
	sceneFile   string
	optionsFile string
	out         string
	reference   string
	viewport    string
	preview     int
	timings     bool
	help        bool
	opts        renderer.Options
}

// optionFlags copies one render option from the flag values to the loaded options.
// Only flags the user set explicitly are copied, so they win over an options file.
var optionFlags = map[string]func(dst *renderer.Options, src renderer.Options){
	"depth":          func(d *renderer.Options, s renderer.Options) { d.Depth = s.Depth },
	"scattered":      func(d *renderer.Options, s renderer.Options) { d.ScatteredRaysActive = s.ScatteredRaysActive },
	"caustics":       func(d *renderer.Options, s renderer.Options) { d.ForwardTracingActive = s.ForwardTracingActive },
	"edge-aa":        func(d *renderer.Options, s renderer.Options) { d.EdgeAADetectionActive = s.EdgeAADetectionActive },
	"post-aa":        func(d *renderer.Options, s renderer.Options) { d.PostProcessAADetectionActive = s.PostProcessAADetectionActive },
	"texture-res":    func(d *renderer.Options, s renderer.Options) { d.TextureResolution = s.TextureResolution },
	"spot-size":      func(d *renderer.Options, s renderer.Options) { d.SpotSize = s.SpotSize },
	"interp-size":    func(d *renderer.Options, s renderer.Options) { d.InterpolationSize = s.InterpolationSize },
	"shoot-res":      func(d *renderer.Options, s renderer.Options) { d.ForwardShootingResolution = s.ForwardShootingResolution },
	"post-threshold": func(d *renderer.Options, s renderer.Options) { d.PostAAThreshold = s.PostAAThreshold },
	"ss-res":         func(d *renderer.Options, s renderer.Options) { d.SupersamplingResolution = s.SupersamplingResolution },
	"workers":        func(d *renderer.Options, s renderer.Options) { d.Workers = s.Workers },
}

// parseArgs parses the command line. Render options start from the defaults,
// are replaced by -options when given, and explicit flags are applied last.
func parseArgs(args []string) (*cliConfig, *flag.FlagSet, error) {
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	cfg := &cliConfig{}
	fo := renderer.DefaultOptions()

	fs.StringVar(&cfg.sceneName, "scene", "room", "Scene: built-in name ("+strings.Join(scene.Names(), ", ")+"), file:<name> from scenes/, or a .json path")
	fs.StringVar(&cfg.sceneFile, "scene-file", "", "Path to a JSON scene description (overrides -scene)")
	fs.StringVar(&cfg.optionsFile, "options", "", "Path to a JSON render options file")
	fs.StringVar(&cfg.out, "out", "", "Output image path (.png, .jpg or .webp); default output/<scene>/render_<timestamp>.png")
	fs.StringVar(&cfg.reference, "reference", "", "Reference image to compare the render against")
	fs.StringVar(&cfg.viewport, "viewport", "", "Render only x0,y0,x1,y1 of the image")
	fs.IntVar(&cfg.preview, "preview", 0, "Also write a preview scaled to this many pixels on the long side (0 disables)")
	fs.BoolVar(&cfg.timings, "timings", true, "Write time.txt next to the image")
	fs.BoolVar(&cfg.help, "help", false, "Show help information")

	fs.IntVar(&fo.Depth, "depth", fo.Depth, "Maximum recursion depth")
	fs.BoolVar(&fo.ScatteredRaysActive, "scattered", fo.ScatteredRaysActive, "Cast the scattered diffuse fan")
	fs.BoolVar(&fo.ForwardTracingActive, "caustics", fo.ForwardTracingActive, "Run the forward caustic photon pass")
	fs.BoolVar(&fo.EdgeAADetectionActive, "edge-aa", fo.EdgeAADetectionActive, "Supersample pixels on geometric edges")
	fs.BoolVar(&fo.PostProcessAADetectionActive, "post-aa", fo.PostProcessAADetectionActive, "Supersample pixels on color edges after rendering")
	fs.IntVar(&fo.TextureResolution, "texture-res", fo.TextureResolution, "Caustic lightmap resolution per polygon")
	fs.IntVar(&fo.SpotSize, "spot-size", fo.SpotSize, "Photon splat radius in texels")
	fs.IntVar(&fo.InterpolationSize, "interp-size", fo.InterpolationSize, "Lightmap read-back filter radius in texels")
	fs.IntVar(&fo.ForwardShootingResolution, "shoot-res", fo.ForwardShootingResolution, "Photon grid resolution per light and target")
	fs.IntVar(&fo.PostAAThreshold, "post-threshold", fo.PostAAThreshold, "Channel difference that marks a color edge (0-255)")
	fs.IntVar(&fo.SupersamplingResolution, "ss-res", fo.SupersamplingResolution, "Supersampling grid size per axis")
	fs.IntVar(&fo.Workers, "workers", fo.Workers, "Number of worker goroutines (0 = auto-detect)")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}

	cfg.opts = fo
	if cfg.optionsFile != "" {
		loaded, err := renderer.LoadOptions(cfg.optionsFile)
		if err != nil {
			return nil, fs, err
		}
		fs.Visit(func(f *flag.Flag) {
			if apply, ok := optionFlags[f.Name]; ok {
				apply(&loaded, fo)
			}
		})
		cfg.opts = loaded
	}

	if err := cfg.opts.Validate(); err != nil {
		return nil, fs, fmt.Errorf("invalid render options: %w", err)
	}
	return cfg, fs, nil
}

func printHelp(fs *flag.FlagSet) {
	fmt.Println("Caustic Raytracer")
	fmt.Println("Usage: raytracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	fs.SetOutput(os.Stdout)
	fs.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	fmt.Println("  room  - Mirror cube, red glass cube and two spheres in a colored room")
	fmt.Println("  glass - Two colored lights, a tilted mirror and glass spheres")
	fmt.Println("  plane - Single diffuse floor under one light")
	fmt.Println("  file:<name> - scenes/<name>.json")
	fmt.Println()
	fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.png")
}

func main() {
	cfg, fs, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(2)
	}
	if cfg.help {
		printHelp(fs)
		return
	}

	fmt.Println("Starting Caustic Raytracer...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *cliConfig) error {
	sceneSource := cfg.sceneName
	if cfg.sceneFile != "" {
		sceneSource = cfg.sceneFile
	}
	selectedScene, err := createScene(sceneSource)
	if err != nil {
		return err
	}
	if cfg.viewport != "" {
		viewport, err := parseViewport(cfg.viewport)
		if err != nil {
			return err
		}
		selectedScene.CameraConfig.Viewport = viewport
	}

	fmt.Printf("Using scene %s (%d polygons, %d spheres, %d lights)\n", selectedScene.Name,
		selectedScene.PolygonCount(), len(selectedScene.Spheres), len(selectedScene.Lights))

	r, err := renderer.NewRenderer(selectedScene, cfg.opts, renderer.NewDefaultLogger())
	if err != nil {
		return err
	}

	result, err := renderWithProgress(ctx, r)
	if err != nil {
		return err
	}
	fmt.Printf("Render completed in %v\n", result.Timings.Total)
	fmt.Printf("Supersampled pixels: %d on edges, %d in post-process; photons: %d\n",
		result.Stats.EdgeSupersampled, result.Stats.PostSupersampled, result.Stats.Photons)

	timestamp := time.Now().Format("20060102_150405")
	filename := cfg.out
	if filename == "" {
		filename = filepath.Join(createOutputDir(sceneSource), fmt.Sprintf("render_%s.png", timestamp))
	}
	if err := imageio.Save(filename, result.Image); err != nil {
		return err
	}
	fmt.Printf("Render saved as %s\n", filename)

	if cfg.preview > 0 {
		previewName := filepath.Join(filepath.Dir(filename), fmt.Sprintf("preview_%s.png", timestamp))
		if err := imageio.Save(previewName, imageio.Downscale(result.Image, cfg.preview)); err != nil {
			return err
		}
		fmt.Printf("Preview saved as %s\n", previewName)
	}

	if cfg.timings {
		report := diagnostics.Report{
			Scene:   selectedScene.Name,
			Options: cfg.opts,
			Timings: result.Timings,
			Stats:   result.Stats,
		}
		host, err := diagnostics.CollectHost()
		if err != nil {
			fmt.Printf("Warning: incomplete host info: %v\n", err)
		}
		report.Host = &host
		timingsFile := filepath.Join(filepath.Dir(filename), "time.txt")
		if err := report.WriteFile(timingsFile); err != nil {
			return err
		}
		fmt.Printf("Timings saved as %s\n", timingsFile)
	}

	if cfg.reference != "" {
		ref, err := loaders.LoadImage(cfg.reference)
		if err != nil {
			return err
		}
		diff, err := imageio.Compare(result.Image, ref.RGBA(), cfg.opts.PostAAThreshold)
		if err != nil {
			return fmt.Errorf("compare with %s: %w", cfg.reference, err)
		}
		fmt.Printf("Reference %s: max delta %d, mean delta %.2f, %d of %d pixels over %d\n",
			cfg.reference, diff.MaxDelta, diff.MeanDelta, diff.OverThreshold, diff.Pixels, cfg.opts.PostAAThreshold)
	}

	return nil
}

// renderWithProgress prints a line each time a phase advances by a tenth
func renderWithProgress(ctx context.Context, r *renderer.Renderer) (*renderer.Result, error) {
	progressChan, resultChan, errChan := r.RenderAsync(ctx)

	lastPhase, lastStep := "", -1
	for p := range progressChan {
		step := int(p.Fraction * 10)
		if p.Phase == lastPhase && step == lastStep {
			continue
		}
		lastPhase, lastStep = p.Phase, step
		fmt.Printf("  %-12s %3d%%  (%v)\n", p.Phase, step*10, p.Elapsed.Round(time.Millisecond))
	}

	if err, ok := <-errChan; ok && err != nil {
		return nil, err
	}
	result, ok := <-resultChan
	if !ok || result == nil {
		return nil, fmt.Errorf("render finished without a result")
	}
	return result, nil
}

// createScene resolves a scene name: a built-in name, file:<name> from the
// scenes directory, or a path to a JSON scene file
func createScene(sceneType string) (*scene.Scene, error) {
	if sceneType == "" {
		return nil, fmt.Errorf("no scene given")
	}
	if strings.EqualFold(filepath.Ext(sceneType), ".json") {
		return scene.LoadSceneFile(sceneType)
	}
	return scene.Resolve(sceneType, scenesDir)
}

// createOutputDir names the output directory for a scene: output/<base name>
func createOutputDir(sceneType string) string {
	name := strings.TrimPrefix(sceneType, "file:")
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "" || name == "." {
		name = "scene"
	}
	return filepath.Join("output", name)
}

// parseViewport reads "x0,y0,x1,y1"
func parseViewport(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("viewport must be x0,y0,x1,y1, got %q", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid viewport coordinate %q: %w", p, err)
		}
		v[i] = n
	}
	r := image.Rect(v[0], v[1], v[2], v[3])
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("viewport %v is empty", r)
	}
	return r, nil
}
