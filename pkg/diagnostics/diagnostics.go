// Package diagnostics writes the per-render timing report together with a
// description of the host that produced it.
package diagnostics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/df07/go-caustic-raytracer/pkg/renderer"
)

// Host describes the machine a render ran on
type Host struct {
	CPUModel     string
	CPUMhz       float64
	LogicalCores int
	TotalMemory  uint64 // bytes
	GOOS         string
	GOARCH       string
}

// CollectHost queries CPU and memory information. Fields that cannot be
// read are left zero; the error reports the first failure.
func CollectHost() (Host, error) {
	h := Host{
		LogicalCores: runtime.NumCPU(),
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
	}

	var firstErr error
	if info, err := cpu.Info(); err != nil {
		firstErr = fmt.Errorf("cpu info: %w", err)
	} else if len(info) > 0 {
		h.CPUModel = strings.TrimSpace(info[0].ModelName)
		h.CPUMhz = info[0].Mhz
	}

	if n, err := cpu.Counts(true); err == nil && n > 0 {
		h.LogicalCores = n
	} else if err != nil && firstErr == nil {
		firstErr = fmt.Errorf("cpu counts: %w", err)
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("memory info: %w", err)
		}
	} else {
		h.TotalMemory = vm.Total
	}

	return h, firstErr
}

// Report is everything written to time.txt after a render
type Report struct {
	Scene   string
	Options renderer.Options
	Timings renderer.Timings
	Stats   renderer.RenderStats
	Host    *Host // nil omits the host section
}

// WriteText writes the timing lines first so the file stays readable by
// tools that only expect those, followed by render and host details.
func (r Report) WriteText(w io.Writer) error {
	var b strings.Builder
	b.WriteString(r.Timings.String())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "scene: %s\n", r.Scene)
	fmt.Fprintf(&b, "depth: %d\n", r.Options.Depth)
	fmt.Fprintf(&b, "scatteredRays: %t\n", r.Options.ScatteredRaysActive)
	fmt.Fprintf(&b, "forwardTracing: %t\n", r.Options.ForwardTracingActive)
	fmt.Fprintf(&b, "edgeAA: %t\n", r.Options.EdgeAADetectionActive)
	fmt.Fprintf(&b, "postProcessAA: %t\n", r.Options.PostProcessAADetectionActive)
	fmt.Fprintf(&b, "supersampling: %d\n", r.Options.SupersamplingResolution)
	fmt.Fprintf(&b, "pixels: %d\n", r.Stats.Pixels)
	fmt.Fprintf(&b, "edgeSupersampled: %d\n", r.Stats.EdgeSupersampled)
	fmt.Fprintf(&b, "postSupersampled: %d\n", r.Stats.PostSupersampled)
	fmt.Fprintf(&b, "photons: %d\n", r.Stats.Photons)

	if r.Host != nil {
		b.WriteString("\n")
		fmt.Fprintf(&b, "cpu: %s\n", r.Host.CPUModel)
		fmt.Fprintf(&b, "cpuMhz: %.0f\n", r.Host.CPUMhz)
		fmt.Fprintf(&b, "cores: %d\n", r.Host.LogicalCores)
		fmt.Fprintf(&b, "memoryGB: %.1f\n", float64(r.Host.TotalMemory)/(1<<30))
		fmt.Fprintf(&b, "platform: %s/%s\n", r.Host.GOOS, r.Host.GOARCH)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile writes the report to path, creating parent directories
func (r Report) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("diagnostics: create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("diagnostics: create %s: %w", path, err)
	}
	defer f.Close()

	if err := r.WriteText(f); err != nil {
		return fmt.Errorf("diagnostics: write %s: %w", path, err)
	}
	return nil
}
