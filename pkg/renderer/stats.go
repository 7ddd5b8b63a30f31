package renderer

import (
	"fmt"
	"time"
)

// Timings records how long each render phase took
type Timings struct {
	EdgeDetection   time.Duration
	ForwardTracing  time.Duration
	BackwardTracing time.Duration
	PostProcess     time.Duration
	Total           time.Duration
}

// String formats the timings as the time.txt report, one phase per line
func (t Timings) String() string {
	return fmt.Sprintf("edgespreprocess: %s\nforwardTracing: %s\nbackwardTracing: %s\npostProcess: %s\nTotal: %s",
		formatSpan(t.EdgeDetection),
		formatSpan(t.ForwardTracing),
		formatSpan(t.BackwardTracing),
		formatSpan(t.PostProcess),
		formatSpan(t.Total))
}

// formatSpan prints d as hh:mm:ss.fffffff (100ns ticks)
func formatSpan(d time.Duration) string {
	ticks := d.Nanoseconds() / 100
	seconds := ticks / 1e7
	return fmt.Sprintf("%02d:%02d:%02d.%07d",
		seconds/3600, (seconds/60)%60, seconds%60, ticks%1e7)
}

// RenderStats contains counters gathered during a render
type RenderStats struct {
	Pixels           int // Pixels in the viewport
	EdgeSupersampled int // Pixels supersampled by the edge pre-pass
	PostSupersampled int // Pixels re-supersampled by the post-process pass
	Photons          int // Photons shot by the forward pass
}
