package lightmap

import (
	"sync"
	"testing"

	"github.com/df07/go-caustic-raytracer/pkg/core"
)

func TestSample_UniformMapIsIdempotent(t *testing.T) {
	const res = 16
	value := core.NewColor(37, 200, 3)

	lm := New(res)
	for y := 0; y < res; y++ {
		for x := 0; x < res; x++ {
			lm.Splat(x, y, value, 0)
		}
	}
	lm.Publish()

	for _, radius := range []int{0, 1, 2, 4, 7, 40} {
		for _, p := range [][2]int{{0, 0}, {5, 9}, {res - 1, res - 1}, {res - 1, 0}} {
			if got := lm.Sample(p[0], p[1], radius); got != value {
				t.Errorf("Sample(%d,%d,r=%d) = %v, want %v", p[0], p[1], radius, got, value)
			}
		}
	}
}

func TestSample_AveragesWindow(t *testing.T) {
	lm := New(8)
	lm.Splat(4, 4, core.NewColor(90, 0, 0), 0)
	lm.Publish()

	// 3x3 window around the lit texel: 90/9
	if got := lm.Sample(4, 4, 1); got != core.NewColor(10, 0, 0) {
		t.Errorf("Expected (10,0,0), got %v", got)
	}
	// Corner window clamps to 2x2 and misses the lit texel
	if got := lm.Sample(0, 0, 1); got != core.Black {
		t.Errorf("Expected black, got %v", got)
	}
}

func TestSplat_DiskFootprint(t *testing.T) {
	lm := New(9)
	lm.Splat(4, 4, core.NewColor(10, 10, 10), 2)
	lm.Publish()

	tests := []struct {
		x, y int
		lit  bool
	}{
		{4, 4, true},
		{6, 4, true},
		{4, 2, true},
		{5, 5, true},
		{6, 5, false}, // 4+1 > 4
		{6, 6, false},
		{7, 4, false},
	}
	for _, tt := range tests {
		got := lm.At(tt.x, tt.y)
		if (got != core.Black) != tt.lit {
			t.Errorf("texel (%d,%d) lit=%t, want %t", tt.x, tt.y, got != core.Black, tt.lit)
		}
	}
}

func TestSplat_SaturatesAndClipsAtEdges(t *testing.T) {
	lm := New(4)
	for i := 0; i < 3; i++ {
		lm.Splat(0, 0, core.NewColor(100, 200, 0), 1)
	}
	lm.Publish()

	if got := lm.At(0, 0); got != core.NewColor(255, 255, 0) {
		t.Errorf("Expected saturated (255,255,0), got %v", got)
	}
	if got := lm.At(1, 1); got != core.Black {
		t.Errorf("Diagonal neighbor outside radius 1 should be untouched, got %v", got)
	}
}

func TestPublish_ReadersNeverSeePartialSums(t *testing.T) {
	lm := New(4)
	lm.Splat(1, 1, core.NewColor(5, 5, 5), 0)

	if got := lm.Sample(1, 1, 0); got != core.Black {
		t.Fatalf("Unpublished map must read black, got %v", got)
	}

	lm.Publish()
	first := lm.Sample(1, 1, 0)

	lm.Splat(1, 1, core.NewColor(5, 5, 5), 0)
	if got := lm.Sample(1, 1, 0); got != first {
		t.Errorf("Unpublished splat leaked to readers: %v != %v", got, first)
	}

	lm.Publish()
	if got := lm.Sample(1, 1, 0); got != core.NewColor(10, 10, 10) {
		t.Errorf("Expected (10,10,10) after second publish, got %v", got)
	}
}

func TestSplat_ConcurrentWritersDoNotLoseUpdates(t *testing.T) {
	set := NewSet([]int{2, 1}, 8)
	lm := set.Get(0, 1)

	const writers = 8
	const perWriter = 20
	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				lm.Splat(3, 3, core.NewColor(1, 1, 1), 1)
			}
		}()
	}
	wg.Wait()
	set.PublishAll()

	want := uint8(writers * perWriter)
	if got := lm.At(3, 3); got != core.NewColor(want, want, want) {
		t.Errorf("Expected %d per channel, got %v", want, got)
	}
	if got := set.Get(0, 0).At(3, 3); got != core.Black {
		t.Errorf("Neighboring lightmap was written: %v", got)
	}
}

func TestTexelCoords(t *testing.T) {
	tests := []struct {
		u, v   float64
		wx, wy int
	}{
		{0, 0, 0, 0},
		{-0.3, 1.7, 0, 511},
		{1, 0.5, 511, 256},
		{0.999, 0.001, 511, 0},
		{0.25, 0.75, 128, 384},
	}
	for _, tt := range tests {
		x, y := TexelCoords(tt.u, tt.v, 512)
		if x != tt.wx || y != tt.wy {
			t.Errorf("TexelCoords(%f,%f) = (%d,%d), want (%d,%d)", tt.u, tt.v, x, y, tt.wx, tt.wy)
		}
	}
}

func TestSet_Layout(t *testing.T) {
	set := NewSet([]int{6, 0, 1}, 4)

	if set.Len() != 7 {
		t.Errorf("Expected 7 lightmaps, got %d", set.Len())
	}
	if set.Get(1, 0) != nil || set.Get(3, 0) != nil || set.Get(0, 6) != nil {
		t.Error("Out-of-range lookups must return nil")
	}
	if set.Get(2, 0) == nil || set.Get(2, 0).Resolution() != 4 {
		t.Error("Expected a 4x4 lightmap for mesh 2 face 0")
	}

	visited := 0
	set.Each(func(_, _ int, lm *Lightmap) {
		if lm.Published() {
			t.Error("Maps must start unpublished")
		}
		visited++
	})
	if visited != 7 {
		t.Errorf("Each visited %d maps, want 7", visited)
	}
}
