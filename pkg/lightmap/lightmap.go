// Package lightmap holds the per-polygon caustic energy buffers written by the
// forward photon pass and sampled by the backward shading pass.
package lightmap

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/df07/go-caustic-raytracer/pkg/core"
)

const numShards = 4096 // power of two so idx&(numShards-1) picks a shard

// shardLocks serializes concurrent read-modify-write on texels that hash to the same shard
type shardLocks struct{ mu [numShards]sync.Mutex }

func (sl *shardLocks) lock(idx int)   { sl.mu[idx&(numShards-1)].Lock() }
func (sl *shardLocks) unlock(idx int) { sl.mu[idx&(numShards-1)].Unlock() }

// Lightmap is a square RGB8 energy buffer bound to one polygon.
//
// Splats accumulate into a staging buffer. Nothing is visible to Sample until
// Publish copies the staging buffer into an immutable snapshot, so a reader sees
// either the empty map or the full accumulation, never a partial sum.
type Lightmap struct {
	res       int
	staging   []uint8
	locks     *shardLocks
	base      int // offset of this map's texels within a shared lock space
	published atomic.Pointer[[]uint8]
}

// New creates an empty lightmap with its own locks
func New(resolution int) *Lightmap {
	return newLightmap(resolution, &shardLocks{}, 0)
}

func newLightmap(resolution int, locks *shardLocks, base int) *Lightmap {
	if resolution < 1 {
		resolution = 1
	}
	return &Lightmap{
		res:     resolution,
		staging: make([]uint8, resolution*resolution*3),
		locks:   locks,
		base:    base,
	}
}

// Resolution returns the side length in texels
func (l *Lightmap) Resolution() int { return l.res }

// Splat adds c to every texel within radius of (x, y), including the center.
// Channels saturate at 255. Texels outside the map are skipped.
func (l *Lightmap) Splat(x, y int, c core.Color, radius int) {
	if radius < 0 {
		radius = 0
	}
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		cy := y + dy
		if cy < 0 || cy >= l.res {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			cx := x + dx
			if cx < 0 || cx >= l.res || dx*dx+dy*dy > r2 {
				continue
			}
			l.add(cy*l.res+cx, c)
		}
	}
}

func (l *Lightmap) add(texel int, c core.Color) {
	i := texel * 3
	l.locks.lock(l.base + texel)
	l.staging[i] = satAdd(l.staging[i], c.R)
	l.staging[i+1] = satAdd(l.staging[i+1], c.G)
	l.staging[i+2] = satAdd(l.staging[i+2], c.B)
	l.locks.unlock(l.base + texel)
}

func satAdd(a, b uint8) uint8 {
	s := int(a) + int(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}

// Publish snapshots the current accumulation for readers. Call it once every
// writer has finished.
func (l *Lightmap) Publish() {
	snap := make([]uint8, len(l.staging))
	copy(snap, l.staging)
	l.published.Store(&snap)
}

// Published reports whether Publish has been called
func (l *Lightmap) Published() bool {
	return l.published.Load() != nil
}

// At returns the published texel, or black before publication
func (l *Lightmap) At(x, y int) core.Color {
	p := l.published.Load()
	if p == nil || x < 0 || y < 0 || x >= l.res || y >= l.res {
		return core.Black
	}
	i := (y*l.res + x) * 3
	buf := *p
	return core.Color{R: buf[i], G: buf[i+1], B: buf[i+2]}
}

// Sample box-filters the published map: the integer mean of all texels within
// ±radius of (x, y), clamped to the map. A uniform map reads back unchanged at any radius.
func (l *Lightmap) Sample(x, y, radius int) core.Color {
	p := l.published.Load()
	if p == nil {
		return core.Black
	}
	buf := *p

	x0, x1 := max(0, x-radius), min(l.res-1, x+radius)
	y0, y1 := max(0, y-radius), min(l.res-1, y+radius)

	var sr, sg, sb, count int
	for cy := y0; cy <= y1; cy++ {
		row := cy * l.res
		for cx := x0; cx <= x1; cx++ {
			i := (row + cx) * 3
			sr += int(buf[i])
			sg += int(buf[i+1])
			sb += int(buf[i+2])
			count++
		}
	}
	if count == 0 {
		return core.Black
	}
	return core.Color{R: uint8(sr / count), G: uint8(sg / count), B: uint8(sb / count)}
}

// Image renders the published map as an RGBA image for inspection
func (l *Lightmap) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, l.res, l.res))
	for y := 0; y < l.res; y++ {
		for x := 0; x < l.res; x++ {
			img.SetRGBA(x, y, l.At(x, y).RGBA())
		}
	}
	return img
}

// TexelCoords maps surface coordinates to texel indices. Coordinates at or past
// 1 land on the last texel and those at or below 0 on the first.
func TexelCoords(u, v float64, res int) (int, int) {
	return texel(u, res), texel(v, res)
}

func texel(u float64, res int) int {
	if u >= 1 {
		return res - 1
	}
	if u <= 0 {
		return 0
	}
	return int(float64(res) * u)
}
