package renderer

import (
	"context"
	"math"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/geometry"
	"github.com/df07/go-caustic-raytracer/pkg/lightmap"
	"github.com/df07/go-caustic-raytracer/pkg/lights"
	"github.com/df07/go-caustic-raytracer/pkg/scene"
)

// CausticTracer shoots photons from every light through every caustic-capable
// object and splats the energy that lands on diffuse polygons into their lightmaps.
type CausticTracer struct {
	scene     *scene.Scene
	opts      Options
	lightmaps *lightmap.Set
}

// NewCausticTracer creates a tracer writing into lightmaps
func NewCausticTracer(s *scene.Scene, opts Options, lightmaps *lightmap.Set) *CausticTracer {
	return &CausticTracer{scene: s, opts: opts, lightmaps: lightmaps}
}

// causticJob is one photon batch: a light shooting at a single object
type causticJob struct {
	light  lights.Light
	target geometry.ShapeID
}

// jobs lists every (light, object) pair whose object reflects or transmits
func (ct *CausticTracer) jobs() []causticJob {
	var jobs []causticJob
	for _, light := range ct.scene.Lights {
		for mi, m := range ct.scene.Meshes {
			if m.Material.CausticCapable() {
				jobs = append(jobs, causticJob{light, geometry.ShapeID{Kind: geometry.KindMesh, Index: mi, Face: -1}})
			}
		}
		for si, sp := range ct.scene.Spheres {
			if sp.Material.CausticCapable() {
				jobs = append(jobs, causticJob{light, geometry.ShapeID{Kind: geometry.KindSphere, Index: si, Face: -1}})
			}
		}
	}
	return jobs
}

// Tasks wraps every job as a worker pool task. Tasks for different jobs may
// splat into the same lightmap concurrently.
func (ct *CausticTracer) Tasks() []Task {
	jobs := ct.jobs()
	tasks := make([]Task, len(jobs))
	for i, job := range jobs {
		tasks[i] = Task{
			ID: i,
			Run: func(ctx context.Context) (int, error) {
				return ct.shoot(ctx, job)
			},
		}
	}
	return tasks
}

// Trace runs every job on the calling goroutine and publishes the lightmaps
func (ct *CausticTracer) Trace(ctx context.Context) (int, error) {
	photons := 0
	for _, job := range ct.jobs() {
		n, err := ct.shoot(ctx, job)
		photons += n
		if err != nil {
			return photons, err
		}
	}
	ct.lightmaps.PublishAll()
	return photons, nil
}

// boundingDisk returns the center and radius of a disk perpendicular to the
// light direction that covers the target as seen from the light. ok is false
// when the target cannot be covered (light inside or level with it).
func (ct *CausticTracer) boundingDisk(from core.Vec3, target geometry.ShapeID) (center core.Vec3, radius float64, ok bool) {
	switch target.Kind {
	case geometry.KindMesh:
		mesh := ct.scene.Meshes[target.Index]
		center = mesh.Center()
		dir := center.Subtract(from)

		minCos := 1.0
		for _, v := range mesh.Vertices {
			minCos = math.Min(minCos, core.CosBetween(dir, v.Subtract(from)))
		}
		if minCos <= 0 {
			return center, 0, false
		}
		radius = dir.Length() * math.Sqrt(1-minCos*minCos) / minCos

	case geometry.KindSphere:
		sphere := ct.scene.Spheres[target.Index]
		center = sphere.Center
		radius = sphere.TangentDiskRadius(from)
	}
	return center, radius, radius > 0
}

// shoot fires a res x res grid of photons (odd-centered, spanning the disk
// diameter) from the light toward the target
func (ct *CausticTracer) shoot(ctx context.Context, job causticJob) (int, error) {
	from := job.light.Position
	center, radius, ok := ct.boundingDisk(from, job.target)
	if !ok {
		return 0, nil
	}

	facing := center.Subtract(from).Normalize()
	xAxis := facing.Cross(perpendicular(facing)).Normalize()
	yAxis := facing.Cross(xAxis).Normalize()

	res := ct.opts.ForwardShootingResolution
	half := res / 2
	step := 2 * radius / float64(res)
	color := job.light.PhotonColor()

	photons := 0
	for i := -half; i <= half; i++ {
		if err := ctx.Err(); err != nil {
			return photons, err
		}
		for j := -half; j <= half; j++ {
			target := center.Add(xAxis.Multiply(float64(i) * step)).Add(yAxis.Multiply(float64(j) * step))
			dir := target.Subtract(from).Normalize()
			ct.trace(from, dir, color, ct.opts.Depth, 0, job.target)
			photons++
		}
	}
	return photons, nil
}

// trace follows one photon. The first bounce only tests the target object;
// later bounces search the whole scene. Transmissive surfaces pass the photon
// on, reflective ones absorb it, and purely diffuse polygons store it.
func (ct *CausticTracer) trace(origin, dir core.Vec3, c core.Color, depth, bounce int, target geometry.ShapeID) {
	if depth <= 0 {
		return
	}

	ray := core.NewRay(origin, dir)
	var hit geometry.Hit
	var ok bool
	if bounce == 0 {
		hit, ok = ct.scene.TargetHit(ray, target)
	} else {
		hit, ok = ct.scene.NearestHit(ray)
	}
	if !ok {
		return
	}

	mat := hit.Material
	falloff := core.Falloff(hit.T, ct.opts.FalloffDistance)

	if mat.Transmissivity() > 0 {
		refracted := core.Refract(dir, hit.Normal, mat.RefractionIndex)
		if !refracted.IsZero() {
			refracted = refracted.Normalize()
			carried := c.Scale(mat.Transmissivity() * falloff)
			ct.trace(offsetOrigin(hit.Point, hit.Normal, refracted), refracted, carried, depth-1, bounce+1, geometry.NoShape)
		}
	}

	// Reflection is not propagated in this pass.

	if mat.IsDiffuseOnly() && hit.Polygon != nil {
		toSource := origin.Subtract(hit.Point).Normalize()
		deposit := c.Scale(falloff * math.Max(0, toSource.Dot(hit.Normal)))

		lm := ct.lightmaps.Get(hit.ID.Index, hit.ID.Face)
		if lm == nil {
			return
		}
		u, v := hit.Polygon.SurfaceCoords(hit.Point)
		x, y := lightmap.TexelCoords(u, v, lm.Resolution())
		lm.Splat(x, y, deposit, ct.opts.SpotSize)
	}
}
