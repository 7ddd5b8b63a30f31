package renderer

import (
	"math"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/geometry"
	"github.com/df07/go-caustic-raytracer/pkg/lightmap"
	"github.com/df07/go-caustic-raytracer/pkg/scene"
)

// surfaceEpsilon offsets secondary ray origins off the surface they leave
const surfaceEpsilon = 0.001

// Raytracer shades camera rays with recursive Whitted-style tracing.
// It is read-only after construction and safe for concurrent use.
type Raytracer struct {
	scene     *scene.Scene
	opts      Options
	lightmaps *lightmap.Set // nil unless caustics were traced
}

// NewRaytracer creates a raytracer. lightmaps may be nil; when set, it must
// already be published.
func NewRaytracer(s *scene.Scene, opts Options, lightmaps *lightmap.Set) *Raytracer {
	return &Raytracer{scene: s, opts: opts, lightmaps: lightmaps}
}

// offsetOrigin nudges point off the surface on the side dir leaves toward
func offsetOrigin(point, normal, dir core.Vec3) core.Vec3 {
	if dir.Dot(normal) < 0 {
		return point.Subtract(normal.Multiply(surfaceEpsilon))
	}
	return point.Add(normal.Multiply(surfaceEpsilon))
}

// Cast returns the color seen along dir from origin. dir must be unit length.
// Depth 0 returns black without touching the scene.
func (rt *Raytracer) Cast(origin, dir core.Vec3, depth int) core.Color {
	if depth <= 0 {
		return core.Black
	}

	hit, ok := rt.scene.NearestHit(core.NewRay(origin, dir))
	if !ok {
		return rt.opts.Ambient
	}
	return rt.shade(dir, hit, depth)
}

// shade combines direct light, caustics, the scattered term, reflection and refraction
func (rt *Raytracer) shade(dir core.Vec3, hit geometry.Hit, depth int) core.Color {
	mat := hit.Material
	normal := hit.Normal
	scatter := mat.Scatter()
	reflectivity := mat.Reflectivity()
	transmissivity := mat.Transmissivity()

	var refraction, reflection core.Vec3

	if transmissivity > 0 {
		// Total internal reflection leaves the refraction term empty; only the
		// reflectivity-weighted reflection below remains
		if refracted := core.Refract(dir, normal, mat.RefractionIndex); !refracted.IsZero() {
			refracted = refracted.Normalize()
			c := rt.Cast(offsetOrigin(hit.Point, normal, refracted), refracted, depth-1)
			refraction = c.Vec().Multiply(transmissivity)
		}
	}

	if reflectivity > 0 {
		reflected := core.Reflect(dir, normal)
		c := rt.Cast(offsetOrigin(hit.Point, normal, reflected), reflected, depth-1)
		reflection = c.Vec().Multiply(reflectivity * (1 - transmissivity))
	}

	scattered := rt.opts.Ambient.Vec()
	if scatter > 0 && rt.opts.ScatteredRaysActive {
		scattered = rt.scatteredColor(hit, depth).Vec()
	}

	diffuse, specular := rt.directLight(dir, hit)

	if rt.lightmaps != nil && hit.Polygon != nil {
		diffuse = diffuse.Add(rt.causticAt(hit).Vec().Multiply(1.0 / 255))
	}

	lightness := diffuse.Multiply((1 - reflectivity) * (1 - transmissivity))
	col := mat.Color.Vec().MultiplyVec(lightness).Multiply(1 - scatter).
		Add(scattered.Multiply(scatter))

	spec := 255 * specular * mat.Specular()
	col = col.Add(core.NewVec3(spec, spec, spec)).Add(reflection).Add(refraction)

	return core.ColorFromVec(col)
}

// directLight sums unoccluded light at hit. Diffuse is per channel in [0, n];
// specular is a scalar highlight strength.
func (rt *Raytracer) directLight(dir core.Vec3, hit geometry.Hit) (core.Vec3, float64) {
	var diffuse core.Vec3
	specular := 0.0

	for _, light := range rt.scene.Lights {
		toLight := light.Position.Subtract(hit.Point)
		distance := toLight.Length()
		if distance == 0 {
			continue
		}
		lightDir := toLight.Multiply(1 / distance)

		if rt.occluded(offsetOrigin(hit.Point, hit.Normal, lightDir), lightDir, distance) {
			continue
		}

		strength := core.Falloff(distance, rt.opts.FalloffDistance) * light.Intensity
		cosine := math.Max(0, lightDir.Dot(hit.Normal))
		diffuse = diffuse.Add(light.Tint().Multiply(strength * cosine))

		highlight := math.Max(0, core.Reflect(lightDir, hit.Normal).Dot(dir))
		specular += strength * math.Pow(highlight, hit.Material.SpecularExponent)
	}

	return diffuse, specular
}

// occluded reports whether anything lies strictly between origin and a light distance away
func (rt *Raytracer) occluded(origin, dir core.Vec3, distance float64) bool {
	hit, ok := rt.scene.NearestHit(core.NewRay(origin, dir))
	return ok && hit.T < distance
}

// scatteredColor averages the diffuse fan around the hit normal, weighting each
// ray by its cosine to the normal. The divisor counts every ray in the fan.
func (rt *Raytracer) scatteredColor(hit geometry.Hit, depth int) core.Color {
	fan := DiffuseFan(hit.Normal, rt.opts.DiffuseRings, rt.opts.DiffuseAzimuths)
	origin := offsetOrigin(hit.Point, hit.Normal, fan[0])

	var sum core.Vec3
	for _, d := range fan {
		weight := core.CosBetween(d, hit.Normal)
		if weight <= 0 {
			continue
		}
		sum = sum.Add(rt.Cast(origin, d, depth-1).Vec().Multiply(weight))
	}
	return core.ColorFromVec(sum.Multiply(1 / float64(len(fan))))
}

// causticAt reads the box-filtered lightmap value under a polygon hit
func (rt *Raytracer) causticAt(hit geometry.Hit) core.Color {
	lm := rt.lightmaps.Get(hit.ID.Index, hit.ID.Face)
	if lm == nil {
		return core.Black
	}
	u, v := hit.Polygon.SurfaceCoords(hit.Point)
	x, y := lightmap.TexelCoords(u, v, lm.Resolution())
	return lm.Sample(x, y, rt.opts.InterpolationSize)
}

// DiffuseFan returns a deterministic hemispherical fan around normal: the normal
// itself, then rings tilted by k*90/(rings+1) degrees, each split into azimuths
// samples by rotation about the normal. It always has rings*azimuths+1 directions.
func DiffuseFan(normal core.Vec3, rings, azimuths int) []core.Vec3 {
	n := normal.Normalize()
	fan := make([]core.Vec3, 0, rings*azimuths+1)
	fan = append(fan, n)
	if rings == 0 || azimuths == 0 {
		return fan
	}

	tiltAxis := n.Cross(perpendicular(n)).Normalize()
	for k := 1; k <= rings; k++ {
		tilt := core.Radians(90 * float64(k) / float64(rings+1))
		ring := core.TransformDirection(n, core.RotateAroundAxis(tiltAxis, tilt))
		for a := 0; a < azimuths; a++ {
			spin := 2 * math.Pi * float64(a) / float64(azimuths)
			fan = append(fan, core.TransformDirection(ring, core.RotateAroundAxis(n, spin)).Normalize())
		}
	}
	return fan
}

// perpendicular returns a coordinate axis that is not parallel to v
func perpendicular(v core.Vec3) core.Vec3 {
	if math.Abs(v.X) < 0.9 {
		return core.NewVec3(1, 0, 0)
	}
	return core.NewVec3(0, 1, 0)
}
