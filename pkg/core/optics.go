package core

import "math"

// snapEpsilon is the magnitude below which direction components are treated as zero
// by CosBetween and AngleBetween.
const snapEpsilon = 1e-4

// Reflect mirrors v about the normal n: v - 2(v·n)n
func Reflect(v, n Vec3) Vec3 {
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// Refract bends v through a surface with normal n and refraction index eta using Snell's law.
// A ray travelling along the normal (v·n > 0) is leaving the medium, so the normal is flipped
// and the index ratio inverted. Returns the zero vector on total internal reflection.
func Refract(v, n Vec3, eta float64) Vec3 {
	outside, inside := 1.0, eta
	cosI := -v.Dot(n)
	normal := n

	if cosI < 0 {
		normal = n.Negate()
		cosI = -cosI
		outside, inside = inside, outside
	}

	ratio := outside / inside
	k := 1 - (1-cosI*cosI)*ratio*ratio
	if k < 0 {
		return Vec3{}
	}

	return v.Multiply(ratio).Add(normal.Multiply(ratio*cosI - math.Sqrt(k)))
}

func snap(v Vec3) Vec3 {
	if math.Abs(v.X) < snapEpsilon {
		v.X = 0
	}
	if math.Abs(v.Y) < snapEpsilon {
		v.Y = 0
	}
	if math.Abs(v.Z) < snapEpsilon {
		v.Z = 0
	}
	return v
}

// CosBetween returns the cosine of the angle between a and b. Components smaller than 1e-4
// are snapped to zero before the dot product; the lengths use the unsnapped vectors.
func CosBetween(a, b Vec3) float64 {
	return snap(a).Dot(snap(b)) / (a.Length() * b.Length())
}

// AngleBetween returns the angle between a and b in radians
func AngleBetween(a, b Vec3) float64 {
	c := CosBetween(a, b)
	return math.Acos(max(-1, min(1, c)))
}

// Falloff is the linear distance attenuation used for lights and photons:
// 1 at distance zero, reaching 0 at maxDist and staying there.
func Falloff(dist, maxDist float64) float64 {
	return 1 - math.Min(1, dist/maxDist)
}
