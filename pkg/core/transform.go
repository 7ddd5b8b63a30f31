package core

import "math"

// Mat4 is a homogeneous transform in row-vector convention: a point p maps to
// [p.X p.Y p.Z 1] * M, so translation lives in the last row.
// Matrices are values; applying one never mutates its input.
type Mat4 [4][4]float64

// Identity returns the identity transform
func Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translate returns a translation by (dx, dy, dz)
func Translate(dx, dy, dz float64) Mat4 {
	m := Identity()
	m[3][0], m[3][1], m[3][2] = dx, dy, dz
	return m
}

// Scale returns a per-axis scale about the origin
func Scale(sx, sy, sz float64) Mat4 {
	m := Identity()
	m[0][0], m[1][1], m[2][2] = sx, sy, sz
	return m
}

// RotateAroundAxis returns a right-handed rotation by angle radians about an axis through the origin
func RotateAroundAxis(axis Vec3, angle float64) Mat4 {
	a := axis.Normalize()
	l, m, n := a.X, a.Y, a.Z
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c

	return Mat4{
		{l*l*t + c, l*m*t + n*s, l*n*t - m*s, 0},
		{l*m*t - n*s, m*m*t + c, m*n*t + l*s, 0},
		{l*n*t + m*s, m*n*t - l*s, n*n*t + c, 0},
		{0, 0, 0, 1},
	}
}

// RotateX rotates about the X axis
func RotateX(angle float64) Mat4 { return RotateAroundAxis(NewVec3(1, 0, 0), angle) }

// RotateY rotates about the Y axis
func RotateY(angle float64) Mat4 { return RotateAroundAxis(NewVec3(0, 1, 0), angle) }

// RotateZ rotates about the Z axis
func RotateZ(angle float64) Mat4 { return RotateAroundAxis(NewVec3(0, 0, 1), angle) }

// Radians converts degrees to radians
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Mul returns m followed by other (m * other in row-vector convention)
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += m[r][k] * other[k][c]
			}
			out[r][c] = sum
		}
	}
	return out
}

// TransformPoint applies m to a point, including translation
func TransformPoint(p Vec3, m Mat4) Vec3 {
	return Vec3{
		X: p.X*m[0][0] + p.Y*m[1][0] + p.Z*m[2][0] + m[3][0],
		Y: p.X*m[0][1] + p.Y*m[1][1] + p.Z*m[2][1] + m[3][1],
		Z: p.X*m[0][2] + p.Y*m[1][2] + p.Z*m[2][2] + m[3][2],
	}
}

// TransformDirection applies the linear part of m to a direction
func TransformDirection(d Vec3, m Mat4) Vec3 {
	return Vec3{
		X: d.X*m[0][0] + d.Y*m[1][0] + d.Z*m[2][0],
		Y: d.X*m[0][1] + d.Y*m[1][1] + d.Z*m[2][1],
		Z: d.X*m[0][2] + d.Y*m[1][2] + d.Z*m[2][2],
	}
}
