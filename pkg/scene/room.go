package scene

import (
	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/geometry"
	"github.com/df07/go-caustic-raytracer/pkg/lights"
	"github.com/df07/go-caustic-raytracer/pkg/material"
)

// Room bounds. The world is y-down: the floor is at maxY and the ceiling at minY.
const (
	roomMinX, roomMaxX = -250.0, 250.0
	roomMinY, roomMaxY = -350.0, 150.0
	roomMinZ, roomMaxZ = -501.0, 499.0
)

// DefaultCamera is the eye used by the built-in scenes: 500 units in front of the image plane
func DefaultCamera() CameraConfig {
	return CameraConfig{
		Position: core.NewVec3(0, 0, -500),
		Width:    640,
		Height:   480,
	}
}

// addRoom adds the six inward-facing walls shared by the built-in scenes
func addRoom(s *Scene) {
	cx := (roomMinX + roomMaxX) / 2
	cy := (roomMinY + roomMaxY) / 2
	cz := (roomMinZ + roomMaxZ) / 2
	hx := (roomMaxX - roomMinX) / 2
	hy := (roomMaxY - roomMinY) / 2
	hz := (roomMaxZ - roomMinZ) / 2

	x := func(v float64) core.Vec3 { return core.NewVec3(v, 0, 0) }
	y := func(v float64) core.Vec3 { return core.NewVec3(0, v, 0) }
	z := func(v float64) core.Vec3 { return core.NewVec3(0, 0, v) }

	softWhite := material.New(core.White, 0, 1, [4]float64{0.2, 0, 0, 0})

	// Each quad's normal is u×v and points into the room
	s.AddMesh(geometry.NewQuadMesh("floor", core.NewVec3(cx, roomMaxY, cz), x(hx), z(hz), softWhite))
	s.AddMesh(geometry.NewQuadMesh("ceiling", core.NewVec3(cx, roomMinY, cz), z(hz), x(hx), softWhite))
	s.AddMesh(geometry.NewQuadMesh("left-wall", core.NewVec3(roomMinX, cy, cz), y(hy), z(hz), material.Diffuse(core.Green)))
	s.AddMesh(geometry.NewQuadMesh("back-wall", core.NewVec3(cx, cy, roomMaxZ), y(hy), x(hx), material.Diffuse(core.LightGray)))
	s.AddMesh(geometry.NewQuadMesh("right-wall", core.NewVec3(roomMaxX, cy, cz), z(hz), y(hy), material.Diffuse(core.Red)))
	s.AddMesh(geometry.NewQuadMesh("front-wall", core.NewVec3(cx, cy, roomMinZ), x(hx), y(hy), material.Diffuse(core.White)))
}

// NewRoomScene creates the caustics showcase: a mirror cube, a red glass cube,
// a dark glossy sphere and a clear glass sphere in a colored room with one white light
func NewRoomScene() *Scene {
	s := New("room", DefaultCamera())
	addRoom(s)

	mirror := material.New(core.Black, 0, 1, [4]float64{0, 0, 1, 0})
	cube := geometry.NewCubeMesh("mirror-cube", 150, mirror).
		Transform(core.RotateY(core.Radians(130)).Mul(core.Translate(-80, 75, 400)))
	s.AddMesh(cube)

	redGlass := material.New(core.Red, 0, 1.5, [4]float64{0.15, 1, 0, 0.8})
	glassCube := geometry.NewCubeMesh("glass-cube", 150, redGlass).
		Transform(core.Scale(0.5, 0.5, 0.5).Mul(core.RotateY(core.Radians(25))).Mul(core.Translate(150, 100, 0)))
	s.AddMesh(glassCube)

	s.AddSphere(geometry.NewSphere(core.NewVec3(100, 100, 200), 50,
		material.New(core.Black, 100, 1, [4]float64{0.1, 5, 0.8, 0})))
	s.AddSphere(geometry.NewSphere(core.NewVec3(-140, 90, 0), 60,
		material.New(core.White, 30, 1.5, [4]float64{0, 0.5, 0.2, 0.8})))

	s.AddLight(lights.New(core.NewVec3(0, -150, -300), 1, core.White))

	_ = s.Preprocess()
	return s
}

// NewGlassScene creates a room lit by an orange and a cyan light, with an
// octahedron, a glossy cube, a tilted mirror and three yellow spheres, one of them glass
func NewGlassScene() *Scene {
	s := New("glass", DefaultCamera())
	addRoom(s)

	s.AddMesh(geometry.NewOctahedronMesh("octahedron", 50, material.Diffuse(core.Purple)).
		Transform(core.Scale(1.5, 1.5, 1.5).Mul(core.Translate(-100, -200, 250))))

	s.AddMesh(geometry.NewCubeMesh("glossy-cube", 150, material.New(core.Green, 5, 1, [4]float64{0, 0.2, 0, 0})).
		Transform(core.RotateY(core.Radians(30)).Mul(core.Translate(115, 75, 300))))

	// A gray panel with a slightly smaller mirror one unit in front of it, tilted toward the room
	tilt := core.RotateZ(core.Radians(-255))
	s.AddMesh(panel("panel", 1, material.Diffuse(core.Gray)).
		Transform(tilt.Mul(core.Translate(220, 50, 50))))
	s.AddMesh(panel("mirror", 0.95, material.New(core.Gray, 0, 1, [4]float64{0, 0, 0.9, 0})).
		Transform(tilt.Mul(core.Translate(219, 50, 50))))

	s.AddSphere(geometry.NewSphere(core.NewVec3(-160, 100, 200), 50,
		material.New(core.Yellow, 300, 1, [4]float64{0, 5, 0.5, 0})))
	s.AddSphere(geometry.NewSphere(core.NewVec3(-40, 90, 60), 60,
		material.New(core.Yellow, 30, 1.5, [4]float64{0, 0, 0, 1})))
	s.AddSphere(geometry.NewSphere(core.NewVec3(-180, 110, -40), 40,
		material.New(core.Yellow, 30, 1.5, [4]float64{0, 0, 0, 0})))

	s.AddLight(lights.New(core.NewVec3(150, 0, 0), 0.7, core.Orange))
	s.AddLight(lights.New(core.NewVec3(-150, 0, 0), 0.7, core.Cyan))

	_ = s.Preprocess()
	return s
}

// panel is a 200×200 square in the xz plane scaled by k, facing +y
func panel(name string, k float64, mat material.Material) *geometry.Mesh {
	return geometry.NewQuadMesh(name, core.Vec3{}, core.NewVec3(0, 0, 100*k), core.NewVec3(100*k, 0, 0), mat)
}

// NewPlaneScene is a diagnostic scene: one large white diffuse floor lit by a
// single white light. Every pixel that sees the floor has an analytic value.
func NewPlaneScene() *Scene {
	s := New("plane", DefaultCamera())
	s.AddMesh(geometry.NewQuadMesh("floor", core.NewVec3(0, roomMaxY, 0),
		core.NewVec3(2000, 0, 0), core.NewVec3(0, 0, 2000), material.Diffuse(core.White)))
	s.AddLight(lights.New(core.NewVec3(0, -50, 200), 1, core.White))

	_ = s.Preprocess()
	return s
}
