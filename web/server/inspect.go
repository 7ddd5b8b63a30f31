package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-caustic-raytracer/pkg/geometry"
	"github.com/df07/go-caustic-raytracer/pkg/material"
	"github.com/df07/go-caustic-raytracer/pkg/renderer"
	"github.com/df07/go-caustic-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	GeometryType string                 `json:"geometryType"` // "mesh" or "sphere"
	Shape        string                 `json:"shape"`        // Shape identifier, e.g. "mesh[2].face[5]"
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	Color        string                 `json:"color"` // Backward-traced color at the pixel without caustics, #rrggbb
	Properties   map[string]interface{} `json:"properties"`
}

// extractMaterialInfo lists the shading coefficients of a material
func extractMaterialInfo(mat material.Material) map[string]interface{} {
	return map[string]interface{}{
		"color":            fmt.Sprintf("#%02x%02x%02x", mat.Color.R, mat.Color.G, mat.Color.B),
		"specularExponent": mat.SpecularExponent,
		"refractionIndex":  mat.RefractionIndex,
		"scatter":          mat.Scatter(),
		"specular":         mat.Specular(),
		"reflectivity":     mat.Reflectivity(),
		"transmissivity":   mat.Transmissivity(),
		"causticCapable":   mat.CausticCapable(),
	}
}

// extractGeometryInfo describes the mesh or sphere that was hit
func extractGeometryInfo(sceneObj *scene.Scene, hit geometry.Hit) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch hit.ID.Kind {
	case geometry.KindMesh:
		mesh := sceneObj.Meshes[hit.ID.Index]
		properties["mesh"] = mesh.Name
		properties["face"] = hit.ID.Face
		properties["faces"] = len(mesh.Faces)
		if hit.Polygon != nil {
			properties["vertices"] = len(hit.Polygon.Vertices)
			u, v := hit.Polygon.SurfaceCoords(hit.Point)
			properties["surfaceCoords"] = [2]float64{u, v}
		}
		return "mesh", properties

	case geometry.KindSphere:
		sp := sceneObj.Spheres[hit.ID.Index]
		properties["center"] = [3]float64{sp.Center.X, sp.Center.Y, sp.Center.Z}
		properties["radius"] = sp.Radius
		return "sphere", properties
	}
	return "unknown", properties
}

// handleInspect casts the primary ray through a pixel and describes the first surface it hits
func (s *Server) handleInspect(c echo.Context) error {
	sceneName := c.QueryParam("scene")
	if sceneName == "" {
		sceneName = defaultScene
	}
	sceneObj, err := scene.Resolve(sceneName, s.scenesDir)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown scene: "+sceneName)
	}

	cfg := sceneObj.CameraConfig
	q := c.QueryParams()
	if q.Get("x") == "" || q.Get("y") == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "x and y are required")
	}
	pixelX, err := parseIntParam(q, "x", 0, 0, cfg.Width-1)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pixelY, err := parseIntParam(q, "y", 0, 0, cfg.Height-1)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := sceneObj.Preprocess(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	camera := renderer.NewCamera(cfg)
	ray := camera.Ray(pixelX, pixelY)
	hit, ok := sceneObj.NearestHit(ray)
	if !ok {
		return c.JSON(http.StatusOK, InspectResponse{Hit: false})
	}

	opts := renderer.DefaultOptions()
	col := renderer.NewRaytracer(sceneObj, opts, nil).Cast(ray.Origin, ray.Direction, opts.Depth)

	geometryType, geometryProps := extractGeometryInfo(sceneObj, hit)
	return c.JSON(http.StatusOK, InspectResponse{
		Hit:          true,
		GeometryType: geometryType,
		Shape:        hit.ID.String(),
		Point:        [3]float64{hit.Point.X, hit.Point.Y, hit.Point.Z},
		Normal:       [3]float64{hit.Normal.X, hit.Normal.Y, hit.Normal.Z},
		Distance:     hit.T,
		Color:        fmt.Sprintf("#%02x%02x%02x", col.R, col.G, col.B),
		Properties: map[string]interface{}{
			"material": extractMaterialInfo(hit.Material),
			"geometry": geometryProps,
		},
	})
}
