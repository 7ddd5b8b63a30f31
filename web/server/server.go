package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/df07/go-caustic-raytracer/pkg/renderer"
	"github.com/df07/go-caustic-raytracer/pkg/scene"
)

// Server handles web requests for the caustic raytracer
type Server struct {
	port      int
	scenesDir string
	echo      *echo.Echo
}

// NewServer creates a new web server. Scene files are discovered in scenesDir.
func NewServer(port int, scenesDir string) *Server {
	s := &Server{port: port, scenesDir: scenesDir}
	s.echo = s.routes()
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Serve static files
	e.Static("/", "static")

	// API endpoints
	e.GET("/api/health", s.handleHealth)
	e.GET("/api/scenes", s.handleScenes)
	e.GET("/api/scene-config", s.handleSceneConfig)
	e.GET("/api/render", s.handleRender)
	e.GET("/api/inspect", s.handleInspect)
	return e
}

// Start starts the web server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and scene files, grouped for the UI
func (s *Server) handleScenes(c echo.Context) error {
	scenes, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, scenes)
}

// paramLimits are the accepted ranges for numeric render parameters
var paramLimits = map[string][2]int{
	"depth":         {0, 10},
	"textureRes":    {8, 2048},
	"spotSize":      {0, 16},
	"interpSize":    {0, 16},
	"shootRes":      {1, 512},
	"postThreshold": {0, 255},
	"ssRes":         {1, 9},
	"x":             {0, 10000},
	"y":             {0, 10000},
	"w":             {0, 10000},
	"h":             {0, 10000},
}

// handleSceneConfig returns the scene's camera and the default render options with their limits
func (s *Server) handleSceneConfig(c echo.Context) error {
	sceneName := c.QueryParam("scene")
	if sceneName == "" {
		sceneName = defaultScene
	}

	sceneObj, err := scene.Resolve(sceneName, s.scenesDir)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown scene: "+sceneName)
	}

	limits := make(map[string]map[string]int, len(paramLimits))
	for name, l := range paramLimits {
		limits[name] = map[string]int{"min": l[0], "max": l[1]}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"scene":    sceneName,
		"width":    sceneObj.CameraConfig.Width,
		"height":   sceneObj.CameraConfig.Height,
		"defaults": renderer.DefaultOptions(),
		"limits":   limits,
	})
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseLimitedParam parses a parameter whose range is in paramLimits
func parseLimitedParam(values url.Values, key string, defaultValue int) (int, error) {
	l := paramLimits[key]
	return parseIntParam(values, key, defaultValue, l[0], l[1])
}

// parseBoolParam parses a boolean parameter from URL query
func parseBoolParam(values url.Values, key string, defaultValue bool) (bool, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
