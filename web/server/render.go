package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-caustic-raytracer/pkg/core"
	"github.com/df07/go-caustic-raytracer/pkg/imageio"
	"github.com/df07/go-caustic-raytracer/pkg/renderer"
	"github.com/df07/go-caustic-raytracer/pkg/scene"
)

const (
	defaultScene = "room"
	previewSize  = 256
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene    string           `json:"scene"`
	Options  renderer.Options `json:"options"`
	Viewport image.Rectangle  `json:"viewport"` // Empty means the whole image
}

// ProgressUpdate is sent as a "progress" event while a phase runs
type ProgressUpdate struct {
	Phase     string  `json:"phase"`
	Fraction  float64 `json:"fraction"`
	Overall   float64 `json:"overall"`
	ElapsedMs int64   `json:"elapsedMs"`
}

// CompleteUpdate is sent as the "complete" event with the finished image
type CompleteUpdate struct {
	ImageData   string               `json:"imageData"`   // Base64 encoded PNG
	PreviewData string               `json:"previewData"` // Base64 encoded PNG, at most previewSize on the long side
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	Timings     TimingsMs            `json:"timings"`
	TimingsText string               `json:"timingsText"` // time.txt contents
	Stats       renderer.RenderStats `json:"stats"`
}

// TimingsMs are phase durations in milliseconds
type TimingsMs struct {
	EdgeDetection   int64 `json:"edgeDetection"`
	ForwardTracing  int64 `json:"forwardTracing"`
	BackwardTracing int64 `json:"backwardTracing"`
	PostProcess     int64 `json:"postProcess"`
	Total           int64 `json:"total"`
}

func timingsMs(t renderer.Timings) TimingsMs {
	return TimingsMs{
		EdgeDetection:   t.EdgeDetection.Milliseconds(),
		ForwardTracing:  t.ForwardTracing.Milliseconds(),
		BackwardTracing: t.BackwardTracing.Milliseconds(),
		PostProcess:     t.PostProcess.Milliseconds(),
		Total:           t.Total.Milliseconds(),
	}
}

// handleRender renders a scene and streams console lines, phase progress and
// the final image as Server-Sent Events. The handler goroutine is the only
// writer to the response. A client disconnect cancels the render.
func (s *Server) handleRender(c echo.Context) error {
	req, err := parseRenderRequest(c.QueryParams())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
	}

	sceneObj, err := scene.Resolve(req.Scene, s.scenesDir)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown scene: "+req.Scene)
	}
	if !req.Viewport.Empty() {
		sceneObj.CameraConfig.Viewport = req.Viewport
	}

	consoleChan, webLogger := s.setupConsoleLogging()
	r, err := renderer.NewRenderer(sceneObj, req.Options, webLogger)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	s.setSSEHeaders(c)
	ctx := c.Request().Context()
	start := time.Now()
	progressChan, resultChan, errChan := r.RenderAsync(ctx)

	for progressChan != nil {
		select {
		case msg := <-consoleChan:
			s.sendConsole(c, msg)
		case p, ok := <-progressChan:
			if !ok {
				progressChan = nil
				continue
			}
			s.sendJSON(c, "progress", ProgressUpdate{
				Phase:     p.Phase,
				Fraction:  p.Fraction,
				Overall:   p.Overall,
				ElapsedMs: p.Elapsed.Milliseconds(),
			})
		case <-ctx.Done():
			// Client disconnected; the render sees the same context
			return nil
		}
	}
	s.drainConsole(c, consoleChan)

	if err, ok := <-errChan; ok && err != nil {
		if ctx.Err() == nil {
			s.sendEvent(c, "error", fmt.Sprintf("Rendering failed: %v", err))
		}
		return nil
	}
	result := <-resultChan

	update, err := completeUpdate(result)
	if err != nil {
		s.sendEvent(c, "error", err.Error())
		return nil
	}
	s.sendJSON(c, "complete", update)
	log.Printf("Render of %s finished in %v", req.Scene, time.Since(start))
	return nil
}

// parseRenderRequest parses request parameters on top of the default options
func parseRenderRequest(q url.Values) (*RenderRequest, error) {
	req := &RenderRequest{Scene: q.Get("scene"), Options: renderer.DefaultOptions()}
	if req.Scene == "" {
		req.Scene = defaultScene
	}
	o := &req.Options

	ints := []struct {
		key string
		dst *int
	}{
		{"depth", &o.Depth},
		{"textureRes", &o.TextureResolution},
		{"spotSize", &o.SpotSize},
		{"interpSize", &o.InterpolationSize},
		{"shootRes", &o.ForwardShootingResolution},
		{"postThreshold", &o.PostAAThreshold},
		{"ssRes", &o.SupersamplingResolution},
	}
	for _, p := range ints {
		v, err := parseLimitedParam(q, p.key, *p.dst)
		if err != nil {
			return nil, err
		}
		*p.dst = v
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"scattered", &o.ScatteredRaysActive},
		{"caustics", &o.ForwardTracingActive},
		{"edgeAA", &o.EdgeAADetectionActive},
		{"postAA", &o.PostProcessAADetectionActive},
	}
	for _, p := range bools {
		v, err := parseBoolParam(q, p.key, *p.dst)
		if err != nil {
			return nil, err
		}
		*p.dst = v
	}

	var rect [4]int
	for i, key := range []string{"x", "y", "w", "h"} {
		v, err := parseLimitedParam(q, key, 0)
		if err != nil {
			return nil, err
		}
		rect[i] = v
	}
	if rect[2] > 0 && rect[3] > 0 {
		req.Viewport = image.Rect(rect[0], rect[1], rect[0]+rect[2], rect[1]+rect[3])
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func completeUpdate(result *renderer.Result) (CompleteUpdate, error) {
	imageData, err := imageToBase64PNG(result.Image)
	if err != nil {
		return CompleteUpdate{}, fmt.Errorf("failed to encode image: %w", err)
	}
	previewData, err := imageToBase64PNG(imageio.Downscale(result.Image, previewSize))
	if err != nil {
		return CompleteUpdate{}, fmt.Errorf("failed to encode preview: %w", err)
	}

	b := result.Image.Bounds()
	return CompleteUpdate{
		ImageData:   imageData,
		PreviewData: previewData,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Timings:     timingsMs(result.Timings),
		TimingsText: result.Timings.String(),
		Stats:       result.Stats,
	}, nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(c echo.Context) {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	return consoleChan, NewWebLogger(renderID, consoleChan)
}

func (s *Server) sendConsole(c echo.Context, msg ConsoleMessage) {
	s.sendJSON(c, "console", msg)
}

// drainConsole forwards console lines still buffered when the render ends
func (s *Server) drainConsole(c echo.Context, consoleChan chan ConsoleMessage) {
	for {
		select {
		case msg := <-consoleChan:
			s.sendConsole(c, msg)
		default:
			return
		}
	}
}

func (s *Server) sendJSON(c echo.Context, event string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", event, err)
		return
	}
	s.sendEvent(c, event, string(data))
}

// sendEvent writes one SSE event and flushes it
func (s *Server) sendEvent(c echo.Context, event, data string) {
	if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", event, data); err != nil {
		// Client disconnected during write
		return
	}
	c.Response().Flush()
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imageio.Encode(&buf, img, imageio.PNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
