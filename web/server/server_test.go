package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	body := `{"name": "Tiny Room", "group": "Tests", "room": true,
		"lights": [{"position": [0, -100, 0], "intensity": 1, "color": [255, 255, 255]}]}`
	if err := os.WriteFile(filepath.Join(dir, "tiny.json"), []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
	return NewServer(0, dir)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// sseEvents splits an event stream body into (event, data) pairs
func sseEvents(body string) [][2]string {
	var events [][2]string
	for _, block := range strings.Split(body, "\n\n") {
		var event, data string
		for _, line := range strings.Split(block, "\n") {
			if v, ok := strings.CutPrefix(line, "event: "); ok {
				event = v
			} else if v, ok := strings.CutPrefix(line, "data: "); ok {
				data = v
			}
		}
		if event != "" {
			events = append(events, [2]string{event, data})
		}
	}
	return events
}

func TestHandleHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestHandleScenes(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/scenes")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Groups []struct {
			Name   string `json:"name"`
			Scenes []struct {
				ID string `json:"id"`
			} `json:"scenes"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	ids := map[string]bool{}
	for _, g := range resp.Groups {
		for _, sc := range g.Scenes {
			ids[sc.ID] = true
		}
	}
	for _, want := range []string{"room", "glass", "plane", "file:tiny"} {
		if !ids[want] {
			t.Errorf("Expected scene %s in %v", want, ids)
		}
	}
}

func TestHandleSceneConfig(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/api/scene-config?scene=file:tiny")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Width    int                       `json:"width"`
		Defaults map[string]interface{}    `json:"defaults"`
		Limits   map[string]map[string]int `json:"limits"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Width != 640 {
		t.Errorf("Expected width 640, got %d", resp.Width)
	}
	if resp.Defaults["depth"] != float64(3) {
		t.Errorf("Expected default depth 3, got %v", resp.Defaults["depth"])
	}
	if resp.Limits["postThreshold"]["max"] != 255 {
		t.Errorf("Expected postThreshold max 255, got %v", resp.Limits["postThreshold"])
	}

	if rec := get(t, s, "/api/scene-config?scene=nope"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown scene, got %d", rec.Code)
	}
}

func TestParseRenderRequest(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
		check   func(*testing.T, *RenderRequest)
	}{
		{"defaults", "", false, func(t *testing.T, r *RenderRequest) {
			if r.Scene != "room" || r.Options.Depth != 3 || !r.Viewport.Empty() {
				t.Errorf("Unexpected defaults: %+v", r)
			}
		}},
		{"options and viewport", "scene=glass&depth=2&caustics=true&postAA=1&ssRes=3&x=10&y=20&w=30&h=40", false, func(t *testing.T, r *RenderRequest) {
			o := r.Options
			if r.Scene != "glass" || o.Depth != 2 || !o.ForwardTracingActive || !o.PostProcessAADetectionActive || o.SupersamplingResolution != 3 {
				t.Errorf("Parameters not applied: %+v", r)
			}
			if r.Viewport != image.Rect(10, 20, 40, 60) {
				t.Errorf("Expected viewport (10,20)-(40,60), got %v", r.Viewport)
			}
		}},
		{"width without height is full image", "w=30", false, func(t *testing.T, r *RenderRequest) {
			if !r.Viewport.Empty() {
				t.Errorf("Expected empty viewport, got %v", r.Viewport)
			}
		}},
		{"depth out of range", "depth=11", true, nil},
		{"threshold out of range", "postThreshold=256", true, nil},
		{"not a number", "textureRes=big", true, nil},
		{"bad bool", "edgeAA=maybe", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			req, err := parseRenderRequest(q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, req)
			}
		})
	}
}

func TestHandleRender_StreamsCompleteImage(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/render?scene=plane&depth=1&x=300&y=300&w=16&h=12")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}

	events := sseEvents(rec.Body.String())
	seen := map[string]int{}
	var complete CompleteUpdate
	for _, ev := range events {
		seen[ev[0]]++
		if ev[0] == "complete" {
			if err := json.Unmarshal([]byte(ev[1]), &complete); err != nil {
				t.Fatalf("Invalid complete payload: %v", err)
			}
		}
		if ev[0] == "progress" {
			var p ProgressUpdate
			if err := json.Unmarshal([]byte(ev[1]), &p); err != nil {
				t.Fatalf("Invalid progress payload: %v", err)
			}
			if p.Overall < 0 || p.Overall > 1 {
				t.Errorf("Overall progress out of range: %+v", p)
			}
		}
		if ev[0] == "error" {
			t.Errorf("Unexpected error event: %s", ev[1])
		}
	}

	if seen["complete"] != 1 {
		t.Fatalf("Expected one complete event, got %v", seen)
	}
	if seen["progress"] == 0 {
		t.Error("Expected progress events")
	}
	if seen["console"] == 0 {
		t.Error("Expected console events")
	}

	if complete.Width != 16 || complete.Height != 12 {
		t.Errorf("Expected 16x12, got %dx%d", complete.Width, complete.Height)
	}
	if complete.Stats.Pixels != 16*12 {
		t.Errorf("Expected %d pixels, got %d", 16*12, complete.Stats.Pixels)
	}
	if !strings.HasPrefix(complete.TimingsText, "edgespreprocess: ") {
		t.Errorf("Unexpected timings text: %q", complete.TimingsText)
	}

	data, err := base64.StdEncoding.DecodeString(complete.ImageData)
	if err != nil {
		t.Fatalf("Image is not base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Image is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 12 {
		t.Errorf("Decoded image is %v", b)
	}
}

func TestHandleRender_BadRequests(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{
		"/api/render?depth=-1",
		"/api/render?ssRes=0",
		"/api/render?scene=does-not-exist",
		"/api/render?scene=file:missing",
	} {
		if rec := get(t, s, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestHandleInspect(t *testing.T) {
	s := newTestServer(t)

	t.Run("floor hit", func(t *testing.T) {
		rec := get(t, s, "/api/inspect?scene=plane&x=320&y=400")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp InspectResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Invalid JSON: %v", err)
		}
		if !resp.Hit || resp.GeometryType != "mesh" {
			t.Fatalf("Expected a mesh hit, got %+v", resp)
		}
		if math.Abs(resp.Point[1]-150) > 1e-6 {
			t.Errorf("Expected the floor at y=150, got %v", resp.Point)
		}
		geom, _ := resp.Properties["geometry"].(map[string]interface{})
		if geom["mesh"] != "floor" {
			t.Errorf("Expected the floor mesh, got %v", geom["mesh"])
		}
	})

	t.Run("miss", func(t *testing.T) {
		rec := get(t, s, "/api/inspect?scene=plane&x=320&y=100")
		var resp InspectResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Invalid JSON: %v", err)
		}
		if resp.Hit {
			t.Errorf("Expected a miss above the horizon, got %+v", resp)
		}
	})

	for _, target := range []string{
		"/api/inspect?scene=plane",
		"/api/inspect?scene=plane&x=640&y=0",
		"/api/inspect?scene=plane&x=0&y=-1",
		"/api/inspect?scene=nope&x=1&y=1",
	} {
		if rec := get(t, s, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}
