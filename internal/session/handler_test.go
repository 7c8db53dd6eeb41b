package session

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"live-player/internal/engine"

	"github.com/go-chi/chi/v5"
)

type testResponse struct {
	ID   string `json:"id"`
	Zoom struct {
		Level float64 `json:"level"`
		Label string  `json:"label"`
		Pan   struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"pan"`
		CanZoomIn bool `json:"can_zoom_in"`
	} `json:"zoom"`
	Transform struct {
		Scale float64 `json:"scale"`
	} `json:"transform"`
	Cursor  string `json:"cursor"`
	Quality struct {
		Phase     string `json:"phase"`
		Requested int    `json:"requested"`
		Label     string `json:"label"`
		Enabled   bool   `json:"enabled"`
		MenuOpen  bool   `json:"menu_open"`
		Options   []struct {
			Index    int    `json:"index"`
			Label    string `json:"label"`
			Selected bool   `json:"selected"`
		} `json:"options"`
	} `json:"quality"`
	Fullscreen  bool   `json:"fullscreen"`
	Playback    string `json:"playback"`
	StreamError string `json:"stream_error"`
}

func newTestRouter(t *testing.T, svc *Service) *chi.Mux {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(svc, log, nil)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) testResponse {
	t.Helper()
	var out testResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func createSession(t *testing.T, r http.Handler, source string) testResponse {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/sessions", map[string]any{"source": source, "width": 400, "height": 225})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	return decodeResponse(t, rec)
}

func TestHandler_CreateSession(t *testing.T) {
	svc := newTestService(t, newStubEngine, Options{}, nil)
	r := newTestRouter(t, svc)

	got := createSession(t, r, "stub://live")
	if got.ID == "" {
		t.Fatal("expected a session id")
	}
	if got.Zoom.Level != 1 || got.Zoom.Label != "1.0x" {
		t.Errorf("zoom: got %v %q", got.Zoom.Level, got.Zoom.Label)
	}
	if got.Cursor != "auto" {
		t.Errorf("cursor: got %q, want auto", got.Cursor)
	}

	rec := do(t, r, http.MethodGet, "/sessions/"+got.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
}

func TestHandler_CreateSession_bad_request(t *testing.T) {
	r := newTestRouter(t, newTestService(t, newStubEngine, Options{}, nil))
	rec := do(t, r, http.MethodPost, "/sessions", "not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_CreateSession_attach_failure_is_degraded(t *testing.T) {
	srv := newPlaylistServer(t)
	svc := newTestService(t, engine.NewHLSFactory(srv.Client(), nil), Options{}, nil)
	r := newTestRouter(t, svc)

	got := createSession(t, r, srv.URL+"/missing.m3u8")
	if got.StreamError == "" {
		t.Error("expected stream_error in snapshot")
	}
	if got.Quality.Enabled {
		t.Error("quality selector should be disabled")
	}
	if got.Quality.Label != "Auto" {
		t.Errorf("quality label: got %q, want Auto", got.Quality.Label)
	}
}

func TestHandler_unknown_session(t *testing.T) {
	r := newTestRouter(t, newTestService(t, newStubEngine, Options{}, nil))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/sessions/nope"},
		{http.MethodDelete, "/sessions/nope"},
		{http.MethodPost, "/sessions/nope/zoom/in"},
		{http.MethodPost, "/sessions/nope/reload"},
	} {
		rec := do(t, r, tc.method, tc.path, map[string]any{})
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestHandler_zoom_and_pan(t *testing.T) {
	r := newTestRouter(t, newTestService(t, newStubEngine, Options{}, nil))
	id := createSession(t, r, "").ID
	base := "/sessions/" + id

	got := decodeResponse(t, do(t, r, http.MethodPost, base+"/zoom", map[string]any{"level": 9}))
	if got.Zoom.Level != 5 || got.Zoom.CanZoomIn {
		t.Errorf("zoom clamp: level %v can_zoom_in %v", got.Zoom.Level, got.Zoom.CanZoomIn)
	}

	got = decodeResponse(t, do(t, r, http.MethodPost, base+"/zoom", map[string]any{"level": 2}))
	if got.Transform.Scale != 2 {
		t.Errorf("transform scale: got %v", got.Transform.Scale)
	}

	got = decodeResponse(t, do(t, r, http.MethodPost, base+"/pointer/down", map[string]any{"x": 0, "y": 0}))
	if got.Cursor != "grabbing" {
		t.Errorf("cursor after down: got %q", got.Cursor)
	}
	got = decodeResponse(t, do(t, r, http.MethodPost, base+"/pointer/move", map[string]any{"x": 500, "y": 0}))
	if got.Zoom.Pan.X != 200 {
		t.Errorf("pan x: got %v, want 200 (clamped)", got.Zoom.Pan.X)
	}
	got = decodeResponse(t, do(t, r, http.MethodPost, base+"/pointer/up", nil))
	if got.Cursor != "grab" {
		t.Errorf("cursor after up: got %q", got.Cursor)
	}

	got = decodeResponse(t, do(t, r, http.MethodPost, base+"/zoom/reset", nil))
	if got.Zoom.Level != 1 || got.Zoom.Pan.X != 0 {
		t.Errorf("reset: level %v pan %v", got.Zoom.Level, got.Zoom.Pan.X)
	}

	if rec := do(t, r, http.MethodPost, base+"/zoom", map[string]any{}); rec.Code != http.StatusBadRequest {
		t.Errorf("zoom without level: expected 400, got %d", rec.Code)
	}
}

func TestHandler_pinch(t *testing.T) {
	r := newTestRouter(t, newTestService(t, newStubEngine, Options{}, nil))
	base := "/sessions/" + createSession(t, r, "").ID

	do(t, r, http.MethodPost, base+"/zoom", map[string]any{"level": 2})
	do(t, r, http.MethodPost, base+"/touch/start", map[string]any{
		"touches": []map[string]float64{{"x": 0, "y": 0}, {"x": 100, "y": 0}},
	})
	got := decodeResponse(t, do(t, r, http.MethodPost, base+"/touch/move", map[string]any{
		"touches": []map[string]float64{{"x": 0, "y": 0}, {"x": 150, "y": 0}},
	}))
	if got.Zoom.Level != 3 {
		t.Errorf("pinch zoom: got %v, want 3", got.Zoom.Level)
	}
	rec := do(t, r, http.MethodPost, base+"/touch/end", map[string]any{"remaining": 0})
	if rec.Code != http.StatusOK {
		t.Errorf("touch end: expected 200, got %d", rec.Code)
	}
}

func TestHandler_rendition_selection(t *testing.T) {
	svc := newTestService(t, newStubEngine, Options{}, nil)
	r := newTestRouter(t, svc)
	id := createSession(t, r, "stub://live").ID
	base := "/sessions/" + id

	sess, _ := svc.Get(SessionID(id))
	waitFor(t, "renditions", func() bool { return sess.Player.Snapshot().Quality.Enabled })

	got := decodeResponse(t, do(t, r, http.MethodPost, base+"/quality-menu", nil))
	if !got.Quality.MenuOpen {
		t.Error("menu should be open")
	}

	got = decodeResponse(t, do(t, r, http.MethodPost, base+"/rendition", map[string]any{"index": 0}))
	if got.Quality.Phase != "user_selected" || got.Quality.Requested != 0 || got.Quality.Label != "720p" {
		t.Errorf("select: phase %q requested %d label %q", got.Quality.Phase, got.Quality.Requested, got.Quality.Label)
	}
	if got.Quality.MenuOpen {
		t.Error("menu should close after a selection")
	}

	if rec := do(t, r, http.MethodPost, base+"/rendition", map[string]any{"index": 7}); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown rendition: expected 422, got %d", rec.Code)
	}

	got = decodeResponse(t, do(t, r, http.MethodPost, base+"/rendition", map[string]any{"index": -1}))
	if got.Quality.Phase != "ready" || got.Quality.Requested != -1 {
		t.Errorf("auto: phase %q requested %d", got.Quality.Phase, got.Quality.Requested)
	}
}

func TestHandler_reload_and_play(t *testing.T) {
	r := newTestRouter(t, newTestService(t, newStubEngine, Options{}, nil))
	base := "/sessions/" + createSession(t, r, "").ID

	if rec := do(t, r, http.MethodPost, base+"/reload", nil); rec.Code != http.StatusConflict {
		t.Errorf("reload without source: expected 409, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, base+"/play", nil); rec.Code != http.StatusConflict {
		t.Errorf("play without stream: expected 409, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, base+"/source", map[string]any{"source": "stub://live"}); rec.Code != http.StatusOK {
		t.Fatalf("load source: expected 200, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, base+"/reload", nil); rec.Code != http.StatusOK {
		t.Errorf("reload: expected 200, got %d", rec.Code)
	}
	got := decodeResponse(t, do(t, r, http.MethodPost, base+"/play", nil))
	if got.Playback != "playing" {
		t.Errorf("playback: got %q", got.Playback)
	}
}

func TestHandler_fullscreen_and_delete(t *testing.T) {
	r := newTestRouter(t, newTestService(t, newStubEngine, Options{}, nil))
	base := "/sessions/" + createSession(t, r, "").ID

	got := decodeResponse(t, do(t, r, http.MethodPost, base+"/fullscreen", map[string]any{"active": true}))
	if !got.Fullscreen {
		t.Error("expected fullscreen")
	}
	if rec := do(t, r, http.MethodPost, base+"/surface", map[string]any{"width": 1920, "height": 1080}); rec.Code != http.StatusOK {
		t.Errorf("surface: expected 200, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, base+"/activity", nil); rec.Code != http.StatusOK {
		t.Errorf("activity: expected 200, got %d", rec.Code)
	}

	if rec := do(t, r, http.MethodDelete, base, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodGet, base, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rec.Code)
	}
}
