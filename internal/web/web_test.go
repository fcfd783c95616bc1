package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rook-computer/shapekit/internal/app"
	"github.com/rook-computer/shapekit/internal/shape"
)

type fakeDisplay struct {
	frameErr  error
	renderErr error
	rendered  []string
	stats     shape.PassStats
	passes    uint64
}

func (f *fakeDisplay) WriteFrame(w io.Writer) error {
	if f.frameErr != nil {
		return f.frameErr
	}
	_, err := w.Write([]byte("\x89PNG"))
	return err
}

func (f *fakeDisplay) RenderYAML(data []byte) error {
	if f.renderErr != nil {
		return f.renderErr
	}
	f.rendered = append(f.rendered, string(data))
	f.passes++
	return nil
}

func (f *fakeDisplay) Stats() (shape.PassStats, uint64) { return f.stats, f.passes }

func TestAPIV1(t *testing.T) {
	tests := []struct {
		name       string
		display    *fakeDisplay
		method     string
		path       string
		body       string
		wantStatus int
		wantType   string
		wantBody   string
	}{
		{"frame", &fakeDisplay{}, http.MethodGet, "/api/v1/frame.png", "", http.StatusOK, "image/png", "\x89PNG"},
		{"frame without readback", &fakeDisplay{frameErr: app.ErrNoReadback}, http.MethodGet, "/api/v1/frame.png", "", http.StatusNotImplemented, "application/json", "no_readback"},
		{"frame failure", &fakeDisplay{frameErr: errors.New("bus")}, http.MethodGet, "/api/v1/frame.png", "", http.StatusInternalServerError, "application/json", "frame_failed"},
		{"frame wrong method", &fakeDisplay{}, http.MethodPost, "/api/v1/frame.png", "", http.StatusMethodNotAllowed, "application/json", "method_not_allowed"},
		{"render", &fakeDisplay{}, http.MethodPost, "/api/v1/render", "shapes: []", http.StatusOK, "application/json", `"passes":1`},
		{"render failure", &fakeDisplay{renderErr: errors.New("bad scene")}, http.MethodPost, "/api/v1/render", "x", http.StatusUnprocessableEntity, "application/json", "bad scene"},
		{"render too large", &fakeDisplay{}, http.MethodPost, "/api/v1/render", strings.Repeat("a", maxSceneBytes+1), http.StatusRequestEntityTooLarge, "application/json", "too_large"},
		{"render wrong method", &fakeDisplay{}, http.MethodGet, "/api/v1/render", "", http.StatusMethodNotAllowed, "application/json", "method_not_allowed"},
		{"stats", &fakeDisplay{passes: 4, stats: shape.PassStats{Strategy: shape.StrategyProgressive, Shapes: 3, Bands: 15, Duration: 2 * time.Millisecond}}, http.MethodGet, "/api/v1/stats", "", http.StatusOK, "application/json", `"bands":15`},
		{"unknown", &fakeDisplay{}, http.MethodGet, "/api/v1/nope", "", http.StatusNotFound, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := NewDefaultMux("", APIV1Config{Display: tt.display})
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantType != "" && rec.Header().Get("Content-Type") != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", rec.Header().Get("Content-Type"), tt.wantType)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestStatsResponse(t *testing.T) {
	d := &fakeDisplay{passes: 2, stats: shape.PassStats{
		Strategy: shape.StrategyDirect,
		Shapes:   5,
		Duration: 1500 * time.Microsecond,
		Err:      errors.New("text: no font"),
	}}
	mux := NewDefaultMux("", APIV1Config{Display: d})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	var got statsResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := statsResponse{Passes: 2, Strategy: "direct", Shapes: 5, DurationMs: 1.5, Error: "text: no font"}
	if got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}
}

func TestPreviewPage(t *testing.T) {
	mux := NewDefaultMux("", APIV1Config{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/v1/frame.png") {
		t.Error("preview page does not reference the frame endpoint")
	}
}

func TestDevCORS(t *testing.T) {
	h := WithDevCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/render", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}

func TestHTTPServerLifecycle(t *testing.T) {
	s := NewHTTPServer(ServerConfig{ListenAddr: "127.0.0.1:0"})
	s.API = APIV1Config{Display: &fakeDisplay{}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	resp, err := http.Get("http://" + s.Addr + "/api/v1/stats")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("Start() after Stop() succeeded, want error")
	}
}
